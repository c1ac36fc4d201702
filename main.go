// Copyright 2026 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mendersoftware/go-lib-micro/config"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	dconfig "github.com/rvmfleet/edgeconnect/config"
	"github.com/rvmfleet/edgeconnect/server"
	"github.com/rvmfleet/edgeconnect/store"
	mstore "github.com/rvmfleet/edgeconnect/store/mongo"
	"github.com/rvmfleet/edgeconnect/store/sqlite"
)

var Version string = "unknown"

func main() {
	doMain(os.Args)
}

func doMain(args []string) {
	var configPath string

	app := &cli.App{
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name: "config",
				Usage: "Configuration `FILE`. " +
					"Supports JSON, TOML, YAML and HCL " +
					"formatted configs.",
				Value:       "config.yaml",
				Destination: &configPath,
			},
		},
		Commands: []cli.Command{
			{
				Name:   "server",
				Usage:  "Run the HTTP API server and the periodic jobs",
				Action: cmdServer,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "automigrate",
						Usage: "Run database migrations before starting.",
					},
				},
			},
			{
				Name: "check-offline",
				Usage: "Mark stale supervised devices offline and devices " +
					"with lapsed supervision in maintenance",
				Action: cmdCheckOffline,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name: "threshold",
						Usage: "Seconds without a heartbeat before a device " +
							"is considered offline (default from configuration)",
					},
					&cli.BoolFlag{
						Name:  "without-overlapping",
						Usage: "Skip the run if another process is running the job.",
					},
				},
			},
			{
				Name:   "migrate",
				Usage:  "Run the migrations",
				Action: cmdMigrate,
			},
		},
	}
	app.Usage = "RVM edge device connectivity"
	app.Version = Version
	app.Action = cmdServer

	app.Before = func(args *cli.Context) error {
		err := config.FromConfigFile(configPath, dconfig.Defaults)
		if err != nil {
			return cli.NewExitError(
				fmt.Sprintf("error loading configuration: %s", err),
				1)
		}

		// Enable setting config values by environment variables
		config.Config.SetEnvPrefix("EDGECONNECT")
		config.Config.AutomaticEnv()
		config.Config.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

		return nil
	}

	err := app.Run(args)
	if err != nil {
		log.Fatal(err)
	}
}

func setupDataStore(automigrate bool) (store.DataStore, error) {
	switch driver := config.Config.GetString(dconfig.SettingStoreDriver); driver {
	case dconfig.StoreDriverMongo:
		return mstore.SetupDataStore(automigrate)
	case dconfig.StoreDriverSQLite:
		return sqlite.SetupDataStore()
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func cmdServer(args *cli.Context) error {
	dataStore, err := setupDataStore(args.Bool("automigrate"))
	if err != nil {
		return err
	}
	defer dataStore.Close()
	return server.InitAndRun(config.Config, dataStore)
}

func cmdCheckOffline(args *cli.Context) error {
	settings, err := checkOfflineSettings(args, config.Config)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	dataStore, err := setupDataStore(false)
	if err != nil {
		return err
	}
	defer dataStore.Close()

	edgeConnectApp, natsClient, err := server.NewApp(config.Config, dataStore)
	if err != nil {
		return err
	}
	if natsClient != nil {
		defer natsClient.Close()
	}

	_, ran, err := server.RunCheckOffline(context.Background(),
		edgeConnectApp, dataStore, settings, args.Bool("without-overlapping"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	} else if !ran {
		fmt.Fprintln(os.Stderr, "check-offline is already running, skipped")
	}
	return nil
}

// checkOfflineSettings reads the check-offline settings from the
// configuration; the threshold flag takes precedence
func checkOfflineSettings(
	args *cli.Context,
	conf config.Reader,
) (server.CheckOfflineSettings, error) {
	settings, err := server.CheckOfflineSettingsFromConfig(conf)
	if err != nil {
		return settings, err
	}
	if args.IsSet("threshold") {
		err = settings.SetThresholdSeconds(args.Int64("threshold"))
		if err != nil {
			return settings, errors.Wrap(err, "invalid --threshold")
		}
	}
	return settings, nil
}

func cmdMigrate(args *cli.Context) error {
	dataStore, err := setupDataStore(true)
	if err != nil {
		return err
	}
	return dataStore.Close()
}
