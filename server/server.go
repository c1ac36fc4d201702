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

package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/mendersoftware/go-lib-micro/config"
	"github.com/mendersoftware/go-lib-micro/log"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	api "github.com/rvmfleet/edgeconnect/api/http"
	"github.com/rvmfleet/edgeconnect/app"
	"github.com/rvmfleet/edgeconnect/client/nats"
	"github.com/rvmfleet/edgeconnect/client/workflows"
	dconfig "github.com/rvmfleet/edgeconnect/config"
	"github.com/rvmfleet/edgeconnect/scheduler"
	"github.com/rvmfleet/edgeconnect/store"
)

const shutdownTimeout = 5 * time.Second

// NewApp builds the edgeconnect app from the configuration. The returned
// nats client is nil when nats_uri is empty; the caller closes it.
func NewApp(conf config.Reader, dataStore store.DataStore) (app.App, nats.Client, error) {
	var natsClient nats.Client
	if uri := conf.GetString(dconfig.SettingNatsURI); uri != "" {
		var err error
		natsClient, err = nats.NewClientWithDefaults(uri)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to connect to nats")
		}
	}
	wf := workflows.NewClient(conf.GetString(dconfig.SettingWorkflowsURL))

	edgeConnectApp := app.New(dataStore, wf, natsClient, app.Config{
		HaveAuditLogs: conf.GetBool(dconfig.SettingEnableAudit),
		BatchSize:     conf.GetInt(dconfig.SettingCheckOfflineBatchSize),
		Workers:       conf.GetInt(dconfig.SettingCheckOfflineWorkers),
	})
	return edgeConnectApp, natsClient, nil
}

// InitAndRun initializes the server and runs it
func InitAndRun(conf config.Reader, dataStore store.DataStore) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Setup(conf.GetBool(dconfig.SettingDebugLog))
	l := log.FromContext(ctx)

	settings, err := CheckOfflineSettingsFromConfig(conf)
	if err != nil {
		return err
	}
	edgeConnectApp, natsClient, err := NewApp(conf, dataStore)
	if err != nil {
		return err
	}
	if natsClient != nil {
		defer natsClient.Close()
		done, err := SubscribeHeartbeats(ctx, edgeConnectApp, natsClient)
		if err != nil {
			return err
		}
		defer func() {
			cancel()
			<-done
		}()
	} else {
		l.Warn("nats_uri is empty: heartbeats are only received over HTTP")
	}

	if conf.GetBool(dconfig.SettingEnableScheduler) {
		sched := scheduler.New(dataStore, nil)
		if err := sched.Add(NewCheckOfflineJob(edgeConnectApp, settings)); err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	var listen = conf.GetString(dconfig.SettingListen)
	router, err := api.NewRouter(edgeConnectApp, api.RouterConfig{
		CheckOfflineThreshold: settings.Threshold,
		CheckOffline:          CheckOfflineRunner(edgeConnectApp, dataStore, settings),
	})
	if err != nil {
		l.Fatal(err)
	}
	srv := &http.Server{
		Addr:    listen,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, unix.SIGINT, unix.SIGTERM)
	<-quit

	l.Info("Shutdown Server ...")
	cancel()

	ctxWithTimeout, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxWithTimeout); err != nil {
		l.Fatal("Server Shutdown: ", err)
	}

	return nil
}
