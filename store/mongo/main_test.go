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

package mongo

import (
	"context"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/mendersoftware/go-lib-micro/config"
	"go.mongodb.org/mongo-driver/mongo"
	mopts "go.mongodb.org/mongo-driver/mongo/options"

	dconfig "github.com/rvmfleet/edgeconnect/config"
)

// testDB wraps the connection to the mongod used by the tests. The
// transactional writes need the server to run as a replica set member.
type testDB struct {
	client *mongo.Client
}

var db *testDB

func (d *testDB) Client() *mongo.Client {
	return d.client
}

// Wipe drops the test database
func (d *testDB) Wipe() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.client.Database(DbName).Drop(ctx); err != nil {
		panic(err)
	}
}

func TestMain(m *testing.M) {
	flag.Parse()

	config.Config.SetDefault(dconfig.SettingDbName, DbName)
	if testing.Short() {
		os.Exit(m.Run())
	}

	url := os.Getenv("TEST_MONGO_URL")
	if url == "" {
		url = "mongodb://localhost:27017/?replicaSet=rs0"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := mongo.Connect(ctx, mopts.Client().ApplyURI(url).SetRegistry(registry))
	if err == nil {
		err = client.Ping(ctx, nil)
	}
	cancel()
	if err != nil {
		panic(err)
	}
	db = &testDB{client: client}

	code := m.Run()

	db.Wipe()
	_ = client.Disconnect(context.Background())
	os.Exit(code)
}
