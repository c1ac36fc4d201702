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

	"github.com/mendersoftware/go-lib-micro/mongo/migrate"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mopts "go.mongodb.org/mongo-driver/mongo/options"
)

const (
	IndexNameDeviceID        = "device_id"
	IndexNameStatusID        = "status__id"
	IndexNameStatusUpdatedAt = "status_updated_at"
	IndexNameMachineID       = "rvm_machine_id"
	IndexNameMachineIDStatus = "rvm_machine_id_status"
)

type migration_1_0_0 struct {
	client *mongo.Client
	db     string
}

// Up creates the indexes backing the device lookups and the
// reconciliation queries
func (m *migration_1_0_0) Up(from migrate.Version) error {
	ctx := context.Background()
	database := m.client.Database(m.db)

	collections := map[string][]mongo.IndexModel{
		DevicesCollectionName: {
			{
				Keys: bson.D{{Key: "device_id", Value: 1}},
				Options: mopts.Index().
					SetName(IndexNameDeviceID).
					SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "_id", Value: 1},
				},
				Options: mopts.Index().SetName(IndexNameStatusID),
			},
			{
				Keys: bson.D{
					{Key: "status", Value: 1},
					{Key: "updated_at", Value: 1},
				},
				Options: mopts.Index().SetName(IndexNameStatusUpdatedAt),
			},
			{
				Keys:    bson.D{{Key: "rvm_machine_id", Value: 1}},
				Options: mopts.Index().SetName(IndexNameMachineID),
			},
		},
		AssignmentsCollectionName: {
			{
				Keys: bson.D{
					{Key: "rvm_machine_id", Value: 1},
					{Key: "status", Value: 1},
				},
				Options: mopts.Index().SetName(IndexNameMachineIDStatus),
			},
		},
	}

	for collection, indexes := range collections {
		_, err := database.Collection(collection).
			Indexes().
			CreateMany(ctx, indexes)
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *migration_1_0_0) Version() migrate.Version {
	return migrate.MakeVersion(1, 0, 0)
}
