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
	"testing"

	"github.com/mendersoftware/go-lib-micro/mongo/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMigration_1_0_0(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping TestMigration_1_0_0 in short mode.")
	}
	ctx := context.Background()

	testCases := map[string]struct {
		dbVer string
	}{
		"no index, 0.0.0": {
			dbVer: "",
		},
		"no index, 0.0.1": {
			dbVer: "0.0.1",
		},
		"already migrated, 1.0.0": {
			dbVer: "1.0.0",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			db.Wipe()
			c := db.Client()

			// setup existing migrations
			if tc.dbVer != "" {
				ver, err := migrate.NewVersion(tc.dbVer)
				require.NoError(t, err)
				_ = migrate.UpdateMigrationInfo(ctx, *ver, c, DbName)
			}

			err := Migrate(ctx, DbName, DbVersion, c, true)
			assert.NoError(t, err)

			if tc.dbVer == DbVersion {
				return
			}
			cur, err := c.Database(DbName).
				Collection(DevicesCollectionName).
				Indexes().
				List(ctx)
			require.NoError(t, err)
			var indexes []bson.M
			require.NoError(t, cur.All(ctx, &indexes))
			names := make([]string, 0, len(indexes))
			for _, idx := range indexes {
				names = append(names, idx["name"].(string))
			}
			assert.Contains(t, names, IndexNameDeviceID)
			assert.Contains(t, names, IndexNameStatusID)
			assert.Contains(t, names, IndexNameStatusUpdatedAt)
			assert.Contains(t, names, IndexNameMachineID)
		})
	}
}

func TestMigrateInvalidVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping TestMigrateInvalidVersion in short mode.")
	}
	err := Migrate(context.Background(), DbName, "one", db.Client(), true)
	assert.Error(t, err)
}
