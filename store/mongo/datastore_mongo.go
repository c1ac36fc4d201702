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
	"crypto/tls"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mendersoftware/go-lib-micro/config"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mopts "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	dconfig "github.com/rvmfleet/edgeconnect/config"
	"github.com/rvmfleet/edgeconnect/model"
	"github.com/rvmfleet/edgeconnect/store"
)

const (
	// DevicesCollectionName refers to the name of the collection of stored devices
	DevicesCollectionName = "devices"

	// MachinesCollectionName refers to the name of the collection of RVMs
	MachinesCollectionName = "machines"

	// AssignmentsCollectionName refers to the name of the collection of
	// technician assignments
	AssignmentsCollectionName = "technician_assignments"

	// JobLocksCollectionName refers to the name of the collection of
	// scheduler leases
	JobLocksCollectionName = "job_locks"
)

// SetupDataStore returns the mongo data store and optionally runs migrations
func SetupDataStore(automigrate bool) (*DataStoreMongo, error) {
	ctx := context.Background()
	dbClient, err := NewClient(ctx, config.Config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to db")
	}
	dataStore := NewDataStoreWithClient(dbClient, config.Config)
	err = Migrate(ctx, dataStore.dbName, DbVersion, dbClient, automigrate)
	if err != nil {
		disconnectClient(ctx, dbClient)
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	return dataStore, nil
}

func disconnectClient(parentCtx context.Context, client *mongo.Client) {
	ctx, cancel := context.WithTimeout(parentCtx, 1*time.Second)
	defer cancel()
	_ = client.Disconnect(ctx)
}

// NewClient returns a mongo client
func NewClient(ctx context.Context, c config.Reader) (*mongo.Client, error) {
	clientOptions := mopts.Client()
	mongoURL := c.GetString(dconfig.SettingMongo)
	if !strings.Contains(mongoURL, "://") {
		return nil, errors.Errorf("Invalid mongoURL %q: missing schema.",
			mongoURL)
	}
	clientOptions.ApplyURI(mongoURL).SetRegistry(registry)

	username := c.GetString(dconfig.SettingDbUsername)
	if username != "" {
		credentials := mopts.Credential{
			Username: username,
		}
		password := c.GetString(dconfig.SettingDbPassword)
		if password != "" {
			credentials.Password = password
			credentials.PasswordSet = true
		}
		clientOptions.SetAuth(credentials)
	}

	if c.GetBool(dconfig.SettingDbSSL) {
		tlsConfig := &tls.Config{}
		tlsConfig.InsecureSkipVerify = c.GetBool(dconfig.SettingDbSSLSkipVerify)
		clientOptions.SetTLSConfig(tlsConfig)
	}

	// status transitions must be journaled before they are reported
	clientOptions.SetWriteConcern(writeconcern.New(
		writeconcern.W(1), writeconcern.J(true),
	))

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to connect to mongo server")
	}

	// Validate connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "Error reaching mongo server")
	}

	return client, nil
}

// DataStoreMongo is the data storage service
type DataStoreMongo struct {
	// client holds the reference to the client used to communicate with the
	// mongodb server.
	client *mongo.Client
	// dbName contains the name of the edgeconnect database.
	dbName string
}

// NewDataStoreWithClient initializes a DataStore object
func NewDataStoreWithClient(client *mongo.Client, c config.Reader) *DataStoreMongo {
	dbName := c.GetString(dconfig.SettingDbName)
	if dbName == "" {
		dbName = DbName
	}

	return &DataStoreMongo{
		client: client,
		dbName: dbName,
	}
}

func (db *DataStoreMongo) collection(name string) *mongo.Collection {
	return db.client.Database(db.dbName).Collection(name)
}

// Ping verifies the connection to the database
func (db *DataStoreMongo) Ping(ctx context.Context) error {
	res := db.client.Database(db.dbName).RunCommand(ctx, bson.M{"ping": 1})
	return res.Err()
}

// ProvisionMachine inserts a new machine
func (db *DataStoreMongo) ProvisionMachine(ctx context.Context, machine *model.Machine) error {
	_, err := db.collection(MachinesCollectionName).InsertOne(ctx, machine)
	return errors.Wrapf(err, "insert machine %s", machine.ID)
}

// GetMachine returns a machine, or nil if it does not exist
func (db *DataStoreMongo) GetMachine(ctx context.Context, id uuid.UUID) (*model.Machine, error) {
	machine := &model.Machine{}
	err := db.collection(MachinesCollectionName).
		FindOne(ctx, bson.M{"_id": id}).
		Decode(machine)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "query machine %s", id)
	}
	return machine, nil
}

func (db *DataStoreMongo) machineExists(ctx context.Context, id uuid.UUID) error {
	n, err := db.collection(MachinesCollectionName).
		CountDocuments(ctx, bson.M{"_id": id}, mopts.Count().SetLimit(1))
	if err != nil {
		return errors.Wrapf(err, "query machine %s", id)
	} else if n == 0 {
		return store.ErrMachineNotFound
	}
	return nil
}

// ProvisionDevice inserts a new device
func (db *DataStoreMongo) ProvisionDevice(ctx context.Context, device *model.EdgeDevice) error {
	if device.RvmMachineID != nil {
		if err := db.machineExists(ctx, *device.RvmMachineID); err != nil {
			return err
		}
	}
	doc := *device
	doc.Assignments = nil
	_, err := db.collection(DevicesCollectionName).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDeviceExists
	}
	return errors.Wrapf(err, "insert device %s", device.DeviceID)
}

// GetDevice returns a device by its external identifier, or nil if it
// does not exist or was deleted
func (db *DataStoreMongo) GetDevice(ctx context.Context, deviceID string) (*model.EdgeDevice, error) {
	devices, err := db.aggregateDevices(ctx, bson.D{
		{Key: "device_id", Value: deviceID},
		{Key: "deleted_at", Value: nil},
	}, nil, 1)
	if err != nil {
		return nil, errors.Wrapf(err, "query device %s", deviceID)
	} else if len(devices) == 0 {
		return nil, nil
	}
	return &devices[0], nil
}

// DeleteDevice soft-deletes a device
func (db *DataStoreMongo) DeleteDevice(ctx context.Context, deviceID string, deletedAt time.Time) error {
	res, err := db.collection(DevicesCollectionName).UpdateOne(ctx,
		bson.D{
			{Key: "device_id", Value: deviceID},
			{Key: "deleted_at", Value: nil},
		},
		bson.M{"$set": bson.M{"deleted_at": deletedAt}},
	)
	if err != nil {
		return errors.Wrapf(err, "delete device %s", deviceID)
	} else if res.MatchedCount == 0 {
		return store.ErrDeviceNotFound
	}
	return nil
}

// UpsertAssignment inserts or updates a technician assignment
func (db *DataStoreMongo) UpsertAssignment(ctx context.Context, assignment *model.TechnicianAssignment) error {
	if err := db.machineExists(ctx, assignment.RvmMachineID); err != nil {
		return err
	}
	_, err := db.collection(AssignmentsCollectionName).UpdateOne(ctx,
		bson.M{"_id": assignment.ID},
		bson.M{
			"$set": bson.M{
				"rvm_machine_id": assignment.RvmMachineID,
				"technician_id":  assignment.TechnicianID,
				"status":         assignment.Status,
			},
			"$setOnInsert": bson.M{"created_at": assignment.CreatedAt},
		},
		mopts.Update().SetUpsert(true),
	)
	return errors.Wrapf(err, "upsert assignment %s", assignment.ID)
}

// restoreOnline evaluates to "online" for offline documents and keeps
// any other status
var restoreOnline = bson.M{"$cond": bson.A{
	bson.M{"$eq": bson.A{"$status", model.DeviceStatusOffline}},
	model.DeviceStatusOnline,
	"$status",
}}

// RecordHeartbeat advances the liveness timestamp of a device and of its
// paired machine. An offline device is restored to online; any other
// status is left untouched.
func (db *DataStoreMongo) RecordHeartbeat(ctx context.Context, hb *model.Heartbeat, at time.Time) error {
	set := bson.M{
		"status":     restoreOnline,
		"updated_at": at,
	}
	if hb.IPLocal != "" {
		set["ip_address_local"] = hb.IPLocal
	}
	if hb.TailscaleIP != "" {
		set["tailscale_ip"] = hb.TailscaleIP
	}
	device := &model.EdgeDevice{}
	err := db.collection(DevicesCollectionName).FindOneAndUpdate(ctx,
		bson.D{
			{Key: "device_id", Value: hb.DeviceID},
			{Key: "deleted_at", Value: nil},
		},
		mongo.Pipeline{{{Key: "$set", Value: set}}},
		mopts.FindOneAndUpdate().
			SetProjection(bson.M{"rvm_machine_id": 1}),
	).Decode(device)
	if err == mongo.ErrNoDocuments {
		return store.ErrDeviceNotFound
	} else if err != nil {
		return errors.Wrapf(err, "update device %s", hb.DeviceID)
	}
	if device.RvmMachineID == nil {
		return nil
	}
	_, err = db.collection(MachinesCollectionName).UpdateOne(ctx,
		bson.M{"_id": *device.RvmMachineID},
		mongo.Pipeline{{{Key: "$set", Value: bson.M{
			"status":    restoreOnline,
			"last_ping": at,
		}}}},
	)
	return errors.Wrapf(err, "update machine %s", *device.RvmMachineID)
}

// FindStaleSupervisedDevices returns online devices whose machine has a
// supervising assignment and whose last heartbeat is older than cutoff
func (db *DataStoreMongo) FindStaleSupervisedDevices(
	ctx context.Context,
	cutoff time.Time,
	opts store.ListOptions,
) ([]model.EdgeDevice, error) {
	match := candidateFilter(opts)
	match = append(match, bson.E{
		Key: "updated_at", Value: bson.M{"$lt": cutoff},
	})
	devices, err := db.aggregateDevices(ctx, match, bson.M{
		"assignments.status": bson.M{"$in": model.SupervisingAssignmentStatuses},
	}, opts.Limit)
	return devices, errors.Wrap(err, "query stale supervised devices")
}

// FindLapsedSupervisionDevices returns online devices whose machine has
// assignments, none of which is supervising
func (db *DataStoreMongo) FindLapsedSupervisionDevices(
	ctx context.Context,
	opts store.ListOptions,
) ([]model.EdgeDevice, error) {
	devices, err := db.aggregateDevices(ctx, candidateFilter(opts), bson.M{
		"assignments.0":      bson.M{"$exists": true},
		"assignments.status": bson.M{"$nin": model.SupervisingAssignmentStatuses},
	}, opts.Limit)
	return devices, errors.Wrap(err, "query lapsed supervision devices")
}

func candidateFilter(opts store.ListOptions) bson.D {
	return bson.D{
		{Key: "status", Value: model.DeviceStatusOnline},
		{Key: "deleted_at", Value: nil},
		{Key: "rvm_machine_id", Value: bson.M{"$ne": nil}},
		{Key: "_id", Value: bson.M{"$gt": opts.After}},
	}
}

// aggregateDevices joins devices matching match with the statuses of their
// machine's assignments, filters the joined documents with
// assignmentMatch and returns at most limit of them ordered by _id.
func (db *DataStoreMongo) aggregateDevices(
	ctx context.Context,
	match bson.D,
	assignmentMatch bson.M,
	limit int,
) ([]model.EdgeDevice, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         AssignmentsCollectionName,
			"localField":   "rvm_machine_id",
			"foreignField": "rvm_machine_id",
			"as":           "assignments",
		}}},
	}
	if assignmentMatch != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: assignmentMatch}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$addFields", Value: bson.M{
		"assignments": "$assignments.status",
	}}})

	cur, err := db.collection(DevicesCollectionName).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	devices := []model.EdgeDevice{}
	if err := cur.All(ctx, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// ApplyTransition sets the device status, only if the device still has
// the expected previous status, and mirrors it on the paired machine.
// Both writes are committed in one transaction.
func (db *DataStoreMongo) ApplyTransition(ctx context.Context, t model.Transition) error {
	sess, err := db.client.StartSession()
	if err != nil {
		return errors.Wrap(err, "start session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sctx mongo.SessionContext) (interface{}, error) {
		res, err := db.collection(DevicesCollectionName).UpdateOne(sctx,
			bson.D{
				{Key: "_id", Value: t.ID},
				{Key: "status", Value: t.From},
				{Key: "deleted_at", Value: nil},
			},
			bson.M{"$set": bson.M{"status": t.To}},
		)
		if err != nil {
			return nil, errors.Wrapf(err, "update device %s", t.DeviceID)
		} else if res.MatchedCount == 0 {
			return nil, store.ErrDeviceStatusChanged
		}
		if t.RvmMachineID == nil {
			return nil, nil
		}
		_, err = db.collection(MachinesCollectionName).UpdateOne(sctx,
			bson.M{"_id": *t.RvmMachineID},
			bson.M{"$set": bson.M{"status": t.To}},
		)
		return nil, errors.Wrapf(err, "update machine %s", *t.RvmMachineID)
	})
	return err
}

// AcquireJobLock takes the named lock for owner unless another owner holds
// an unexpired lease on it
func (db *DataStoreMongo) AcquireJobLock(
	ctx context.Context,
	name, owner string,
	now time.Time,
	ttl time.Duration,
) (bool, error) {
	_, err := db.collection(JobLocksCollectionName).UpdateOne(ctx,
		bson.M{
			"_id": name,
			"$or": bson.A{
				bson.M{"expires_at": bson.M{"$lte": now}},
				bson.M{"owner": owner},
			},
		},
		bson.M{"$set": bson.M{
			"owner":      owner,
			"expires_at": now.Add(ttl),
		}},
		mopts.Update().SetUpsert(true),
	)
	if mongo.IsDuplicateKeyError(err) {
		// held by another owner: the upsert collided with its document
		return false, nil
	} else if err != nil {
		return false, errors.Wrapf(err, "acquire lock %s", name)
	}
	return true, nil
}

// ReleaseJobLock drops the named lock if owner holds it
func (db *DataStoreMongo) ReleaseJobLock(ctx context.Context, name, owner string) error {
	_, err := db.collection(JobLocksCollectionName).DeleteOne(ctx,
		bson.M{"_id": name, "owner": owner})
	return errors.Wrapf(err, "release lock %s", name)
}

// Close disconnects the client
func (db *DataStoreMongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}

func (db *DataStoreMongo) dropDatabase(ctx context.Context) error {
	return db.client.Database(db.dbName).Drop(ctx)
}
