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

package sqlite

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvmfleet/edgeconnect/model"
	"github.com/rvmfleet/edgeconnect/store"
)

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newTestDataStore(t *testing.T) *DataStoreSQLite {
	ds, err := Open(filepath.Join(t.TempDir(), "edgeconnect.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds
}

type fixture struct {
	deviceID    string
	status      string
	age         time.Duration
	noMachine   bool
	assignments []string
	deleted     bool
}

// seed provisions the fixtures and returns the devices keyed by their
// external identifier
func seed(t *testing.T, ds *DataStoreSQLite, fixtures ...fixture) map[string]*model.EdgeDevice {
	ctx := context.Background()
	devices := make(map[string]*model.EdgeDevice, len(fixtures))
	for _, f := range fixtures {
		device := &model.EdgeDevice{
			ID:        uuid.New(),
			DeviceID:  f.deviceID,
			Status:    f.status,
			CreatedAt: now.Add(-time.Hour),
			UpdatedAt: now.Add(-f.age),
		}
		if !f.noMachine {
			machine := &model.Machine{
				ID:           uuid.New(),
				SerialNumber: "SN-" + f.deviceID,
				Status:       f.status,
				CreatedAt:    now.Add(-time.Hour),
			}
			require.NoError(t, ds.ProvisionMachine(ctx, machine))
			device.RvmMachineID = &machine.ID
			for i, status := range f.assignments {
				require.NoError(t, ds.UpsertAssignment(ctx, &model.TechnicianAssignment{
					ID:           uuid.New(),
					RvmMachineID: machine.ID,
					TechnicianID: "tech-" + string(rune('a'+i)),
					Status:       status,
					CreatedAt:    now.Add(-time.Hour),
				}))
			}
		}
		require.NoError(t, ds.ProvisionDevice(ctx, device))
		if f.deleted {
			require.NoError(t, ds.DeleteDevice(ctx, f.deviceID, now))
		}
		devices[f.deviceID] = device
	}
	return devices
}

func deviceIDs(devices []model.EdgeDevice) []string {
	ids := make([]string, len(devices))
	for i := range devices {
		ids[i] = devices[i].DeviceID
	}
	sort.Strings(ids)
	return ids
}

func TestPing(t *testing.T) {
	ds := newTestDataStore(t)
	assert.NoError(t, ds.Ping(context.Background()))
}

func TestProvisionAndDeleteDevice(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataStore(t)

	devices := seed(t, ds, fixture{
		deviceID:    "D1",
		status:      model.DeviceStatusOnline,
		assignments: []string{model.AssignmentStatusActive},
	})

	device, err := ds.GetDevice(ctx, "D1")
	require.NoError(t, err)
	require.NotNil(t, device)
	assert.Equal(t, devices["D1"].ID, device.ID)
	assert.Equal(t, devices["D1"].RvmMachineID, device.RvmMachineID)
	assert.Equal(t, model.DeviceStatusOnline, device.Status)
	assert.True(t, devices["D1"].UpdatedAt.Equal(device.UpdatedAt))
	assert.Equal(t, []string{model.AssignmentStatusActive}, device.Assignments)

	err = ds.ProvisionDevice(ctx, &model.EdgeDevice{
		ID:       uuid.New(),
		DeviceID: "D1",
		Status:   model.DeviceStatusOffline,
	})
	assert.Equal(t, store.ErrDeviceExists, err)

	unknown := uuid.New()
	err = ds.ProvisionDevice(ctx, &model.EdgeDevice{
		ID:           uuid.New(),
		DeviceID:     "D2",
		Status:       model.DeviceStatusOffline,
		RvmMachineID: &unknown,
	})
	assert.Equal(t, store.ErrMachineNotFound, err)

	require.NoError(t, ds.DeleteDevice(ctx, "D1", now))
	device, err = ds.GetDevice(ctx, "D1")
	assert.NoError(t, err)
	assert.Nil(t, device)

	assert.Equal(t, store.ErrDeviceNotFound, ds.DeleteDevice(ctx, "D1", now))
}

func TestFindStaleSupervisedDevices(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataStore(t)
	cutoff := now.Add(-120 * time.Second)

	seed(t, ds,
		fixture{
			deviceID:    "stale-active",
			status:      model.DeviceStatusOnline,
			age:         200 * time.Second,
			assignments: []string{model.AssignmentStatusActive},
		},
		fixture{
			deviceID:    "stale-assigned-and-revoked",
			status:      model.DeviceStatusOnline,
			age:         121 * time.Second,
			assignments: []string{model.AssignmentStatusRevoked, model.AssignmentStatusAssigned},
		},
		fixture{
			deviceID:    "at-threshold",
			status:      model.DeviceStatusOnline,
			age:         120 * time.Second,
			assignments: []string{model.AssignmentStatusActive},
		},
		fixture{
			deviceID:    "fresh-active",
			status:      model.DeviceStatusOnline,
			assignments: []string{model.AssignmentStatusActive},
		},
		fixture{
			deviceID: "stale-unassigned",
			status:   model.DeviceStatusOnline,
			age:      300 * time.Second,
		},
		fixture{
			deviceID:    "stale-revoked",
			status:      model.DeviceStatusOnline,
			age:         300 * time.Second,
			assignments: []string{model.AssignmentStatusRevoked},
		},
		fixture{
			deviceID:    "maintenance",
			status:      model.DeviceStatusMaintenance,
			age:         999 * time.Second,
			assignments: []string{model.AssignmentStatusActive},
		},
		fixture{
			deviceID:    "deleted",
			status:      model.DeviceStatusOnline,
			age:         999 * time.Second,
			assignments: []string{model.AssignmentStatusActive},
			deleted:     true,
		},
		fixture{
			deviceID:  "no-machine",
			status:    model.DeviceStatusOnline,
			age:       999 * time.Second,
			noMachine: true,
		},
	)

	devices, err := ds.FindStaleSupervisedDevices(ctx, cutoff,
		store.ListOptions{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"stale-active",
		"stale-assigned-and-revoked",
	}, deviceIDs(devices))
	for _, device := range devices {
		_, ok := model.Classify(&device, cutoff)
		assert.True(t, ok, device.DeviceID)
	}
}

func TestFindLapsedSupervisionDevices(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataStore(t)

	seed(t, ds,
		fixture{
			deviceID:    "fresh-revoked",
			status:      model.DeviceStatusOnline,
			assignments: []string{model.AssignmentStatusRevoked},
		},
		fixture{
			deviceID: "suspended-and-completed",
			status:   model.DeviceStatusOnline,
			age:      500 * time.Second,
			assignments: []string{
				model.AssignmentStatusSuspended,
				model.AssignmentStatusCompleted,
			},
		},
		fixture{
			deviceID:    "revoked-and-active",
			status:      model.DeviceStatusOnline,
			assignments: []string{model.AssignmentStatusRevoked, model.AssignmentStatusActive},
		},
		fixture{
			deviceID: "unassigned",
			status:   model.DeviceStatusOnline,
		},
		fixture{
			deviceID:    "offline-revoked",
			status:      model.DeviceStatusOffline,
			assignments: []string{model.AssignmentStatusRevoked},
		},
	)

	devices, err := ds.FindLapsedSupervisionDevices(ctx, store.ListOptions{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"fresh-revoked",
		"suspended-and-completed",
	}, deviceIDs(devices))

	stale, err := ds.FindStaleSupervisedDevices(ctx, now.Add(time.Hour),
		store.ListOptions{Limit: 100})
	require.NoError(t, err)
	for _, a := range stale {
		for _, b := range devices {
			assert.NotEqual(t, a.ID, b.ID, "candidate sets overlap")
		}
	}
}

func TestFindCandidatesStatusWithComma(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataStore(t)
	cutoff := now.Add(-120 * time.Second)

	seed(t, ds,
		fixture{
			deviceID:    "lapsed",
			status:      model.DeviceStatusOnline,
			age:         300 * time.Second,
			assignments: []string{"revoked,active"},
		},
	)

	stale, err := ds.FindStaleSupervisedDevices(ctx, cutoff, store.ListOptions{Limit: 100})
	require.NoError(t, err)
	assert.Empty(t, stale)

	devices, err := ds.FindLapsedSupervisionDevices(ctx, store.ListOptions{Limit: 100})
	require.NoError(t, err)
	if assert.Len(t, devices, 1) {
		assert.Equal(t, []string{"revoked,active"}, devices[0].Assignments)
		tr, ok := model.Classify(&devices[0], cutoff)
		assert.True(t, ok)
		assert.Equal(t, model.DeviceStatusMaintenance, tr.To)
	}
}

func TestFindCandidatesPagination(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataStore(t)

	var fixtures []fixture
	for _, id := range []string{"P1", "P2", "P3", "P4", "P5"} {
		fixtures = append(fixtures, fixture{
			deviceID:    id,
			status:      model.DeviceStatusOnline,
			assignments: []string{model.AssignmentStatusCompleted},
		})
	}
	seed(t, ds, fixtures...)

	var (
		seen  []model.EdgeDevice
		opts  = store.ListOptions{Limit: 2}
		pages int
	)
	for {
		page, err := ds.FindLapsedSupervisionDevices(ctx, opts)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		pages++
		assert.LessOrEqual(t, len(page), 2)
		seen = append(seen, page...)
		opts.After = page[len(page)-1].ID
	}
	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"P1", "P2", "P3", "P4", "P5"}, deviceIDs(seen))
	for i := 1; i < len(seen); i++ {
		assert.Less(t, seen[i-1].ID.String(), seen[i].ID.String())
	}
}

func TestApplyTransition(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataStore(t)

	devices := seed(t, ds,
		fixture{
			deviceID:    "paired",
			status:      model.DeviceStatusOnline,
			assignments: []string{model.AssignmentStatusActive},
		},
		fixture{
			deviceID:  "unpaired",
			status:    model.DeviceStatusOnline,
			noMachine: true,
		},
	)

	paired := devices["paired"]
	err := ds.ApplyTransition(ctx, model.Transition{
		ID:           paired.ID,
		DeviceID:     paired.DeviceID,
		RvmMachineID: paired.RvmMachineID,
		From:         model.DeviceStatusOnline,
		To:           model.DeviceStatusOffline,
		Reason:       model.ReasonInactiveHeartbeat,
	})
	require.NoError(t, err)
	device, err := ds.GetDevice(ctx, "paired")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceStatusOffline, device.Status)
	assert.True(t, paired.UpdatedAt.Equal(device.UpdatedAt),
		"transition must not touch the heartbeat timestamp")
	machine, err := ds.GetMachine(ctx, *paired.RvmMachineID)
	require.NoError(t, err)
	assert.Equal(t, model.DeviceStatusOffline, machine.Status)

	// the device left the online state: a second attempt is a no-op
	err = ds.ApplyTransition(ctx, model.Transition{
		ID:           paired.ID,
		DeviceID:     paired.DeviceID,
		RvmMachineID: paired.RvmMachineID,
		From:         model.DeviceStatusOnline,
		To:           model.DeviceStatusMaintenance,
	})
	assert.Equal(t, store.ErrDeviceStatusChanged, err)
	machine, err = ds.GetMachine(ctx, *paired.RvmMachineID)
	require.NoError(t, err)
	assert.Equal(t, model.DeviceStatusOffline, machine.Status)

	unpaired := devices["unpaired"]
	err = ds.ApplyTransition(ctx, model.Transition{
		ID:       unpaired.ID,
		DeviceID: unpaired.DeviceID,
		From:     model.DeviceStatusOnline,
		To:       model.DeviceStatusMaintenance,
	})
	require.NoError(t, err)
	device, err = ds.GetDevice(ctx, "unpaired")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceStatusMaintenance, device.Status)
}

func TestRecordHeartbeat(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataStore(t)

	devices := seed(t, ds,
		fixture{
			deviceID: "offline",
			status:   model.DeviceStatusOffline,
			age:      time.Hour,
		},
		fixture{
			deviceID: "maintenance",
			status:   model.DeviceStatusMaintenance,
			age:      time.Hour,
		},
	)

	at := now.Add(time.Minute)
	err := ds.RecordHeartbeat(ctx, &model.Heartbeat{
		DeviceID: "offline",
		IPLocal:  "192.168.1.10",
	}, at)
	require.NoError(t, err)
	device, err := ds.GetDevice(ctx, "offline")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceStatusOnline, device.Status)
	assert.True(t, at.Equal(device.UpdatedAt))
	assert.Equal(t, "192.168.1.10", device.IPAddressLocal)
	machine, err := ds.GetMachine(ctx, *devices["offline"].RvmMachineID)
	require.NoError(t, err)
	assert.Equal(t, model.DeviceStatusOnline, machine.Status)
	require.NotNil(t, machine.LastPing)
	assert.True(t, at.Equal(*machine.LastPing))

	err = ds.RecordHeartbeat(ctx, &model.Heartbeat{
		DeviceID:    "maintenance",
		TailscaleIP: "100.64.0.5",
	}, at)
	require.NoError(t, err)
	device, err = ds.GetDevice(ctx, "maintenance")
	require.NoError(t, err)
	assert.Equal(t, model.DeviceStatusMaintenance, device.Status)
	assert.Equal(t, "100.64.0.5", device.TailscaleIP)
	assert.True(t, at.Equal(device.UpdatedAt))
	machine, err = ds.GetMachine(ctx, *devices["maintenance"].RvmMachineID)
	require.NoError(t, err)
	assert.Equal(t, model.DeviceStatusMaintenance, machine.Status)

	err = ds.RecordHeartbeat(ctx, &model.Heartbeat{DeviceID: "unknown"}, at)
	assert.Equal(t, store.ErrDeviceNotFound, err)
}

func TestJobLock(t *testing.T) {
	ctx := context.Background()
	ds := newTestDataStore(t)
	const name = "check-offline"
	ttl := 10 * time.Minute

	ok, err := ds.AcquireJobLock(ctx, name, "owner-a", now, ttl)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ds.AcquireJobLock(ctx, name, "owner-b", now.Add(time.Minute), ttl)
	require.NoError(t, err)
	assert.False(t, ok)

	// the holder may renew its own lease
	ok, err = ds.AcquireJobLock(ctx, name, "owner-a", now.Add(time.Minute), ttl)
	require.NoError(t, err)
	assert.True(t, ok)

	// expired leases are taken over
	ok, err = ds.AcquireJobLock(ctx, name, "owner-b", now.Add(time.Hour), ttl)
	require.NoError(t, err)
	assert.True(t, ok)

	// only the holder releases
	require.NoError(t, ds.ReleaseJobLock(ctx, name, "owner-a"))
	ok, err = ds.AcquireJobLock(ctx, name, "owner-a", now.Add(time.Hour), ttl)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ds.ReleaseJobLock(ctx, name, "owner-b"))
	ok, err = ds.AcquireJobLock(ctx, name, "owner-a", now.Add(time.Hour), ttl)
	require.NoError(t, err)
	assert.True(t, ok)
}
