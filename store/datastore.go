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

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rvmfleet/edgeconnect/model"
)

// DataStore interface for DataStore services
//
//nolint:lll - skip line length check for interface declaration.
//go:generate ../utils/mockgen.sh
type DataStore interface {
	Ping(ctx context.Context) error
	ProvisionMachine(ctx context.Context, machine *model.Machine) error
	GetMachine(ctx context.Context, id uuid.UUID) (*model.Machine, error)
	ProvisionDevice(ctx context.Context, device *model.EdgeDevice) error
	GetDevice(ctx context.Context, deviceID string) (*model.EdgeDevice, error)
	DeleteDevice(ctx context.Context, deviceID string, deletedAt time.Time) error
	UpsertAssignment(ctx context.Context, assignment *model.TechnicianAssignment) error
	RecordHeartbeat(ctx context.Context, hb *model.Heartbeat, at time.Time) error
	FindStaleSupervisedDevices(ctx context.Context, cutoff time.Time, opts ListOptions) ([]model.EdgeDevice, error)
	FindLapsedSupervisionDevices(ctx context.Context, opts ListOptions) ([]model.EdgeDevice, error)
	ApplyTransition(ctx context.Context, t model.Transition) error
	AcquireJobLock(ctx context.Context, name, owner string, now time.Time, ttl time.Duration) (bool, error)
	ReleaseJobLock(ctx context.Context, name, owner string) error
	Close() error
}

// ListOptions selects one page of reconciliation candidates. Candidates are
// ordered by ascending ID and only IDs greater than After are returned.
type ListOptions struct {
	After uuid.UUID
	Limit int
}

var (
	ErrDeviceNotFound      = errors.New("store: device not found")
	ErrMachineNotFound     = errors.New("store: machine not found")
	ErrDeviceExists        = errors.New("store: device already exists")
	ErrDeviceStatusChanged = errors.New("store: device status changed concurrently")
)
