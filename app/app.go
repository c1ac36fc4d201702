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

package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/rvmfleet/edgeconnect/client/nats"
	"github.com/rvmfleet/edgeconnect/client/workflows"
	"github.com/rvmfleet/edgeconnect/model"
	"github.com/rvmfleet/edgeconnect/store"
	"github.com/rvmfleet/edgeconnect/utils"
)

// App errors
var (
	ErrDeviceNotFound    = errors.New("device not found")
	ErrMachineNotFound   = errors.New("machine not found")
	ErrDeviceExists      = errors.New("device already exists")
	ErrInvalidThreshold  = errors.New("threshold must be a positive duration")
	ErrTransitionsFailed = errors.New("failed to apply some device transitions")
)

const (
	defaultBatchSize = 500
	defaultWorkers   = 4
)

// App interface describes app objects
//
//nolint:lll
//go:generate ../utils/mockgen.sh
type App interface {
	HealthCheck(ctx context.Context) error
	ProvisionMachine(ctx context.Context, machine *model.Machine) error
	ProvisionDevice(ctx context.Context, device *model.EdgeDevice) error
	GetDevice(ctx context.Context, deviceID string) (*model.EdgeDevice, error)
	DeleteDevice(ctx context.Context, deviceID string) error
	UpsertAssignment(ctx context.Context, assignment *model.TechnicianAssignment) error
	RecordHeartbeat(ctx context.Context, hb *model.Heartbeat) (time.Time, error)
	CheckOffline(ctx context.Context, threshold time.Duration) (*model.CheckOfflineReport, error)
}

// app is an app object
type app struct {
	store     store.DataStore
	workflows workflows.Client
	nats      nats.Client
	Config
}

// Config tunes the app; zero values select the defaults
type Config struct {
	HaveAuditLogs bool
	Clock         utils.Clock
	// BatchSize is the page size of the reconciliation queries
	BatchSize int
	// Workers bounds the number of transitions applied concurrently
	Workers int
}

// New initialize a new edgeconnect App. The nats client is optional:
// status events are not published when it is nil.
func New(ds store.DataStore, wf workflows.Client, nc nats.Client, config ...Config) App {
	conf := Config{
		Clock:     utils.RealClock{},
		BatchSize: defaultBatchSize,
		Workers:   defaultWorkers,
	}
	for _, cfgIn := range config {
		if cfgIn.HaveAuditLogs {
			conf.HaveAuditLogs = true
		}
		if cfgIn.Clock != nil {
			conf.Clock = cfgIn.Clock
		}
		if cfgIn.BatchSize > 0 {
			conf.BatchSize = cfgIn.BatchSize
		}
		if cfgIn.Workers > 0 {
			conf.Workers = cfgIn.Workers
		}
	}
	return &app{
		store:     ds,
		workflows: wf,
		nats:      nc,
		Config:    conf,
	}
}

// HealthCheck performs a health check and returns an error if it fails;
// the workflows service is checked when audit logs are enabled
func (a *app) HealthCheck(ctx context.Context) error {
	if err := a.store.Ping(ctx); err != nil {
		return err
	}
	if a.HaveAuditLogs {
		if err := a.workflows.CheckHealth(ctx); err != nil {
			return errors.Wrap(err, "workflows service unhealthy")
		}
	}
	return nil
}

// ProvisionMachine registers a new RVM
func (a *app) ProvisionMachine(ctx context.Context, machine *model.Machine) error {
	if machine.ID == uuid.Nil {
		machine.ID = uuid.New()
	}
	if machine.CreatedAt.IsZero() {
		machine.CreatedAt = a.Clock.Now()
	}
	if err := machine.Validate(); err != nil {
		return errors.Wrap(err, "app: cannot provision invalid machine")
	}
	return a.store.ProvisionMachine(ctx, machine)
}

// ProvisionDevice registers a new edge device
func (a *app) ProvisionDevice(ctx context.Context, device *model.EdgeDevice) error {
	if device.ID == uuid.Nil {
		device.ID = uuid.New()
	}
	now := a.Clock.Now()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	if device.UpdatedAt.IsZero() {
		device.UpdatedAt = now
	}
	if err := device.Validate(); err != nil {
		return errors.Wrap(err, "app: cannot provision invalid device")
	}
	err := a.store.ProvisionDevice(ctx, device)
	switch errors.Cause(err) {
	case store.ErrDeviceExists:
		return ErrDeviceExists
	case store.ErrMachineNotFound:
		return ErrMachineNotFound
	}
	return err
}

// GetDevice returns a device
func (a *app) GetDevice(ctx context.Context, deviceID string) (*model.EdgeDevice, error) {
	device, err := a.store.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	} else if device == nil {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

// DeleteDevice soft-deletes a device; it is never reconciled afterwards
func (a *app) DeleteDevice(ctx context.Context, deviceID string) error {
	err := a.store.DeleteDevice(ctx, deviceID, a.Clock.Now())
	if errors.Cause(err) == store.ErrDeviceNotFound {
		return ErrDeviceNotFound
	}
	return err
}

// UpsertAssignment records a technician assignment of a machine
func (a *app) UpsertAssignment(
	ctx context.Context,
	assignment *model.TechnicianAssignment,
) error {
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = a.Clock.Now()
	}
	if err := assignment.Validate(); err != nil {
		return errors.Wrap(err, "app: invalid technician assignment")
	}
	err := a.store.UpsertAssignment(ctx, assignment)
	if errors.Cause(err) == store.ErrMachineNotFound {
		return ErrMachineNotFound
	}
	return err
}

// RecordHeartbeat refreshes the liveness of a device and returns the time
// the heartbeat was recorded at
func (a *app) RecordHeartbeat(ctx context.Context, hb *model.Heartbeat) (time.Time, error) {
	if err := hb.Validate(); err != nil {
		return time.Time{}, errors.Wrap(err, "app: invalid heartbeat")
	}
	now := a.Clock.Now()
	err := a.store.RecordHeartbeat(ctx, hb, now)
	if errors.Cause(err) == store.ErrDeviceNotFound {
		return time.Time{}, ErrDeviceNotFound
	} else if err != nil {
		return time.Time{}, err
	}
	return now, nil
}
