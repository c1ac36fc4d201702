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
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mendersoftware/go-lib-micro/config"
	"github.com/pkg/errors"

	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"

	dconfig "github.com/rvmfleet/edgeconnect/config"
	"github.com/rvmfleet/edgeconnect/model"
	"github.com/rvmfleet/edgeconnect/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS rvm_machines (
	id TEXT PRIMARY KEY,
	serial_number TEXT NOT NULL,
	status TEXT NOT NULL,
	last_ping INTEGER,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS edge_devices (
	id TEXT PRIMARY KEY,
	device_id TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL,
	rvm_machine_id TEXT REFERENCES rvm_machines(id) ON DELETE SET NULL,
	ip_address_local TEXT NOT NULL DEFAULT '',
	tailscale_ip TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	deleted_at INTEGER
);
CREATE INDEX IF NOT EXISTS edge_devices_status_updated_at
	ON edge_devices (status, updated_at);
CREATE INDEX IF NOT EXISTS edge_devices_rvm_machine_id
	ON edge_devices (rvm_machine_id);
CREATE TABLE IF NOT EXISTS technician_assignments (
	id TEXT PRIMARY KEY,
	rvm_machine_id TEXT NOT NULL REFERENCES rvm_machines(id) ON DELETE CASCADE,
	technician_id TEXT NOT NULL,
	status TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS technician_assignments_machine_status
	ON technician_assignments (rvm_machine_id, status);
CREATE TABLE IF NOT EXISTS job_locks (
	name TEXT PRIMARY KEY,
	owner TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);`

// statusSeparator joins the assignment statuses of a machine; it is the
// ASCII unit separator
const statusSeparator = "\x1f"

// supervising is the SQL list of supervising assignment statuses
var supervising = "'" + strings.Join(model.SupervisingAssignmentStatuses, "','") + "'"

const candidateColumns = `
	d.id, d.device_id, d.status, d.rvm_machine_id, d.ip_address_local,
	d.tailscale_ip, d.created_at, d.updated_at,
	(SELECT group_concat(a.status, char(31)) FROM technician_assignments a
		WHERE a.rvm_machine_id = d.rvm_machine_id) AS assignments`

var (
	queryStaleSupervised = `SELECT ` + candidateColumns + `
FROM edge_devices d
WHERE d.status = '` + model.DeviceStatusOnline + `'
	AND d.deleted_at IS NULL
	AND d.updated_at < ?
	AND d.id > ?
	AND EXISTS (SELECT 1 FROM technician_assignments a
		WHERE a.rvm_machine_id = d.rvm_machine_id
		AND a.status IN (` + supervising + `))
ORDER BY d.id
LIMIT ?`

	queryLapsedSupervision = `SELECT ` + candidateColumns + `
FROM edge_devices d
WHERE d.status = '` + model.DeviceStatusOnline + `'
	AND d.deleted_at IS NULL
	AND d.id > ?
	AND EXISTS (SELECT 1 FROM technician_assignments a
		WHERE a.rvm_machine_id = d.rvm_machine_id)
	AND NOT EXISTS (SELECT 1 FROM technician_assignments a
		WHERE a.rvm_machine_id = d.rvm_machine_id
		AND a.status IN (` + supervising + `))
ORDER BY d.id
LIMIT ?`
)

// SetupDataStore opens the sqlite database configured in config.Config
func SetupDataStore() (*DataStoreSQLite, error) {
	return Open(config.Config.GetString(dconfig.SettingSQLitePath))
}

// DataStoreSQLite is the relational data storage service
type DataStoreSQLite struct {
	db *sql.DB
}

// Open opens (and creates if needed) the sqlite database at path
func Open(path string) (*DataStoreSQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create state directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open state db")
	}
	// a single connection serializes writers; concurrent transitions
	// queue on the pool instead of failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "apply %q", pragma)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "initialize schema")
	}
	return &DataStoreSQLite{db: db}, nil
}

// Ping verifies the connection to the database
func (s *DataStoreSQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *DataStoreSQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ProvisionMachine inserts a new machine
func (s *DataStoreSQLite) ProvisionMachine(ctx context.Context, machine *model.Machine) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO rvm_machines (id, serial_number, status, last_ping, created_at)
VALUES (?, ?, ?, ?, ?)`,
		machine.ID.String(),
		machine.SerialNumber,
		machine.Status,
		nullableTime(machine.LastPing),
		toNanos(machine.CreatedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "insert machine %s", machine.ID)
	}
	return nil
}

// GetMachine returns a machine, or nil if it does not exist
func (s *DataStoreSQLite) GetMachine(ctx context.Context, id uuid.UUID) (*model.Machine, error) {
	var (
		machine   = &model.Machine{ID: id}
		lastPing  sql.NullInt64
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT serial_number, status, last_ping, created_at
FROM rvm_machines WHERE id = ?`, id.String()).
		Scan(&machine.SerialNumber, &machine.Status, &lastPing, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "query machine %s", id)
	}
	machine.CreatedAt = fromNanos(createdAt)
	if lastPing.Valid {
		ts := fromNanos(lastPing.Int64)
		machine.LastPing = &ts
	}
	return machine, nil
}

// ProvisionDevice inserts a new device
func (s *DataStoreSQLite) ProvisionDevice(ctx context.Context, device *model.EdgeDevice) error {
	var machineID interface{}
	if device.RvmMachineID != nil {
		machineID = device.RvmMachineID.String()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO edge_devices (
	id, device_id, status, rvm_machine_id, ip_address_local, tailscale_ip,
	created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		device.ID.String(),
		device.DeviceID,
		device.Status,
		machineID,
		device.IPAddressLocal,
		device.TailscaleIP,
		toNanos(device.CreatedAt),
		toNanos(device.UpdatedAt),
	)
	if err != nil {
		switch msg := err.Error(); {
		case strings.Contains(msg, "UNIQUE constraint failed"):
			return store.ErrDeviceExists
		case strings.Contains(msg, "FOREIGN KEY constraint failed"):
			return store.ErrMachineNotFound
		}
		return errors.Wrapf(err, "insert device %s", device.DeviceID)
	}
	return nil
}

// GetDevice returns a device by its external identifier, or nil if it
// does not exist or was deleted
func (s *DataStoreSQLite) GetDevice(ctx context.Context, deviceID string) (*model.EdgeDevice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+candidateColumns+`
FROM edge_devices d
WHERE d.device_id = ? AND d.deleted_at IS NULL`, deviceID)
	device, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "query device %s", deviceID)
	}
	return device, nil
}

// DeleteDevice soft-deletes a device
func (s *DataStoreSQLite) DeleteDevice(ctx context.Context, deviceID string, deletedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE edge_devices SET deleted_at = ?
WHERE device_id = ? AND deleted_at IS NULL`,
		toNanos(deletedAt), deviceID)
	if err != nil {
		return errors.Wrapf(err, "delete device %s", deviceID)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return store.ErrDeviceNotFound
	}
	return nil
}

// UpsertAssignment inserts or updates a technician assignment
func (s *DataStoreSQLite) UpsertAssignment(ctx context.Context, assignment *model.TechnicianAssignment) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO technician_assignments (id, rvm_machine_id, technician_id, status, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	rvm_machine_id = excluded.rvm_machine_id,
	technician_id = excluded.technician_id,
	status = excluded.status`,
		assignment.ID.String(),
		assignment.RvmMachineID.String(),
		assignment.TechnicianID,
		assignment.Status,
		toNanos(assignment.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return store.ErrMachineNotFound
		}
		return errors.Wrapf(err, "upsert assignment %s", assignment.ID)
	}
	return nil
}

// RecordHeartbeat advances the liveness timestamp of a device and of its
// paired machine. An offline device is restored to online; any other
// status is left untouched.
func (s *DataStoreSQLite) RecordHeartbeat(ctx context.Context, hb *model.Heartbeat, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			id        string
			status    string
			machineID sql.NullString
		)
		err := tx.QueryRowContext(ctx, `
SELECT id, status, rvm_machine_id FROM edge_devices
WHERE device_id = ? AND deleted_at IS NULL`, hb.DeviceID).
			Scan(&id, &status, &machineID)
		if err == sql.ErrNoRows {
			return store.ErrDeviceNotFound
		} else if err != nil {
			return errors.Wrapf(err, "query device %s", hb.DeviceID)
		}
		if status == model.DeviceStatusOffline {
			status = model.DeviceStatusOnline
		}

		_, err = tx.ExecContext(ctx, `
UPDATE edge_devices SET
	status = ?,
	updated_at = ?,
	ip_address_local = CASE WHEN ? != '' THEN ? ELSE ip_address_local END,
	tailscale_ip = CASE WHEN ? != '' THEN ? ELSE tailscale_ip END
WHERE id = ?`,
			status, toNanos(at),
			hb.IPLocal, hb.IPLocal,
			hb.TailscaleIP, hb.TailscaleIP,
			id,
		)
		if err != nil {
			return errors.Wrapf(err, "update device %s", hb.DeviceID)
		}
		if !machineID.Valid {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
UPDATE rvm_machines SET last_ping = ?,
	status = CASE WHEN status = ? THEN ? ELSE status END
WHERE id = ?`,
			toNanos(at),
			model.DeviceStatusOffline, model.DeviceStatusOnline,
			machineID.String,
		)
		return errors.Wrapf(err, "update machine %s", machineID.String)
	})
}

// FindStaleSupervisedDevices returns online devices whose machine has a
// supervising assignment and whose last heartbeat is older than cutoff
func (s *DataStoreSQLite) FindStaleSupervisedDevices(
	ctx context.Context,
	cutoff time.Time,
	opts store.ListOptions,
) ([]model.EdgeDevice, error) {
	return s.queryCandidates(ctx, queryStaleSupervised,
		toNanos(cutoff), opts.After.String(), opts.Limit)
}

// FindLapsedSupervisionDevices returns online devices whose machine has
// assignments, none of which is supervising
func (s *DataStoreSQLite) FindLapsedSupervisionDevices(
	ctx context.Context,
	opts store.ListOptions,
) ([]model.EdgeDevice, error) {
	return s.queryCandidates(ctx, queryLapsedSupervision,
		opts.After.String(), opts.Limit)
}

func (s *DataStoreSQLite) queryCandidates(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]model.EdgeDevice, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query candidate devices")
	}
	defer rows.Close()

	devices := []model.EdgeDevice{}
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan candidate device")
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate candidate devices")
	}
	return devices, nil
}

// ApplyTransition sets the device status, only if the device still has
// the expected previous status, and mirrors it on the paired machine.
// Both writes are committed together.
func (s *DataStoreSQLite) ApplyTransition(ctx context.Context, t model.Transition) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE edge_devices SET status = ?
WHERE id = ? AND status = ? AND deleted_at IS NULL`,
			t.To, t.ID.String(), t.From)
		if err != nil {
			return errors.Wrapf(err, "update device %s", t.DeviceID)
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return store.ErrDeviceStatusChanged
		}
		if t.RvmMachineID == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE rvm_machines SET status = ? WHERE id = ?`,
			t.To, t.RvmMachineID.String())
		return errors.Wrapf(err, "update machine %s", t.RvmMachineID)
	})
}

// AcquireJobLock takes the named lock for owner unless another owner holds
// an unexpired lease on it
func (s *DataStoreSQLite) AcquireJobLock(
	ctx context.Context,
	name, owner string,
	now time.Time,
	ttl time.Duration,
) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO job_locks (name, owner, expires_at) VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET
	owner = excluded.owner,
	expires_at = excluded.expires_at
WHERE job_locks.expires_at <= ? OR job_locks.owner = excluded.owner`,
		name, owner, toNanos(now.Add(ttl)), toNanos(now))
	if err != nil {
		return false, errors.Wrapf(err, "acquire lock %s", name)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseJobLock drops the named lock if owner holds it
func (s *DataStoreSQLite) ReleaseJobLock(ctx context.Context, name, owner string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM job_locks WHERE name = ? AND owner = ?`, name, owner)
	return errors.Wrapf(err, "release lock %s", name)
}

func (s *DataStoreSQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDevice(row scanner) (*model.EdgeDevice, error) {
	var (
		device      = &model.EdgeDevice{}
		id          string
		machineID   sql.NullString
		assignments sql.NullString
		createdAt   int64
		updatedAt   int64
	)
	err := row.Scan(
		&id,
		&device.DeviceID,
		&device.Status,
		&machineID,
		&device.IPAddressLocal,
		&device.TailscaleIP,
		&createdAt,
		&updatedAt,
		&assignments,
	)
	if err != nil {
		return nil, err
	}
	if device.ID, err = uuid.Parse(id); err != nil {
		return nil, errors.Wrapf(err, "device %s: malformed id", device.DeviceID)
	}
	if machineID.Valid {
		mid, err := uuid.Parse(machineID.String)
		if err != nil {
			return nil, errors.Wrapf(err,
				"device %s: malformed machine id", device.DeviceID)
		}
		device.RvmMachineID = &mid
	}
	if assignments.Valid && assignments.String != "" {
		device.Assignments = strings.Split(assignments.String, statusSeparator)
	}
	device.CreatedAt = fromNanos(createdAt)
	device.UpdatedAt = fromNanos(updatedAt)
	return device, nil
}

func toNanos(ts time.Time) int64 {
	return ts.UnixNano()
}

func fromNanos(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}

func nullableTime(ts *time.Time) interface{} {
	if ts == nil {
		return nil
	}
	return toNanos(*ts)
}
