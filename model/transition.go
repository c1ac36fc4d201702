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

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reasons recorded for reconciler transitions
const (
	ReasonInactiveHeartbeat   = "Inactive heartbeat"
	ReasonAssignmentSuspended = "Assignment suspended or revoked"
)

// Transition is a single status change of a device and its paired machine
type Transition struct {
	ID           uuid.UUID  `json:"id"`
	DeviceID     string     `json:"device_id"`
	RvmMachineID *uuid.UUID `json:"rvm_machine_id,omitempty"`
	From         string     `json:"previous_status"`
	To           string     `json:"status"`
	Reason       string     `json:"reason"`
}

// Classify decides whether an online device must leave the online state.
// A device is stale when its last heartbeat is strictly older than cutoff.
// Devices without any assignment history are never transitioned.
func Classify(dev *EdgeDevice, cutoff time.Time) (Transition, bool) {
	if dev == nil || !dev.IsOnline() {
		return Transition{}, false
	}
	t := Transition{
		ID:           dev.ID,
		DeviceID:     dev.DeviceID,
		RvmMachineID: dev.RvmMachineID,
		From:         dev.Status,
	}
	switch {
	case HasSupervisingAssignment(dev.Assignments):
		if !dev.UpdatedAt.Before(cutoff) {
			return Transition{}, false
		}
		t.To = DeviceStatusOffline
		t.Reason = ReasonInactiveHeartbeat

	case IsSupervisionLapsed(dev.Assignments):
		t.To = DeviceStatusMaintenance
		t.Reason = ReasonAssignmentSuspended

	default:
		return Transition{}, false
	}
	return t, true
}

// GetDeviceStatusSubject returns the subject status events of a device are
// published on.
func GetDeviceStatusSubject(deviceID string) string {
	return strings.Join([]string{
		"edgeconnect", "devices", deviceID, "status",
	}, ".")
}

// StatusEvent is published whenever the reconciler changes a device status
type StatusEvent struct {
	DeviceID     string    `json:"device_id" msgpack:"device_id"`
	RvmMachineID string    `json:"rvm_machine_id,omitempty" msgpack:"rvm_machine_id,omitempty"`
	From         string    `json:"previous_status" msgpack:"previous_status"`
	To           string    `json:"status" msgpack:"status"`
	Reason       string    `json:"reason" msgpack:"reason"`
	Timestamp    time.Time `json:"timestamp" msgpack:"timestamp"`
}

// NewStatusEvent builds the event for a transition applied at ts
func NewStatusEvent(t Transition, ts time.Time) StatusEvent {
	evt := StatusEvent{
		DeviceID:  t.DeviceID,
		From:      t.From,
		To:        t.To,
		Reason:    t.Reason,
		Timestamp: ts,
	}
	if t.RvmMachineID != nil {
		evt.RvmMachineID = t.RvmMachineID.String()
	}
	return evt
}

// TransitionFailure is a transition that could not be applied
type TransitionFailure struct {
	Transition
	Error string `json:"error"`
}

// CheckOfflineReport summarizes one reconciliation pass
type CheckOfflineReport struct {
	Threshold   time.Duration       `json:"-"`
	Cutoff      time.Time           `json:"cutoff"`
	Offline     []Transition        `json:"offline"`
	Maintenance []Transition        `json:"maintenance"`
	Skipped     int                 `json:"skipped"`
	Failed      []TransitionFailure `json:"failed,omitempty"`
}

// Applied returns the number of transitions written to the store
func (r *CheckOfflineReport) Applied() int {
	return len(r.Offline) + len(r.Maintenance)
}
