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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		Name  string
		Value interface{ Validate() error }
		Error bool
	}{{
		Name: "device ok",
		Value: EdgeDevice{
			DeviceID: "RVM-EDGE-001",
			Status:   DeviceStatusOnline,
		},
	}, {
		Name:  "device without identifier",
		Value: EdgeDevice{Status: DeviceStatusOffline},
		Error: true,
	}, {
		Name: "device with unknown status",
		Value: EdgeDevice{
			DeviceID: "RVM-EDGE-001",
			Status:   "rebooting",
		},
		Error: true,
	}, {
		Name: "machine ok",
		Value: Machine{
			SerialNumber: "SN-0001",
			Status:       DeviceStatusMaintenance,
		},
	}, {
		Name:  "machine without serial number",
		Value: Machine{Status: DeviceStatusOffline},
		Error: true,
	}, {
		Name: "assignment ok",
		Value: TechnicianAssignment{
			RvmMachineID: uuid.New(),
			TechnicianID: "tech-1",
			Status:       AssignmentStatusAssigned,
		},
	}, {
		Name: "assignment without machine",
		Value: TechnicianAssignment{
			TechnicianID: "tech-1",
			Status:       AssignmentStatusAssigned,
		},
		Error: true,
	}, {
		Name: "assignment with custom status",
		Value: TechnicianAssignment{
			RvmMachineID: uuid.New(),
			TechnicianID: "tech-1",
			Status:       "on_hold",
		},
	}, {
		Name: "assignment with separator in status",
		Value: TechnicianAssignment{
			RvmMachineID: uuid.New(),
			TechnicianID: "tech-1",
			Status:       "revoked,active",
		},
		Error: true,
	}, {
		Name: "assignment with upper-case status",
		Value: TechnicianAssignment{
			RvmMachineID: uuid.New(),
			TechnicianID: "tech-1",
			Status:       "Active",
		},
		Error: true,
	}, {
		Name:  "heartbeat ok",
		Value: Heartbeat{DeviceID: "RVM-EDGE-001", IPLocal: "192.168.1.10"},
	}, {
		Name:  "heartbeat with bad address",
		Value: Heartbeat{DeviceID: "RVM-EDGE-001", TailscaleIP: "100.64.0"},
		Error: true,
	}, {
		Name:  "heartbeat without device",
		Value: Heartbeat{},
		Error: true,
	}}
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			err := tc.Value.Validate()
			if tc.Error {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
