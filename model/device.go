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
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Values for the device status attribute
const (
	DeviceStatusOnline      = "online"
	DeviceStatusOffline     = "offline"
	DeviceStatusMaintenance = "maintenance"
	DeviceStatusInactive    = "inactive"
)

var deviceStatuses = []interface{}{
	DeviceStatusOnline,
	DeviceStatusOffline,
	DeviceStatusMaintenance,
	DeviceStatusInactive,
}

// EdgeDevice represents the control unit attached to an RVM
type EdgeDevice struct {
	ID             uuid.UUID  `json:"id" bson:"_id"`
	DeviceID       string     `json:"device_id" bson:"device_id"`
	Status         string     `json:"status" bson:"status"`
	RvmMachineID   *uuid.UUID `json:"rvm_machine_id,omitempty" bson:"rvm_machine_id,omitempty"`
	IPAddressLocal string     `json:"ip_address_local,omitempty" bson:"ip_address_local,omitempty"`
	TailscaleIP    string     `json:"tailscale_ip,omitempty" bson:"tailscale_ip,omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`

	// Assignments holds the statuses of the paired machine's technician
	// assignments. Only populated on reconciliation candidates.
	Assignments []string `json:"-" bson:"assignments,omitempty"`
}

// Validate checks the device before it is provisioned
func (d EdgeDevice) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.DeviceID, validation.Required),
		validation.Field(&d.Status, validation.Required,
			validation.In(deviceStatuses...)),
	)
}

// IsOnline returns true if the device is recorded as online
func (d EdgeDevice) IsOnline() bool {
	return d.Status == DeviceStatusOnline
}
