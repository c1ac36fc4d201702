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

// Machine is the RVM hardware unit; its status mirrors the paired device.
type Machine struct {
	ID           uuid.UUID  `json:"id" bson:"_id"`
	SerialNumber string     `json:"serial_number" bson:"serial_number"`
	Status       string     `json:"status" bson:"status"`
	LastPing     *time.Time `json:"last_ping,omitempty" bson:"last_ping,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
}

func (m Machine) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.SerialNumber, validation.Required),
		validation.Field(&m.Status, validation.Required,
			validation.In(deviceStatuses...)),
	)
}
