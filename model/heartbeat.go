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
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// HeartbeatsSubject is the subject devices publish heartbeats on
const HeartbeatsSubject = "edgeconnect.heartbeats"

// Heartbeat is the liveness report sent by an edge device
type Heartbeat struct {
	DeviceID    string `json:"device_id" msgpack:"device_id"`
	IPLocal     string `json:"ip_local,omitempty" msgpack:"ip_local,omitempty"`
	TailscaleIP string `json:"tailscale_ip,omitempty" msgpack:"tailscale_ip,omitempty"`
}

func (hb Heartbeat) Validate() error {
	return validation.ValidateStruct(&hb,
		validation.Field(&hb.DeviceID, validation.Required),
		validation.Field(&hb.IPLocal, is.IP),
		validation.Field(&hb.TailscaleIP, is.IP),
	)
}
