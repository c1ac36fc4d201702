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

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/rvmfleet/edgeconnect/app"
	"github.com/rvmfleet/edgeconnect/model"
)

// HeartbeatResponse is returned to devices on a recorded heartbeat
type HeartbeatResponse struct {
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	ServerTime time.Time `json:"server_time"`
}

// DeviceController container for end-points
type DeviceController struct {
	app app.App
}

// NewDeviceController returns a new DeviceController
func NewDeviceController(app app.App) *DeviceController {
	return &DeviceController{app: app}
}

// Heartbeat responds to POST /devices/:deviceId/heartbeat. The body is
// optional and only carries the network addresses of the device.
func (h DeviceController) Heartbeat(c *gin.Context) {
	rawData, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "bad request",
		})
		return
	}

	hb := &model.Heartbeat{}
	if len(rawData) > 0 {
		if err = json.Unmarshal(rawData, hb); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": errors.Wrap(err, "invalid payload").Error(),
			})
			return
		}
	}
	hb.DeviceID = c.Param("deviceId")
	if err = hb.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	ts, err := h.app.RecordHeartbeat(ctx, hb)
	if err == app.ErrDeviceNotFound {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": errors.Wrap(err, "error recording the heartbeat").Error(),
		})
		return
	}

	c.JSON(http.StatusOK, HeartbeatResponse{
		Status:     "success",
		Message:    "Heartbeat received",
		ServerTime: ts,
	})
}
