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
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mendersoftware/go-lib-micro/accesslog"
	"github.com/mendersoftware/go-lib-micro/requestid"

	"github.com/rvmfleet/edgeconnect/app"
	"github.com/rvmfleet/edgeconnect/model"
)

// API URL used by the HTTP router
const (
	APIURLDevices    = "/api/devices/v1/edgeconnect"
	APIURLInternal   = "/api/internal/v1/edgeconnect"
	APIURLManagement = "/api/management/v1/edgeconnect"

	APIURLDevicesHeartbeat = APIURLDevices + "/devices/:deviceId/heartbeat"

	APIURLInternalAlive         = APIURLInternal + "/alive"
	APIURLInternalHealth        = APIURLInternal + "/health"
	APIURLInternalMachines      = APIURLInternal + "/machines"
	APIURLInternalDevices       = APIURLInternal + "/devices"
	APIURLInternalDevicesID     = APIURLInternal + "/devices/:deviceId"
	APIURLInternalAssignmentsID = APIURLInternal + "/assignments/:id"
	APIURLInternalCheckOffline  = APIURLInternal + "/check-offline"

	APIURLManagementDevice = APIURLManagement + "/devices/:deviceId"
)

// CheckOfflineFunc runs a check-offline pass and reports whether it ran;
// a pass is skipped when another one is in progress
type CheckOfflineFunc func(
	ctx context.Context,
	threshold time.Duration,
) (*model.CheckOfflineReport, bool, error)

// RouterConfig holds the tunables of the HTTP handlers
type RouterConfig struct {
	// CheckOfflineThreshold is used by the check-offline trigger when the
	// request does not provide one
	CheckOfflineThreshold time.Duration
	// CheckOffline runs the passes triggered over HTTP; it defaults to
	// calling the app directly, without a job lock
	CheckOffline CheckOfflineFunc
}

// NewRouter returns the gin router
func NewRouter(
	app app.App,
	config ...RouterConfig,
) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	gin.DisableConsoleColor()

	conf := RouterConfig{CheckOfflineThreshold: defaultCheckOfflineThreshold}
	for _, cfgIn := range config {
		if cfgIn.CheckOfflineThreshold > 0 {
			conf.CheckOfflineThreshold = cfgIn.CheckOfflineThreshold
		}
		if cfgIn.CheckOffline != nil {
			conf.CheckOffline = cfgIn.CheckOffline
		}
	}
	if conf.CheckOffline == nil {
		conf.CheckOffline = func(
			ctx context.Context,
			threshold time.Duration,
		) (*model.CheckOfflineReport, bool, error) {
			report, err := app.CheckOffline(ctx, threshold)
			return report, true, err
		}
	}

	router := gin.New()
	router.Use(accesslog.Middleware())
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())

	status := NewStatusController(app)
	router.GET(APIURLInternalAlive, status.Alive)
	router.GET(APIURLInternalHealth, status.Health)

	internal := NewInternalController(app, conf)
	router.POST(APIURLInternalMachines, internal.ProvisionMachine)
	router.POST(APIURLInternalDevices, internal.ProvisionDevice)
	router.DELETE(APIURLInternalDevicesID, internal.DeleteDevice)
	router.PUT(APIURLInternalAssignmentsID, internal.UpsertAssignment)
	router.POST(APIURLInternalCheckOffline, internal.CheckOffline)

	device := NewDeviceController(app)
	router.POST(APIURLDevicesHeartbeat, device.Heartbeat)

	management := NewManagementController(app)
	router.GET(APIURLManagementDevice, management.GetDevice)

	return router, nil
}
