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
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mendersoftware/go-lib-micro/log"
	"github.com/pkg/errors"

	"github.com/rvmfleet/edgeconnect/app"
	"github.com/rvmfleet/edgeconnect/model"
)

const (
	defaultCheckOfflineThreshold = 120 * time.Second

	paramThreshold = "threshold"
)

// HTTP errors
var (
	ErrInvalidThreshold = errors.New("threshold must be a positive number of seconds")
	ErrInvalidID        = errors.New("id must be a valid UUID")
	ErrCheckOfflineBusy = errors.New("check-offline is already running")
)

// InternalController contains the end-points used by other services and
// by operators
type InternalController struct {
	app          app.App
	threshold    time.Duration
	checkOffline CheckOfflineFunc
}

// NewInternalController returns a new InternalController
func NewInternalController(app app.App, config RouterConfig) *InternalController {
	return &InternalController{
		app:          app,
		threshold:    config.CheckOfflineThreshold,
		checkOffline: config.CheckOffline,
	}
}

// ProvisionMachine responds to POST /machines
func (h InternalController) ProvisionMachine(c *gin.Context) {
	machine := &model.Machine{}
	if err := c.ShouldBindJSON(machine); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": errors.Wrap(err, "invalid payload").Error(),
		})
		return
	} else if err = machine.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	if err := h.app.ProvisionMachine(ctx, machine); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": errors.Wrap(err, "error provisioning the machine").Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, machine)
}

// ProvisionDevice responds to POST /devices
func (h InternalController) ProvisionDevice(c *gin.Context) {
	device := &model.EdgeDevice{}
	if err := c.ShouldBindJSON(device); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": errors.Wrap(err, "invalid payload").Error(),
		})
		return
	} else if err = device.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	err := h.app.ProvisionDevice(ctx, device)
	switch err {
	case nil:
		c.JSON(http.StatusCreated, device)
	case app.ErrDeviceExists:
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
	case app.ErrMachineNotFound:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": errors.Wrap(err, "error provisioning the device").Error(),
		})
	}
}

// DeleteDevice responds to DELETE /devices/:deviceId
func (h InternalController) DeleteDevice(c *gin.Context) {
	deviceID := c.Param("deviceId")

	ctx := c.Request.Context()
	err := h.app.DeleteDevice(ctx, deviceID)
	if err == app.ErrDeviceNotFound {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": errors.Wrap(err, "error deleting the device").Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// UpsertAssignment responds to PUT /assignments/:id
func (h InternalController) UpsertAssignment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": ErrInvalidID.Error(),
		})
		return
	}
	assignment := &model.TechnicianAssignment{}
	if err = c.ShouldBindJSON(assignment); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": errors.Wrap(err, "invalid payload").Error(),
		})
		return
	}
	assignment.ID = id
	if err = assignment.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	err = h.app.UpsertAssignment(ctx, assignment)
	if err == app.ErrMachineNotFound {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": errors.Wrap(err, "error saving the assignment").Error(),
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// CheckOffline responds to POST /check-offline and runs a reconciliation
// pass synchronously. The optional threshold query parameter is expressed
// in seconds.
func (h InternalController) CheckOffline(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.FromContext(ctx)

	threshold := h.threshold
	if raw, ok := c.GetQuery(paramThreshold); ok {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			threshold, err = app.ThresholdFromSeconds(seconds)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": ErrInvalidThreshold.Error(),
			})
			return
		}
	}

	report, ran, err := h.checkOffline(ctx, threshold)
	switch {
	case err == app.ErrInvalidThreshold:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": ErrInvalidThreshold.Error(),
		})
	case err != nil:
		l.Error(errors.Wrap(err, "check-offline failed"))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"report": report,
		})
	case !ran:
		c.JSON(http.StatusConflict, gin.H{
			"error": ErrCheckOfflineBusy.Error(),
		})
	default:
		c.JSON(http.StatusOK, report)
	}
}
