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
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rvmfleet/edgeconnect/app"
	app_mocks "github.com/rvmfleet/edgeconnect/app/mocks"
	"github.com/rvmfleet/edgeconnect/model"
)

func TestManagementGetDevice(t *testing.T) {
	testCases := []struct {
		Name     string
		DeviceID string

		GetDevice      *model.EdgeDevice
		GetDeviceError error

		HTTPStatus int
	}{
		{
			Name:     "ok",
			DeviceID: "RVM-EDGE-001",

			GetDevice: &model.EdgeDevice{
				DeviceID:    "RVM-EDGE-001",
				Status:      model.DeviceStatusOnline,
				Assignments: []string{model.AssignmentStatusActive},
			},

			HTTPStatus: http.StatusOK,
		},
		{
			Name:     "ko, not found",
			DeviceID: "RVM-EDGE-001",

			GetDeviceError: app.ErrDeviceNotFound,

			HTTPStatus: http.StatusNotFound,
		},
		{
			Name:     "ko, other error",
			DeviceID: "RVM-EDGE-001",

			GetDeviceError: errors.New("error"),

			HTTPStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			edgeConnectApp := app_mocks.NewApp(t)
			edgeConnectApp.On("GetDevice", contextMatcher, tc.DeviceID).
				Return(tc.GetDevice, tc.GetDeviceError)

			router, _ := NewRouter(edgeConnectApp)
			url := strings.Replace(APIURLManagementDevice, ":deviceId", tc.DeviceID, 1)
			req, _ := http.NewRequest(http.MethodGet, url, nil)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.HTTPStatus, w.Code)

			if tc.HTTPStatus == http.StatusOK {
				var res map[string]interface{}
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
				assert.Equal(t, tc.DeviceID, res["device_id"])
				assert.Equal(t, model.DeviceStatusOnline, res["status"])
				assert.NotContains(t, res, "assignments")
			}
		})
	}
}
