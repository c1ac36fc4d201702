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

package server

import (
	"context"
	"testing"
	"time"

	"github.com/mendersoftware/go-lib-micro/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rvmfleet/edgeconnect/app"
	app_mocks "github.com/rvmfleet/edgeconnect/app/mocks"
	dconfig "github.com/rvmfleet/edgeconnect/config"
	"github.com/rvmfleet/edgeconnect/model"
	store_mocks "github.com/rvmfleet/edgeconnect/store/mocks"
)

var testSettings = CheckOfflineSettings{
	Threshold: 120 * time.Second,
	Interval:  60 * time.Second,
	LockTTL:   600 * time.Second,
}

func TestCheckOfflineSettingsFromConfig(t *testing.T) {
	for _, d := range dconfig.Defaults {
		config.Config.SetDefault(d.Key, d.Value)
	}

	testCases := map[string]struct {
		key   string
		value interface{}

		settings CheckOfflineSettings
		err      string
	}{
		"ok, defaults": {
			settings: testSettings,
		},
		"ok, custom threshold": {
			key:   dconfig.SettingCheckOfflineThreshold,
			value: "300",
			settings: CheckOfflineSettings{
				Threshold: 300 * time.Second,
				Interval:  testSettings.Interval,
				LockTTL:   testSettings.LockTTL,
			},
		},
		"error, threshold zero": {
			key:   dconfig.SettingCheckOfflineThreshold,
			value: 0,
			err:   "invalid check_offline_threshold: " + app.ErrInvalidThreshold.Error(),
		},
		"error, threshold negative": {
			key:   dconfig.SettingCheckOfflineThreshold,
			value: -120,
			err:   "invalid check_offline_threshold: " + app.ErrInvalidThreshold.Error(),
		},
		"error, threshold overflows": {
			key:   dconfig.SettingCheckOfflineThreshold,
			value: "18446744074",
			err:   "invalid check_offline_threshold: " + app.ErrInvalidThreshold.Error(),
		},
		"error, interval overflows": {
			key:   dconfig.SettingCheckOfflineInterval,
			value: "18446744074",
			err:   "invalid check_offline_interval: 18446744074 is out of range",
		},
		"error, lock ttl negative": {
			key:   dconfig.SettingCheckOfflineLockTTL,
			value: -1,
			err:   "invalid check_offline_lock_ttl: -1 is out of range",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if tc.key != "" {
				config.Config.Set(tc.key, tc.value)
				defer config.Config.Set(tc.key, nil)
			}

			settings, err := CheckOfflineSettingsFromConfig(config.Config)
			if tc.err != "" {
				assert.EqualError(t, err, tc.err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.settings, settings)
			}
		})
	}
}

func TestNewCheckOfflineJob(t *testing.T) {
	edgeConnectApp := app_mocks.NewApp(t)
	edgeConnectApp.On("CheckOffline", mock.Anything, testSettings.Threshold).
		Return(&model.CheckOfflineReport{}, app.ErrTransitionsFailed)

	job := NewCheckOfflineJob(edgeConnectApp, testSettings)
	require.NoError(t, job.Validate())
	assert.Equal(t, app.CheckOfflineJobName, job.Name)
	assert.Equal(t, testSettings.Interval, job.Interval)
	assert.Equal(t, testSettings.LockTTL, job.LockTTL)
	assert.Equal(t, app.ErrTransitionsFailed, job.Run(context.Background()))
}

func TestRunCheckOffline(t *testing.T) {
	report := &model.CheckOfflineReport{Threshold: testSettings.Threshold}

	t.Run("without overlapping, lock acquired", func(t *testing.T) {
		edgeConnectApp := app_mocks.NewApp(t)
		edgeConnectApp.On("CheckOffline", mock.Anything, testSettings.Threshold).
			Return(report, nil)
		ds := store_mocks.NewDataStore(t)
		ds.On("AcquireJobLock", mock.Anything, app.CheckOfflineJobName,
			mock.AnythingOfType("string"), mock.AnythingOfType("time.Time"),
			testSettings.LockTTL,
		).Return(true, nil)
		ds.On("ReleaseJobLock", mock.Anything, app.CheckOfflineJobName,
			mock.AnythingOfType("string"),
		).Return(nil)

		res, ran, err := RunCheckOffline(context.Background(),
			edgeConnectApp, ds, testSettings, true)
		assert.NoError(t, err)
		assert.True(t, ran)
		assert.Equal(t, report, res)
	})

	t.Run("without overlapping, lock held", func(t *testing.T) {
		ds := store_mocks.NewDataStore(t)
		ds.On("AcquireJobLock", mock.Anything, app.CheckOfflineJobName,
			mock.AnythingOfType("string"), mock.AnythingOfType("time.Time"),
			testSettings.LockTTL,
		).Return(false, nil)

		res, ran, err := RunCheckOffline(context.Background(),
			app_mocks.NewApp(t), ds, testSettings, true)
		assert.NoError(t, err)
		assert.False(t, ran)
		assert.Nil(t, res)
	})

	t.Run("overlapping allowed, no lock", func(t *testing.T) {
		edgeConnectApp := app_mocks.NewApp(t)
		edgeConnectApp.On("CheckOffline", mock.Anything, testSettings.Threshold).
			Return(report, app.ErrTransitionsFailed)

		res, ran, err := RunCheckOffline(context.Background(),
			edgeConnectApp, store_mocks.NewDataStore(t), testSettings, false)
		assert.Equal(t, app.ErrTransitionsFailed, err)
		assert.True(t, ran)
		assert.Equal(t, report, res)
	})
}

func TestCheckOfflineRunner(t *testing.T) {
	const threshold = 30 * time.Second
	report := &model.CheckOfflineReport{Threshold: threshold}

	edgeConnectApp := app_mocks.NewApp(t)
	edgeConnectApp.On("CheckOffline", mock.Anything, threshold).
		Return(report, nil).
		Once()
	ds := store_mocks.NewDataStore(t)
	ds.On("AcquireJobLock", mock.Anything, app.CheckOfflineJobName,
		mock.AnythingOfType("string"), mock.AnythingOfType("time.Time"),
		testSettings.LockTTL,
	).Return(true, nil).Once()
	ds.On("ReleaseJobLock", mock.Anything, app.CheckOfflineJobName,
		mock.AnythingOfType("string"),
	).Return(nil).Once()
	ds.On("AcquireJobLock", mock.Anything, app.CheckOfflineJobName,
		mock.AnythingOfType("string"), mock.AnythingOfType("time.Time"),
		testSettings.LockTTL,
	).Return(false, nil).Once()

	run := CheckOfflineRunner(edgeConnectApp, ds, testSettings)

	res, ran, err := run(context.Background(), threshold)
	assert.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, report, res)

	// the scheduled pass holds the lease
	res, ran, err = run(context.Background(), threshold)
	assert.NoError(t, err)
	assert.False(t, ran)
	assert.Nil(t, res)
}
