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
	"time"

	"github.com/mendersoftware/go-lib-micro/config"
	"github.com/mendersoftware/go-lib-micro/log"
	"github.com/pkg/errors"

	api "github.com/rvmfleet/edgeconnect/api/http"
	"github.com/rvmfleet/edgeconnect/app"
	dconfig "github.com/rvmfleet/edgeconnect/config"
	"github.com/rvmfleet/edgeconnect/model"
	"github.com/rvmfleet/edgeconnect/scheduler"
)

// CheckOfflineSettings are the check-offline job settings read from the
// configuration
type CheckOfflineSettings struct {
	Threshold time.Duration
	Interval  time.Duration
	LockTTL   time.Duration
}

// CheckOfflineSettingsFromConfig reads the check-offline settings; all the
// values are expressed in seconds in the configuration
func CheckOfflineSettingsFromConfig(conf config.Reader) (CheckOfflineSettings, error) {
	var (
		settings CheckOfflineSettings
		err      error
	)
	settings.Threshold, err = app.ThresholdFromSeconds(
		int64(conf.GetInt(dconfig.SettingCheckOfflineThreshold)))
	if err != nil {
		return settings, errors.Wrapf(err, "invalid %s",
			dconfig.SettingCheckOfflineThreshold)
	}
	settings.Interval, err = seconds(conf, dconfig.SettingCheckOfflineInterval)
	if err != nil {
		return settings, err
	}
	settings.LockTTL, err = seconds(conf, dconfig.SettingCheckOfflineLockTTL)
	return settings, err
}

// SetThresholdSeconds overrides the threshold with a value in seconds
func (s *CheckOfflineSettings) SetThresholdSeconds(seconds int64) error {
	threshold, err := app.ThresholdFromSeconds(seconds)
	if err != nil {
		return err
	}
	s.Threshold = threshold
	return nil
}

func seconds(conf config.Reader, key string) (time.Duration, error) {
	n := int64(conf.GetInt(key))
	if n < 0 || n > app.MaxThresholdSeconds {
		return 0, errors.Errorf("invalid %s: %d is out of range", key, n)
	}
	return time.Duration(n) * time.Second, nil
}

// NewCheckOfflineJob returns the scheduler job running one check-offline
// pass per tick
func NewCheckOfflineJob(edgeConnectApp app.App, settings CheckOfflineSettings) scheduler.Job {
	return scheduler.Job{
		Name:     app.CheckOfflineJobName,
		Interval: settings.Interval,
		LockTTL:  settings.LockTTL,
		Run: func(ctx context.Context) error {
			_, err := checkOffline(ctx, edgeConnectApp, settings.Threshold)
			return err
		},
	}
}

func checkOffline(
	ctx context.Context,
	edgeConnectApp app.App,
	threshold time.Duration,
) (*model.CheckOfflineReport, error) {
	l := log.FromContext(ctx).F(log.Ctx{"job": app.CheckOfflineJobName})
	return edgeConnectApp.CheckOffline(log.WithContext(ctx, l), threshold)
}

// RunCheckOffline runs a single check-offline pass in the foreground. With
// withoutOverlapping the pass takes the same lease as the scheduled job and
// is skipped if another process holds it; the report is nil when the pass
// did not run.
func RunCheckOffline(
	ctx context.Context,
	edgeConnectApp app.App,
	locker scheduler.Locker,
	settings CheckOfflineSettings,
	withoutOverlapping bool,
) (*model.CheckOfflineReport, bool, error) {
	var report *model.CheckOfflineReport
	job := NewCheckOfflineJob(edgeConnectApp, settings)
	job.Run = func(ctx context.Context) (err error) {
		report, err = checkOffline(ctx, edgeConnectApp, settings.Threshold)
		return err
	}
	if !withoutOverlapping {
		job.LockTTL = 0
		locker = nil
	}
	sched := scheduler.New(locker, nil)
	if err := sched.Add(job); err != nil {
		return nil, false, err
	}
	ran, err := sched.RunOnce(ctx, job.Name)
	return report, ran, err
}

// CheckOfflineRunner returns the runner of the check-offline passes
// triggered over HTTP; they take the lease of the scheduled job
func CheckOfflineRunner(
	edgeConnectApp app.App,
	locker scheduler.Locker,
	settings CheckOfflineSettings,
) api.CheckOfflineFunc {
	return func(
		ctx context.Context,
		threshold time.Duration,
	) (*model.CheckOfflineReport, bool, error) {
		s := settings
		s.Threshold = threshold
		return RunCheckOffline(ctx, edgeConnectApp, locker, s, true)
	}
}
