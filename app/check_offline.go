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

package app

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mendersoftware/go-lib-micro/log"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/semaphore"

	"github.com/rvmfleet/edgeconnect/client/workflows"
	"github.com/rvmfleet/edgeconnect/model"
	"github.com/rvmfleet/edgeconnect/store"
)

// CheckOfflineJobName identifies the reconciliation job in logs, audit
// entries and job locks
const CheckOfflineJobName = "check-offline"

// MaxThresholdSeconds is the largest threshold, in seconds, representable
// as a time.Duration
const MaxThresholdSeconds = math.MaxInt64 / int64(time.Second)

// ThresholdFromSeconds converts a threshold expressed in seconds, rejecting
// values that are not positive or would overflow a time.Duration
func ThresholdFromSeconds(seconds int64) (time.Duration, error) {
	if seconds <= 0 || seconds > MaxThresholdSeconds {
		return 0, ErrInvalidThreshold
	}
	return time.Duration(seconds) * time.Second, nil
}

type outcome int

const (
	outcomeApplied outcome = iota
	outcomeSkipped
	outcomeFailed
)

type result struct {
	transition model.Transition
	outcome    outcome
	err        error
}

type phase struct {
	name   string
	target string
	find   func(ctx context.Context, opts store.ListOptions) ([]model.EdgeDevice, error)
}

// CheckOffline runs one reconciliation pass. Online devices supervised by
// a technician that stopped sending heartbeats before now-threshold are
// marked offline; online devices whose machine has only lapsed
// assignments are put in maintenance. The paired machine mirrors the new
// device status.
//
// A failing query aborts the pass. A failing device does not: the
// remaining devices are processed and ErrTransitionsFailed is returned
// along with the report.
func (a *app) CheckOffline(
	ctx context.Context,
	threshold time.Duration,
) (*model.CheckOfflineReport, error) {
	if threshold <= 0 {
		return nil, ErrInvalidThreshold
	}
	l := log.FromContext(ctx)

	cutoff := a.Clock.Now().Add(-threshold)
	report := &model.CheckOfflineReport{
		Threshold:   threshold,
		Cutoff:      cutoff,
		Offline:     []model.Transition{},
		Maintenance: []model.Transition{},
	}

	phases := []phase{{
		name:   "stale supervised devices",
		target: model.DeviceStatusOffline,
		find: func(ctx context.Context, opts store.ListOptions) ([]model.EdgeDevice, error) {
			return a.store.FindStaleSupervisedDevices(ctx, cutoff, opts)
		},
	}, {
		name:   "lapsed supervision devices",
		target: model.DeviceStatusMaintenance,
		find:   a.store.FindLapsedSupervisionDevices,
	}}

	for _, p := range phases {
		opts := store.ListOptions{Limit: a.BatchSize}
		for {
			devices, err := p.find(ctx, opts)
			if err != nil {
				l.Errorf("[%s] failed to query %s: %s",
					CheckOfflineJobName, p.name, err.Error())
				return report, errors.Wrapf(err, "app: failed to query %s", p.name)
			}
			if len(devices) == 0 {
				break
			}
			a.applyBatch(ctx, report, cutoff, p.target, devices)
			if len(devices) < opts.Limit {
				break
			}
			opts.After = devices[len(devices)-1].ID
		}
	}

	l.F(log.Ctx{
		"offline":     len(report.Offline),
		"maintenance": len(report.Maintenance),
		"skipped":     report.Skipped,
		"failed":      len(report.Failed),
	}).Infof("[%s] pass completed, threshold %s", CheckOfflineJobName, threshold)

	if len(report.Failed) > 0 {
		return report, ErrTransitionsFailed
	}
	return report, nil
}

// applyBatch applies the transitions of one page of candidates. Devices
// paired with the same machine are processed sequentially by one worker;
// at most a.Workers workers run at the same time.
func (a *app) applyBatch(
	ctx context.Context,
	report *model.CheckOfflineReport,
	cutoff time.Time,
	target string,
	devices []model.EdgeDevice,
) {
	l := log.FromContext(ctx)
	results := make([]result, len(devices))

	var groupKeys []string
	groups := make(map[string][]int)
	for i := range devices {
		t, ok := model.Classify(&devices[i], cutoff)
		if !ok || t.To != target {
			l.Errorf("[%s] device %s does not qualify for status %s, skipping",
				CheckOfflineJobName, devices[i].DeviceID, target)
			results[i] = result{outcome: outcomeSkipped}
			continue
		}
		results[i].transition = t
		key := t.DeviceID
		if t.RvmMachineID != nil {
			key = t.RvmMachineID.String()
		}
		if _, ok := groups[key]; !ok {
			groupKeys = append(groupKeys, key)
		}
		groups[key] = append(groups[key], i)
	}

	var (
		wg  sync.WaitGroup
		sem = semaphore.NewWeighted(int64(a.Workers))
	)
	for _, key := range groupKeys {
		indexes := groups[key]
		if err := sem.Acquire(ctx, 1); err != nil {
			for _, i := range indexes {
				results[i].outcome = outcomeFailed
				results[i].err = err
			}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			for _, i := range indexes {
				results[i].outcome, results[i].err =
					a.applyTransition(ctx, results[i].transition)
			}
		}()
	}
	wg.Wait()

	for _, res := range results {
		switch res.outcome {
		case outcomeApplied:
			if res.transition.To == model.DeviceStatusOffline {
				report.Offline = append(report.Offline, res.transition)
			} else {
				report.Maintenance = append(report.Maintenance, res.transition)
			}
		case outcomeSkipped:
			report.Skipped++
		case outcomeFailed:
			report.Failed = append(report.Failed, model.TransitionFailure{
				Transition: res.transition,
				Error:      res.err.Error(),
			})
		}
	}
}

// applyTransition writes a single transition and reports it
func (a *app) applyTransition(ctx context.Context, t model.Transition) (outcome, error) {
	l := log.FromContext(ctx)

	err := a.store.ApplyTransition(ctx, t)
	if errors.Cause(err) == store.ErrDeviceStatusChanged {
		l.Debugf("[%s] device %s is no longer %s, skipping",
			CheckOfflineJobName, t.DeviceID, t.From)
		return outcomeSkipped, nil
	} else if err != nil {
		l.F(log.Ctx{
			"device_id": t.DeviceID,
			"status":    t.To,
		}).Errorf("[%s] failed to mark device %s %s: %s",
			CheckOfflineJobName, t.DeviceID, t.To, err.Error())
		return outcomeFailed, err
	}

	l.F(log.Ctx{
		"device_id":       t.DeviceID,
		"previous_status": t.From,
		"status":          t.To,
		"reason":          t.Reason,
	}).Warnf("[%s] Device %s marked %s. Reason: %s",
		CheckOfflineJobName, t.DeviceID, t.To, t.Reason)

	if err := a.submitTransitionAuditLog(ctx, t); err != nil {
		l.Errorf("[%s] failed to submit audit log for device %s: %s",
			CheckOfflineJobName, t.DeviceID, err.Error())
	}
	if err := a.publishStatusEvent(t); err != nil {
		l.Errorf("[%s] failed to publish status event for device %s: %s",
			CheckOfflineJobName, t.DeviceID, err.Error())
	}
	return outcomeApplied, nil
}

func (a *app) submitTransitionAuditLog(ctx context.Context, t model.Transition) error {
	if !a.HaveAuditLogs {
		return nil
	}
	object := &workflows.EdgeDevice{
		DeviceID: t.DeviceID,
		Status:   t.To,
	}
	if t.RvmMachineID != nil {
		object.RvmMachineID = t.RvmMachineID.String()
	}
	return a.workflows.SubmitAuditLog(ctx, workflows.AuditLog{
		Action: workflows.ActionUpdate,
		Actor: workflows.Actor{
			ID:   CheckOfflineJobName,
			Type: workflows.ActorSystem,
		},
		Object: workflows.Object{
			ID:         t.ID.String(),
			Type:       workflows.ObjectEdgeDevice,
			EdgeDevice: object,
		},
		Change: fmt.Sprintf("Device marked %s. Reason: %s", t.To, t.Reason),
		MetaData: map[string][]string{
			"previous_status": {t.From},
			"reason":          {t.Reason},
		},
		EventTS: a.Clock.Now(),
	})
}

func (a *app) publishStatusEvent(t model.Transition) error {
	if a.nats == nil {
		return nil
	}
	data, err := msgpack.Marshal(model.NewStatusEvent(t, a.Clock.Now()))
	if err != nil {
		return errors.Wrap(err, "failed to encode status event")
	}
	return a.nats.Publish(model.GetDeviceStatusSubject(t.DeviceID), data)
}
