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

// Package scheduler runs periodic jobs in the background. A job never
// overlaps with itself: a tick arriving while the previous run is still in
// progress is skipped, and jobs configured with a lock TTL additionally
// take a lease in the data store so that only one replica runs them.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/mendersoftware/go-lib-micro/log"
	"github.com/pkg/errors"

	"github.com/rvmfleet/edgeconnect/utils"
)

var (
	ErrJobExists   = errors.New("scheduler: job already registered")
	ErrJobNotFound = errors.New("scheduler: job not found")
	ErrStarted     = errors.New("scheduler: already started")
)

// Locker provides the leases used to keep replicas from running the same
// job concurrently
type Locker interface {
	AcquireJobLock(ctx context.Context, name, owner string, now time.Time, ttl time.Duration) (bool, error)
	ReleaseJobLock(ctx context.Context, name, owner string) error
}

// Job is a unit of periodic work
type Job struct {
	Name     string
	Interval time.Duration
	// LockTTL enables the store lease when positive; a lease held by a
	// crashed replica expires after this long
	LockTTL time.Duration
	Run     func(ctx context.Context) error
}

func (j Job) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.Name, validation.Required),
		validation.Field(&j.Interval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&j.LockTTL, validation.Min(time.Duration(0))),
		validation.Field(&j.Run, validation.NotNil),
	)
}

type entry struct {
	Job
	running int32
}

// Scheduler dispatches registered jobs at their interval
type Scheduler struct {
	locker Locker
	clock  utils.Clock
	owner  string

	mu      sync.Mutex
	jobs    map[string]*entry
	order   []string
	cancel  context.CancelFunc
	loops   sync.WaitGroup
	runs    sync.WaitGroup
	started bool
}

// New returns a scheduler taking leases from locker; locker may be nil
// when the process is the only one running the jobs
func New(locker Locker, clock utils.Clock) *Scheduler {
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &Scheduler{
		locker: locker,
		clock:  clock,
		owner:  uuid.NewString(),
		jobs:   make(map[string]*entry),
	}
}

// Owner returns the identifier this scheduler takes leases with
func (s *Scheduler) Owner() string {
	return s.owner
}

// Add registers a job; jobs must be added before Start
func (s *Scheduler) Add(job Job) error {
	if err := job.Validate(); err != nil {
		return errors.Wrap(err, "scheduler: invalid job")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	if _, ok := s.jobs[job.Name]; ok {
		return ErrJobExists
	}
	s.jobs[job.Name] = &entry{Job: job}
	s.order = append(s.order, job.Name)
	return nil
}

// Start launches one timer loop per job. Each tick dispatches the job on
// its own goroutine so a slow run never delays the timer.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, name := range s.order {
		e := s.jobs[name]
		s.loops.Add(1)
		go s.loop(ctx, e)
	}
	return nil
}

// Stop stops the timers and waits for the runs in progress to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.loops.Wait()
	s.runs.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e *entry) {
	defer s.loops.Done()
	l := log.FromContext(ctx)
	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	l.Infof("scheduler: job %s scheduled every %s", e.Name, e.Interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runs.Add(1)
			go func() {
				defer s.runs.Done()
				if _, err := s.run(ctx, e); err != nil {
					l.F(log.Ctx{"job": e.Name}).
						Errorf("scheduler: job %s failed: %s", e.Name, err.Error())
				}
			}()
		}
	}
}

// RunOnce runs the named job synchronously, honoring the same overlap
// rules as scheduled runs. It reports whether the job actually ran.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return false, ErrJobNotFound
	}
	return s.run(ctx, e)
}

func (s *Scheduler) run(ctx context.Context, e *entry) (bool, error) {
	l := log.FromContext(ctx).F(log.Ctx{"job": e.Name})

	if !atomic.CompareAndSwapInt32(&e.running, 0, 1) {
		l.Debugf("scheduler: job %s is still running, skipping", e.Name)
		return false, nil
	}
	defer atomic.StoreInt32(&e.running, 0)

	if s.locker != nil && e.LockTTL > 0 {
		acquired, err := s.locker.AcquireJobLock(ctx,
			e.Name, s.owner, s.clock.Now(), e.LockTTL)
		if err != nil {
			return false, errors.Wrapf(err, "scheduler: failed to lock job %s", e.Name)
		} else if !acquired {
			l.Debugf("scheduler: job %s is locked by another process, skipping", e.Name)
			return false, nil
		}
		defer func() {
			err := s.locker.ReleaseJobLock(context.WithoutCancel(ctx), e.Name, s.owner)
			if err != nil {
				l.Errorf("scheduler: failed to unlock job %s: %s", e.Name, err.Error())
			}
		}()
	}

	start := s.clock.Now()
	err := e.Run(ctx)
	l.Debugf("scheduler: job %s finished in %s", e.Name, s.clock.Now().Sub(start))
	return true, err
}
