/*
 * Copyright 2025 the Y Monitor Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package poller drives the cron-like interface, sensor and device
// status poll cycles.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/ymonitor/ymonitor/pkg/logger"
)

// Job is one scheduled poll cycle.
type Job func(ctx context.Context)

type scheduledJob struct {
	name     string
	interval time.Duration
	run      Job
}

// Scheduler dispatches jobs on fixed cadences. A job that is still
// running when its next tick fires is skipped with a warning; cycles
// never overlap per job.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []*scheduledJob
	running map[string]bool

	logger   logger.Logger
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	started  bool
}

func NewScheduler(log logger.Logger) *Scheduler {
	return &Scheduler{
		running: make(map[string]bool),
		logger:  log.WithComponent("scheduler"),
		done:    make(chan struct{}),
	}
}

// Add registers a job. Must be called before Start.
func (s *Scheduler) Add(name string, interval time.Duration, job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, &scheduledJob{name: name, interval: interval, run: job})
}

// Start launches one ticker goroutine per job.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()

	if s.started {
		s.mu.Unlock()
		return
	}

	s.started = true
	jobs := append([]*scheduledJob(nil), s.jobs...)
	s.mu.Unlock()

	for _, job := range jobs {
		s.wg.Add(1)

		go s.loop(ctx, job)
	}
}

// Stop halts all tickers and waits for in-flight cycles.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}

func (s *Scheduler) loop(ctx context.Context, job *scheduledJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatch(ctx, job)
		}
	}
}

// dispatch runs one cycle unless the previous one is still in flight.
func (s *Scheduler) dispatch(ctx context.Context, job *scheduledJob) {
	s.mu.Lock()

	if s.running[job.name] {
		s.mu.Unlock()
		s.logger.Warn().Str("job", job.name).Msg("previous cycle still running, tick skipped")

		return
	}

	s.running[job.name] = true
	s.mu.Unlock()

	start := time.Now()

	job.run(ctx)

	s.mu.Lock()
	s.running[job.name] = false
	s.mu.Unlock()

	s.logger.Debug().
		Str("job", job.name).
		Dur("duration", time.Since(start)).
		Msg("cycle finished")
}

// RunNow triggers a registered job immediately, honoring the re-entry
// guard. Used by tests and the operational surface.
func (s *Scheduler) RunNow(ctx context.Context, name string) bool {
	s.mu.Lock()

	var job *scheduledJob

	for _, j := range s.jobs {
		if j.name == name {
			job = j
			break
		}
	}

	if job == nil || s.running[name] {
		s.mu.Unlock()
		return false
	}

	s.mu.Unlock()

	s.dispatch(ctx, job)

	return true
}
