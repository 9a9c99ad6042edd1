package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of scheduled work. It must be safe to invoke repeatedly
// and should honor ctx cancellation.
type Job func(ctx context.Context)

type entry struct {
	name string
	fn   Job

	// interval jobs
	interval time.Duration

	// daily jobs
	daily bool
	hour  int
	min   int
}

// Scheduler runs background jobs, one goroutine per job. Interval jobs arm
// their timer only after the previous run finished, so a slow run coalesces
// with the next tick instead of piling up.
type Scheduler struct {
	log     *zap.Logger
	entries []entry

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New creates an empty scheduler.
func New(log *zap.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Every registers a job that runs once per interval, starting one interval
// after Start.
func (s *Scheduler) Every(name string, interval time.Duration, fn Job) {
	s.entries = append(s.entries, entry{name: name, interval: interval, fn: fn})
}

// DailyAt registers a job that runs once per day at the given local time.
func (s *Scheduler) DailyAt(name string, hour, min int, fn Job) {
	s.entries = append(s.entries, entry{name: name, daily: true, hour: hour, min: min, fn: fn})
}

// Start launches all registered jobs. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, e := range s.entries {
		s.wg.Add(1)
		go s.run(ctx, e)
	}
	s.log.Info("scheduler started", zap.Int("jobs", len(s.entries)))
}

// Stop cancels all jobs and waits for running ones to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, e entry) {
	defer s.wg.Done()

	timer := time.NewTimer(s.delay(e))
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			started := time.Now()
			e.fn(ctx)
			s.log.Debug("job finished",
				zap.String("job", e.name),
				zap.Duration("took", time.Since(started)))

			// Rearm only after the run completed.
			timer.Reset(s.delay(e))
		case <-ctx.Done():
			s.log.Debug("job stopped", zap.String("job", e.name))
			return
		}
	}
}

func (s *Scheduler) delay(e entry) time.Duration {
	if !e.daily {
		return e.interval
	}
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), e.hour, e.min, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return time.Until(next)
}
