// Package scheduler drives the periodic coverage check loop.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Runner processes due quotes and returns how many were attempted.
type Runner interface {
	RunDue(ctx context.Context, limit int) int
}

// Scheduler periodically invokes the coverage pipeline for due quotes.
type Scheduler struct {
	runner Runner
	log    *slog.Logger
	tick   time.Duration
	limit  int
}

// New creates a Scheduler checking every tick, processing at most limit
// due quotes per run.
func New(runner Runner, tick time.Duration, limit int, log *slog.Logger) *Scheduler {
	return &Scheduler{runner: runner, log: log, tick: tick, limit: limit}
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
// The first check runs immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.check(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.check(ctx)
		}
	}
}

func (s *Scheduler) check(ctx context.Context) {
	start := time.Now()
	processed := s.runner.RunDue(ctx, s.limit)
	if processed > 0 {
		s.log.Info("coverage run", "processed", processed, "duration", time.Since(start))
	}
}
