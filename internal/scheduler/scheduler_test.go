package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingRunner struct {
	calls     atomic.Int64
	lastLimit atomic.Int64
}

func (r *countingRunner) RunDue(_ context.Context, limit int) int {
	r.calls.Add(1)
	r.lastLimit.Store(int64(limit))
	return 1
}

func TestRunChecksImmediately(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, time.Hour, 15, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runner.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("no check within 2s of start")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if got := runner.lastLimit.Load(); got != 15 {
		t.Errorf("limit = %d, want 15", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunTicks(t *testing.T) {
	runner := &countingRunner{}
	s := New(runner, 20*time.Millisecond, 1, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for runner.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d checks within 2s, want at least 3", runner.calls.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
