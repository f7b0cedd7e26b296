// Package schedule runs a task at a fixed period with a skip-if-busy overlap policy:
// a tick which fires while the previous run is still in progress is dropped.
package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Task is the unit of work executed on every tick.
type Task func(ctx context.Context) error

// Stats summarizes the activity of a Ticker.
type Stats struct {
	Ticks   uint64 // ticks fired
	Runs    uint64 // ticks which started the task
	Skipped uint64 // ticks dropped because the task was still running
	Failed  uint64 // runs which returned an error
}

// Ticker fires a task every interval, never running two instances at once.
type Ticker struct {
	interval time.Duration
	busy     *semaphore.Weighted
	logger   *slog.Logger

	ticks   atomic.Uint64
	runs    atomic.Uint64
	skipped atomic.Uint64
	failed  atomic.Uint64
}

// New creates a Ticker. A nil logger falls back to slog.Default.
func New(interval time.Duration, logger *slog.Logger) *Ticker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		interval: interval,
		busy:     semaphore.NewWeighted(1),
		logger:   logger,
	}
}

// Run fires task every interval until ctx is cancelled. Errors returned by the task
// are logged and do not stop the schedule. On cancellation Run waits for the
// in-flight task to return, then returns ctx.Err().
func (t *Ticker) Run(ctx context.Context, task Task) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Wait for the last run to release the slot.
			t.busy.Acquire(context.Background(), 1)
			t.busy.Release(1)
			return ctx.Err()
		case <-ticker.C:
			t.tick(ctx, task)
		}
	}
}

func (t *Ticker) tick(ctx context.Context, task Task) {
	n := t.ticks.Add(1)
	if !t.busy.TryAcquire(1) {
		t.skipped.Add(1)
		t.logger.Debug("schedule: previous run still in progress, tick skipped", "tick", n)
		return
	}
	t.runs.Add(1)

	go func() {
		defer t.busy.Release(1)

		err := task(ctx)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			// Stopping the schedule interrupted the run; that is not a failure.
			t.logger.Debug("schedule: run cancelled", "tick", n)
		default:
			t.failed.Add(1)
			t.logger.Error("schedule: task failed", "tick", n, "error", err)
		}
	}()
}

// Stats returns a snapshot of the ticker counters.
func (t *Ticker) Stats() Stats {
	return Stats{
		Ticks:   t.ticks.Load(),
		Runs:    t.runs.Load(),
		Skipped: t.skipped.Load(),
		Failed:  t.failed.Load(),
	}
}
