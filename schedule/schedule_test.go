package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunSkipsTicksWhileBusy(t *testing.T) {
	var running, maxRunning atomic.Int32
	task := func(ctx context.Context) error {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	tk := New(2*time.Millisecond, quietLogger())
	if err := tk.Run(ctx, task); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() = %v, want deadline exceeded", err)
	}

	if got := maxRunning.Load(); got != 1 {
		t.Errorf("observed %d concurrent runs, want 1", got)
	}
	if running.Load() != 0 {
		t.Error("Run returned before the in-flight task finished")
	}
	st := tk.Stats()
	if st.Runs == 0 || st.Skipped == 0 {
		t.Errorf("stats = %+v, want runs and skipped ticks", st)
	}
	if st.Runs+st.Skipped != st.Ticks {
		t.Errorf("stats = %+v, runs + skipped should equal ticks", st)
	}
}

func TestRunKeepsGoingAfterErrors(t *testing.T) {
	var calls atomic.Int32
	task := func(ctx context.Context) error {
		calls.Add(1)
		return errors.New("boom")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	tk := New(5*time.Millisecond, quietLogger())
	tk.Run(ctx, task)

	if calls.Load() < 2 {
		t.Errorf("task ran %d times, want the schedule to continue after a failure", calls.Load())
	}
	if st := tk.Stats(); st.Failed != st.Runs {
		t.Errorf("stats = %+v, every run should be counted as failed", st)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	tk := New(time.Millisecond, nil)
	go func() {
		done <- tk.Run(ctx, func(context.Context) error { return nil })
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestCancelledRunIsNotAFailure(t *testing.T) {
	started := make(chan struct{}, 1)
	task := func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	}

	var logs strings.Builder
	tk := New(time.Millisecond, slog.New(slog.NewTextHandler(&logs, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tk.Run(ctx, task) }()

	<-started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if st := tk.Stats(); st.Runs == 0 || st.Failed != 0 {
		t.Errorf("stats = %+v, an interrupted run should not count as failed", st)
	}
	if strings.Contains(logs.String(), "level=ERROR") {
		t.Errorf("cancellation logged as an error:\n%s", logs.String())
	}
}
