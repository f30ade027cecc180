package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingChecker struct {
	calls   atomic.Int32
	expired bool
}

func (c *countingChecker) CheckExpiry(context.Context) bool {
	c.calls.Add(1)
	return c.expired
}

func TestNewExpiryWatcher_EmptyScheduleDisables(t *testing.T) {
	w, err := NewExpiryWatcher("", &countingChecker{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Enabled() {
		t.Fatalf("expected disabled watcher")
	}
	w.Start()
	w.Stop()
}

func TestNewExpiryWatcher_InvalidSchedule(t *testing.T) {
	if _, err := NewExpiryWatcher("every minute please", &countingChecker{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for invalid schedule")
	}
}

func TestExpiryWatcher_RunCallsChecker(t *testing.T) {
	checker := &countingChecker{expired: true}
	w, err := NewExpiryWatcher("@every 1m", checker, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w.run()
	w.run()

	if got := checker.calls.Load(); got != 2 {
		t.Fatalf("expected 2 checks, got %d", got)
	}
}

func TestExpiryWatcher_FiresOnSchedule(t *testing.T) {
	checker := &countingChecker{}
	w, err := NewExpiryWatcher("@every 1s", checker, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Start()
	defer w.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for checker.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expiry check never ran")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
