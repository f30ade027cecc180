// Package scheduler runs periodic session housekeeping.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ExpiryChecker ends the current session when it is no longer valid and
// reports whether it did.
type ExpiryChecker interface {
	CheckExpiry(ctx context.Context) bool
}

// ExpiryWatcher calls CheckExpiry on a cron schedule. When disabled, Start
// and Stop are no-ops.
type ExpiryWatcher struct {
	cron    *cron.Cron
	checker ExpiryChecker
	timeout time.Duration
	log     zerolog.Logger
}

// NewExpiryWatcher parses schedule (standard cron or "@every 1m" descriptors).
// An empty or "off" schedule returns a disabled watcher.
func NewExpiryWatcher(schedule string, checker ExpiryChecker, log zerolog.Logger) (*ExpiryWatcher, error) {
	w := &ExpiryWatcher{checker: checker, timeout: 10 * time.Second, log: log}
	if schedule == "" || schedule == "off" {
		return w, nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, w.run); err != nil {
		return nil, fmt.Errorf("scheduler: invalid expiry schedule %q: %w", schedule, err)
	}
	w.cron = c
	return w, nil
}

// Enabled reports whether a schedule was configured.
func (w *ExpiryWatcher) Enabled() bool {
	return w.cron != nil
}

func (w *ExpiryWatcher) Start() {
	if w.cron == nil {
		return
	}
	w.cron.Start()
	w.log.Info().Msg("session expiry watcher started")
}

// Stop halts the schedule and waits for a running check to finish.
func (w *ExpiryWatcher) Stop() {
	if w.cron == nil {
		return
	}
	<-w.cron.Stop().Done()
	w.log.Info().Msg("session expiry watcher stopped")
}

func (w *ExpiryWatcher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if w.checker.CheckExpiry(ctx) {
		w.log.Info().Msg("expired session logged out")
	}
}
