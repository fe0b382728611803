// Package watch re-runs staging on an interval for the long-running service.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"artifactstager/internal/apperrors"
	"artifactstager/internal/staging"
	"artifactstager/pkg/backoff"
)

// ErrNotStaged is returned by Ready until a run has staged an artifact.
var ErrNotStaged = errors.New("no artifact staged yet")

// StageRunner performs one staging run.
type StageRunner interface {
	Run(ctx context.Context) (*staging.Report, error)
}

// Config controls the watch loop.
type Config struct {
	Interval time.Duration  // time between runs, default 30s
	Backoff  backoff.Config // delay after consecutive fatal errors, replaces Interval
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.Backoff.Initial <= 0 {
		c.Backoff.Initial = time.Second
	}
	if c.Backoff.Max <= 0 {
		c.Backoff.Max = 5 * time.Minute
	}
	return c
}

// Stats summarizes the watcher's history.
type Stats struct {
	Runs     int64
	Staged   int64
	Failures int64
}

// Watcher runs a StageRunner repeatedly. Runs never overlap.
type Watcher struct {
	runner  StageRunner
	config  Config
	logger  *slog.Logger
	trigger chan struct{}

	mu       sync.RWMutex
	last     *staging.Report
	lastErr  error
	staged   bool
	stats    Stats
	failures int // consecutive fatal errors
}

// New creates a watcher.
func New(runner StageRunner, cfg Config) *Watcher {
	return &Watcher{
		runner:  runner,
		config:  cfg.withDefaults(),
		logger:  slog.With("component", "watcher"),
		trigger: make(chan struct{}, 1),
	}
}

// Run loops until ctx is done. The first run starts immediately.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("Watcher started", "interval", w.config.Interval)
	for {
		report, err := w.runner.Run(ctx)
		if ctx.Err() != nil {
			w.logger.Info("Watcher stopped")
			return nil
		}
		delay := w.record(report, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("Watcher stopped")
			return nil
		case <-w.trigger:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Trigger requests an immediate run. Requests made while one is already
// pending are coalesced.
func (w *Watcher) Trigger() {
	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

// record stores the outcome and returns the delay before the next run.
func (w *Watcher) record(report *staging.Report, err error) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.last = report
	w.lastErr = err
	w.stats.Runs++
	if report != nil && report.Status == staging.StatusStaged {
		w.staged = true
		w.stats.Staged++
	}

	if !apperrors.IsFatal(err) {
		w.failures = 0
		return w.config.Interval
	}
	w.failures++
	w.stats.Failures++
	delay := backoff.Exponential(w.failures, &w.config.Backoff)
	w.logger.Warn("Staging run failed, backing off", "error", err, "failures", w.failures, "delay", delay)
	return delay
}

// Ready returns nil once an artifact has been staged and the most recent
// run did not fail.
func (w *Watcher) Ready(ctx context.Context) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.staged {
		return ErrNotStaged
	}
	if apperrors.IsFatal(w.lastErr) {
		return w.lastErr
	}
	return nil
}

// Last returns the most recent report, or nil before the first run.
func (w *Watcher) Last() *staging.Report {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}

// Stats returns run counters.
func (w *Watcher) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}
