// Package backoff provides exponential backoff for retrying staging runs and callbacks.
package backoff

import (
	"context"
	"time"
)

// Config for exponential backoff. Zero values use defaults.
type Config struct {
	Initial time.Duration // default: 100ms
	Max     time.Duration // default: 5s
}

func (c *Config) bounds() (initial, limit time.Duration) {
	initial, limit = 100*time.Millisecond, 5*time.Second
	if c != nil {
		if c.Initial > 0 {
			initial = c.Initial
		}
		if c.Max > 0 {
			limit = c.Max
		}
	}
	return initial, limit
}

// Exponential returns the delay before the given attempt.
// Attempt 1 returns Initial, attempt 2 returns Initial*2, and so on up to Max.
func Exponential(attempt int, cfg *Config) time.Duration {
	initial, limit := cfg.bounds()
	if initial > limit {
		return limit
	}
	d := initial
	for i := 1; i < attempt; i++ {
		if d > limit/2 {
			return limit
		}
		d *= 2
	}
	return d
}

// Wait sleeps for Exponential(attempt, cfg) or until ctx is done.
func Wait(ctx context.Context, attempt int, cfg *Config) error {
	timer := time.NewTimer(Exponential(attempt, cfg))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
