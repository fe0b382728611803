// Package health provides liveness and readiness checks for the stager service.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ReadinessChecker reports whether a component is ready. The watcher
// implements it: ready once an artifact has been staged.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// CheckFunc adapts a function to ReadinessChecker.
type CheckFunc func(ctx context.Context) error

// Ready implements ReadinessChecker.
func (f CheckFunc) Ready(ctx context.Context) error {
	return f(ctx)
}

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// CheckResult contains the result of a health check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Response is the health check response.
type Response struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// IsHealthy returns true if the overall status is healthy.
func (r *Response) IsHealthy() bool {
	return r.Status == StatusHealthy
}

type namedCheck struct {
	name     string
	checker  ReadinessChecker
	optional bool // failures degrade instead of failing readiness
}

// Checker aggregates named readiness checks.
type Checker struct {
	checks   []namedCheck
	timeout  time.Duration
	cacheTTL time.Duration

	mu           sync.RWMutex
	lastCheck    time.Time
	cachedReady  *Response
	shuttingDown bool
}

// NewChecker creates a checker with a required "staging" check. A nil
// checker makes readiness fail.
func NewChecker(staging ReadinessChecker) *Checker {
	c := &Checker{
		timeout:  5 * time.Second,
		cacheTTL: time.Second,
	}
	c.checks = append(c.checks, namedCheck{name: "staging", checker: staging})
	return c
}

// AddOptional registers a check whose failure only degrades readiness.
func (c *Checker) AddOptional(name string, checker ReadinessChecker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, namedCheck{name: name, checker: checker, optional: true})
	c.cachedReady = nil
}

// Liveness always reports healthy while the process can serve requests.
func (c *Checker) Liveness(ctx context.Context) *Response {
	return &Response{Status: StatusHealthy}
}

// Readiness runs every check. Results are cached for a second.
func (c *Checker) Readiness(ctx context.Context) *Response {
	c.mu.RLock()
	if c.shuttingDown {
		c.mu.RUnlock()
		return &Response{
			Status: StatusUnhealthy,
			Checks: map[string]CheckResult{
				"shutdown": {Status: StatusUnhealthy, Message: "service is shutting down"},
			},
		}
	}
	if c.cachedReady != nil && time.Since(c.lastCheck) < c.cacheTTL {
		cached := c.cachedReady
		c.mu.RUnlock()
		return cached
	}
	checks := append([]namedCheck(nil), c.checks...)
	c.mu.RUnlock()

	response := &Response{Status: StatusHealthy, Checks: make(map[string]CheckResult, len(checks))}
	for _, nc := range checks {
		result := c.run(ctx, nc)
		response.Checks[nc.name] = result
		switch {
		case result.Status == StatusHealthy:
		case nc.optional && response.Status == StatusHealthy:
			response.Status = StatusDegraded
		case !nc.optional:
			response.Status = StatusUnhealthy
		}
	}

	c.mu.Lock()
	c.cachedReady = response
	c.lastCheck = time.Now()
	c.mu.Unlock()

	return response
}

func (c *Checker) run(ctx context.Context, nc namedCheck) CheckResult {
	if nc.checker == nil {
		return CheckResult{Status: StatusUnhealthy, Message: nc.name + " not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := nc.checker.Ready(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// Names returns the registered check names, sorted.
func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for _, nc := range c.checks {
		names = append(names, nc.name)
	}
	sort.Strings(names)
	return names
}

// SetShuttingDown makes readiness fail immediately so load balancers drain.
func (c *Checker) SetShuttingDown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shuttingDown = true
	c.cachedReady = nil
}
