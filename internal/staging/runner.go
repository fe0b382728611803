// Package staging copies the resolved artifact into the consumer project and
// drives one resolve-and-stage invocation end to end.
package staging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"artifactstager/internal/apperrors"
	"artifactstager/internal/config"
	"artifactstager/internal/observability"
	"artifactstager/internal/project"
	"artifactstager/internal/resolver"
	"artifactstager/pkg/circuitbreaker"
	"artifactstager/pkg/cloudevent"

	"github.com/google/uuid"
)

// Status is the outcome of one run.
type Status string

const (
	StatusStaged  Status = "staged"
	StatusMissing Status = "missing"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Report describes one run.
type Report struct {
	RunID            string        `json:"runId"`
	Status           Status        `json:"status"`
	Project          string        `json:"project"`
	BuildRoot        string        `json:"buildRoot,omitempty"`
	Variant          string        `json:"variant"`
	Intent           string        `json:"intent,omitempty"`
	Source           string        `json:"source,omitempty"`
	Path             string        `json:"path,omitempty"`
	MaterializedFrom string        `json:"materializedFrom,omitempty"`
	Destination      string        `json:"destination"`
	Bytes            int64         `json:"bytes,omitempty"`
	SHA256           string        `json:"sha256,omitempty"`
	Duration         time.Duration `json:"duration"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records every run.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithCallbackRetries sets how often a failed callback post is retried.
func WithCallbackRetries(n int) Option {
	return func(r *Runner) { r.callbackRetries = n }
}

// WithCallbackBreaker stops posting callbacks while the endpoint keeps failing.
func WithCallbackBreaker(b *circuitbreaker.Breaker) Option {
	return func(r *Runner) { r.breaker = b }
}

// Runner resolves the producer's artifact and stages it into the consumer.
// A Runner is not safe for concurrent use; runs must not overlap.
type Runner struct {
	cfg             *config.StagerConfig
	registry        *project.Registry
	resolver        *resolver.Resolver
	target          Target
	metrics         *observability.Metrics
	sender          *cloudevent.Sender
	breaker         *circuitbreaker.Breaker
	events          *EventBuilder
	logger          *slog.Logger
	callbackRetries int
}

// NewRunner creates a runner for cfg.
func NewRunner(cfg *config.StagerConfig, opts ...Option) *Runner {
	r := &Runner{
		cfg:             cfg,
		registry:        project.NewRegistry(cfg.Workspace, cfg.File),
		target:          Target{Dir: cfg.StagingPath(), FileName: cfg.FileName},
		events:          NewEventBuilder(EventSource),
		logger:          slog.Default(),
		callbackRetries: 2,
	}
	for _, opt := range opts {
		opt(r)
	}
	if cfg.CallbackURL != "" {
		r.sender = cloudevent.NewSender(cfg.CallbackTimeout)
	}
	r.resolver = resolver.New(resolver.Options{
		Layout:   resolver.Layout{Kind: cfg.Kind},
		Filter:   resolver.Filter{Extension: cfg.Extension, Variant: cfg.Variant},
		MaxDepth: cfg.MaxDepth,
		Logger:   r.logger,
	})
	return r
}

// Target returns the staging destination.
func (r *Runner) Target() Target {
	return r.target
}

// Run performs one invocation. A missing project or artifact is reported
// through Report.Status with a nil error, except that a missing artifact is
// returned as an error when the configuration marks it required. Fatal
// errors come back with Status set to StatusFailed.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{
		RunID:       uuid.NewString(),
		Project:     r.cfg.Project,
		Variant:     r.cfg.Variant,
		Destination: r.target.Path(),
	}
	logger := r.logger.With("runId", report.RunID, "project", ":"+r.cfg.Project, "variant", r.cfg.Variant)

	err := r.run(ctx, report, logger)
	report.Duration = time.Since(start)

	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrProjectNotFound):
		report.Status = StatusSkipped
		logger.Info("Producer project not found, skipping", "error", err)
	case errors.Is(err, apperrors.ErrArtifactNotFound):
		report.Status = StatusMissing
		logger.Warn("No artifact to stage", "buildRoot", report.BuildRoot, "error", err)
	default:
		report.Status = StatusFailed
		logger.Error("Staging failed", "error", err)
	}

	r.record(ctx, report)
	r.notify(ctx, report, err, logger)

	if report.Status == StatusMissing && r.cfg.Required {
		return report, err
	}
	if apperrors.IsFatal(err) {
		return report, err
	}
	return report, nil
}

func (r *Runner) run(ctx context.Context, report *Report, logger *slog.Logger) error {
	buildRoot := r.cfg.BuildRoot
	if buildRoot == "" {
		p, err := r.registry.Find(r.cfg.Project)
		if err != nil {
			return err
		}
		buildRoot = p.BuildRoot
	}
	report.BuildRoot = buildRoot

	intent := resolver.ClassifyIntent(r.cfg.Tasks, r.cfg.TaskName)
	report.Intent = intent.String()

	roots := resolver.Prioritize(buildRoot, intent, r.resolver.Layout())
	found, err := r.resolver.Resolve(ctx, roots, intent, buildRoot)
	if err != nil {
		return err
	}
	report.Source = string(found.Source)
	report.Path = found.Path
	report.MaterializedFrom = found.MaterializedFrom
	if found.MaterializedFrom != "" && r.metrics != nil {
		r.metrics.RecordMaterialized(ctx, r.cfg.Project, report.Source)
	}

	res, err := Stage(found.Path, r.target)
	if err != nil {
		return err
	}
	report.Status = StatusStaged
	report.Bytes = res.Bytes
	report.SHA256 = res.SHA256

	logger.Info("Artifact staged",
		"intent", report.Intent,
		"source", report.Source,
		"path", report.Path,
		"destination", report.Destination,
		"bytes", report.Bytes)
	return nil
}

func (r *Runner) record(ctx context.Context, report *Report) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordRun(ctx, report.Project, report.Variant, report.Intent,
		string(report.Status), report.Source, report.Duration.Seconds())
	if report.Status == StatusStaged {
		r.metrics.RecordStagedBytes(ctx, report.Project, report.Bytes)
	}
}

func (r *Runner) notify(ctx context.Context, report *Report, runErr error, logger *slog.Logger) {
	if r.sender == nil {
		return
	}
	event := r.events.Build(report, runErr)
	opts := cloudevent.SendOptions{SigningKey: r.cfg.CallbackKey, Retries: r.callbackRetries}
	send := func() error {
		return r.sender.Send(ctx, r.cfg.CallbackURL, event, opts)
	}

	var err error
	if r.breaker != nil {
		err = r.breaker.Do(send)
	} else {
		err = send()
	}
	if err == nil {
		return
	}
	if errors.Is(err, circuitbreaker.ErrOpen) {
		logger.Debug("Callback endpoint circuit open, event dropped", "type", event.Type)
	} else {
		logger.Warn("Failed to send callback event", "type", event.Type, "callbackError", err)
	}
	if r.metrics != nil {
		r.metrics.RecordCallbackFailure(ctx, report.Project)
	}
}
