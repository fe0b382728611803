package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds staging metrics:
// - Latency: how long one resolve-and-stage run takes
// - Traffic: runs by outcome
// - Errors: fatal runs
// - Promotion: materializations from the intermediate tree
type Metrics struct {
	meter    metric.Meter
	registry *prometheus.Registry

	// Service API, only recorded by stager-service
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPErrorsTotal     metric.Int64Counter

	RunDuration      metric.Float64Histogram
	RunsTotal        metric.Int64Counter
	RunErrorsTotal   metric.Int64Counter
	MaterializeTotal metric.Int64Counter
	StagedBytes      metric.Int64Histogram
	CallbackFailures metric.Int64Counter
}

// NewMetrics creates the instruments on a private Prometheus registry and
// returns a handler serving it.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("artifactstager")
	m := &Metrics{meter: meter, registry: registry}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPErrorsTotal, err = meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.RunDuration, err = meter.Float64Histogram(
		"stager_run_duration_seconds",
		metric.WithDescription("Resolve and stage duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.RunsTotal, err = meter.Int64Counter(
		"stager_runs_total",
		metric.WithDescription("Total staging runs by outcome"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.RunErrorsTotal, err = meter.Int64Counter(
		"stager_run_errors_total",
		metric.WithDescription("Total staging runs aborted by a fatal error"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.MaterializeTotal, err = meter.Int64Counter(
		"stager_materializations_total",
		metric.WithDescription("Total artifacts promoted from the intermediate tree into the canonical tree"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.StagedBytes, err = meter.Int64Histogram(
		"stager_staged_bytes",
		metric.WithDescription("Size of staged artifacts in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(1<<20, 4<<20, 16<<20, 64<<20, 256<<20),
	)
	if err != nil {
		return nil, nil, err
	}

	m.CallbackFailures, err = meter.Int64Counter(
		"stager_callback_failures_total",
		metric.WithDescription("Total callback events that could not be delivered"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

// RecordHTTPRequest records one service API request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		httpStatusAttr(statusCode),
	)
	m.HTTPRequestDuration.Record(ctx, durationSeconds, attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	if statusCode >= 400 {
		m.HTTPErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordRun records one completed run. status is the run outcome
// ("staged", "missing", "skipped", "failed"); source is how the artifact
// was found and is empty unless staged.
func (m *Metrics) RecordRun(ctx context.Context, project, variant, intent, status, source string, durationSeconds float64) {
	attrs := metric.WithAttributes(
		projectAttr(project),
		variantAttr(variant),
		intentAttr(intent),
		statusAttr(status),
		sourceAttr(source),
	)
	m.RunDuration.Record(ctx, durationSeconds, attrs)
	m.RunsTotal.Add(ctx, 1, attrs)

	if status == "failed" {
		m.RunErrorsTotal.Add(ctx, 1, metric.WithAttributes(projectAttr(project), variantAttr(variant)))
	}
}

// RecordMaterialized records an artifact promoted into the canonical tree.
func (m *Metrics) RecordMaterialized(ctx context.Context, project, source string) {
	m.MaterializeTotal.Add(ctx, 1, metric.WithAttributes(projectAttr(project), sourceAttr(source)))
}

// RecordStagedBytes records the size of a staged artifact.
func (m *Metrics) RecordStagedBytes(ctx context.Context, project string, bytes int64) {
	m.StagedBytes.Record(ctx, bytes, WithProject(project))
}

// RecordCallbackFailure records an undeliverable callback event.
func (m *Metrics) RecordCallbackFailure(ctx context.Context, project string) {
	m.CallbackFailures.Add(ctx, 1, WithProject(project))
}

// WriteTextfile writes the current metric values in the Prometheus text
// format, for collection by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
