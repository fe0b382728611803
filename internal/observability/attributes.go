// Package observability provides staging metrics exported through Prometheus.
package observability

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys
const (
	attrProject = "project"
	attrVariant = "variant"
	attrStatus  = "status"
	attrSource  = "source"
	attrIntent  = "intent"

	attrMethod     = "method"
	attrPath       = "path"
	attrHTTPStatus = "status_code"
)

func methodAttr(method string) attribute.KeyValue {
	return attribute.String(attrMethod, method)
}

func pathAttr(path string) attribute.KeyValue {
	return attribute.String(attrPath, path)
}

func httpStatusAttr(code int) attribute.KeyValue {
	return attribute.Int(attrHTTPStatus, code)
}

func projectAttr(project string) attribute.KeyValue {
	return attribute.String(attrProject, normalizeProject(project))
}

func variantAttr(variant string) attribute.KeyValue {
	return attribute.String(attrVariant, variant)
}

func statusAttr(status string) attribute.KeyValue {
	return attribute.String(attrStatus, status)
}

func sourceAttr(source string) attribute.KeyValue {
	if source == "" {
		source = "none"
	}
	return attribute.String(attrSource, source)
}

func intentAttr(intent string) attribute.KeyValue {
	return attribute.String(attrIntent, intent)
}

// normalizeProject strips the build path prefix so ":app_skin" and
// "app_skin" share one series.
func normalizeProject(project string) string {
	for len(project) > 0 && project[0] == ':' {
		project = project[1:]
	}
	if project == "" {
		return "unknown"
	}
	return project
}

// WithProject returns a metric option with the project attribute.
func WithProject(project string) metric.MeasurementOption {
	return metric.WithAttributes(projectAttr(project))
}

// WithStatus returns a metric option with the status attribute.
func WithStatus(status string) metric.MeasurementOption {
	return metric.WithAttributes(statusAttr(status))
}
