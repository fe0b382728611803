package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()
	metrics, handler, err := NewMetrics(context.Background())
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	if metrics == nil {
		t.Fatal("Expected metrics to be non-nil")
	}

	if handler == nil {
		t.Fatal("Expected handler to be non-nil")
	}
}

func TestRecordRunExposed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	metrics, handler, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}

	metrics.RecordRun(ctx, ":app_skin", "debug", "explicit", "staged", "canonical", 0.02)
	metrics.RecordRun(ctx, "app_skin", "debug", "implicit", "missing", "", 0.01)
	metrics.RecordRun(ctx, "app_skin", "debug", "explicit", "failed", "", 0.01)
	metrics.RecordMaterialized(ctx, "app_skin", "materialized-early")
	metrics.RecordStagedBytes(ctx, "app_skin", 2<<20)
	metrics.RecordCallbackFailure(ctx, "app_skin")
	metrics.RecordHTTPRequest(ctx, "POST", "/v1/stage", 401, 0.001)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		"stager_runs_total",
		"stager_run_errors_total",
		"stager_materializations_total",
		"stager_callback_failures_total",
		`project="app_skin"`,
		`source="none"`,
		"http_errors_total",
		`status_code="401"`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	metrics, _, err := NewMetrics(ctx)
	if err != nil {
		t.Fatalf("Failed to create metrics: %v", err)
	}
	metrics.RecordRun(ctx, "app_skin", "debug", "explicit", "staged", "canonical", 0.5)

	path := filepath.Join(t.TempDir(), "stager.prom")
	if err := metrics.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), "stager_run_duration_seconds") {
		t.Errorf("textfile missing run duration histogram:\n%s", data)
	}
}

func TestNormalizeProject(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    string
		expected string
	}{
		{":app_skin", "app_skin"},
		{"app_skin", "app_skin"},
		{"::nested", "nested"},
		{"", "unknown"},
		{":", "unknown"},
	}

	for _, tt := range tests {
		result := normalizeProject(tt.input)
		if result != tt.expected {
			t.Errorf("normalizeProject(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}
