// Package api provides the HTTP handlers and routing for the stager service.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"artifactstager/internal/health"
	"artifactstager/internal/staging"
	"artifactstager/internal/watch"
)

// Watcher is the part of watch.Watcher the API exposes.
type Watcher interface {
	Last() *staging.Report
	Stats() watch.Stats
	Trigger()
}

// Handler contains HTTP handlers for the stager API.
type Handler struct {
	watcher Watcher
	health  *health.Checker
}

// NewHandler creates a new API handler.
func NewHandler(w Watcher, healthChecker *health.Checker) *Handler {
	return &Handler{watcher: w, health: healthChecker}
}

// StatsResponse is the body of GET /v1/stats.
type StatsResponse struct {
	Runs     int64 `json:"runs"`
	Staged   int64 `json:"staged"`
	Failures int64 `json:"failures"`
}

// LastReport handles GET /v1/report.
func (h *Handler) LastReport(w http.ResponseWriter, r *http.Request) {
	report := h.watcher.Last()
	if report == nil {
		h.writeError(w, http.StatusNotFound, "No staging run has completed yet")
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// Stats handles GET /v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	s := h.watcher.Stats()
	h.writeJSON(w, http.StatusOK, StatsResponse{Runs: s.Runs, Staged: s.Staged, Failures: s.Failures})
}

// Stage handles POST /v1/stage. The run happens asynchronously on the
// watcher loop.
func (h *Handler) Stage(w http.ResponseWriter, r *http.Request) {
	h.watcher.Trigger()
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// Livez handles GET /livez - liveness probe.
func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.health.Liveness(r.Context()))
}

// Readyz handles GET /readyz - readiness probe.
// Returns 503 until an artifact has been staged.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	response := h.health.Readiness(r.Context())

	status := http.StatusOK
	if response.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	writeProblem(w, status, message)
}
