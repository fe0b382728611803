package api

import (
	"net/http"

	"artifactstager/internal/health"
	"artifactstager/internal/observability"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Watcher       Watcher
	Metrics       *observability.Metrics
	HealthChecker *health.Checker
	APIKey        string
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	handler := NewHandler(cfg.Watcher, cfg.HealthChecker)

	mux := http.NewServeMux()

	// Probes - no auth required
	mux.HandleFunc("GET /livez", handler.Livez)
	mux.HandleFunc("GET /readyz", handler.Readyz)

	auth := AuthMiddleware(cfg.APIKey)
	mux.Handle("GET /v1/report", auth(http.HandlerFunc(handler.LastReport)))
	mux.Handle("GET /v1/stats", auth(http.HandlerFunc(handler.Stats)))
	mux.Handle("POST /v1/stage", auth(http.HandlerFunc(handler.Stage)))

	mws := []Middleware{RecoveryMiddleware(), LoggingMiddleware()}
	if cfg.Metrics != nil {
		mws = append(mws, MetricsMiddleware(cfg.Metrics))
	}
	return chain(mux, mws...)
}
