// stager-service keeps the consumer's staged artifact fresh by re-running
// resolution and staging on an interval.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artifactstager/internal/api"
	"artifactstager/internal/config"
	"artifactstager/internal/fsutil"
	"artifactstager/internal/health"
	"artifactstager/internal/observability"
	"artifactstager/internal/staging"
	"artifactstager/internal/watch"
	"artifactstager/pkg/backoff"
	"artifactstager/pkg/circuitbreaker"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	svcCfg := config.LoadServiceConfig()
	stageCfg, err := config.LoadStagerConfig()
	if err != nil {
		return err
	}
	slog.SetDefault(observability.NewLogger(stageCfg.LogLevel, stageCfg.LogFormat, os.Stdout))

	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}

	runner := staging.NewRunner(stageCfg,
		staging.WithMetrics(metrics),
		staging.WithLogger(slog.Default()),
		staging.WithCallbackBreaker(circuitbreaker.New(circuitbreaker.Config{})),
	)
	watcher := watch.New(runner, watch.Config{
		Interval: svcCfg.Interval,
		Backoff:  backoff.Config{Initial: time.Second, Max: svcCfg.MaxBackoff},
	})

	healthChecker := health.NewChecker(watcher)
	healthChecker.AddOptional("workspace", health.CheckFunc(func(context.Context) error {
		ok, err := fsutil.DirExists(stageCfg.Workspace)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("workspace %s is not a directory", stageCfg.Workspace)
		}
		return nil
	}))

	router := api.NewRouter(api.RouterConfig{
		Watcher:       watcher,
		Metrics:       metrics,
		HealthChecker: healthChecker,
		APIKey:        svcCfg.APIKey,
	})

	if svcCfg.APIKey != "" {
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled - no API_KEY_FILE configured")
	}

	apiServer := &http.Server{
		Addr:         ":" + svcCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", metricsHandler)
	metricsServer := &http.Server{
		Addr:         ":" + svcCfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 2)

	go func() {
		slog.Info("Starting API server", "port", svcCfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	go func() {
		slog.Info("Starting metrics server", "port", svcCfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	watchCtx, stopWatch := context.WithCancel(ctx)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		_ = watcher.Run(watchCtx)
	}()

	shutdown := func(timeout time.Duration) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		stopWatch()
		shutdown(5 * time.Second)
		return err
	}

	// Fail readiness first so load balancers stop routing here.
	healthChecker.SetShuttingDown()
	if svcCfg.ShutdownDrainWait > 0 {
		slog.Info("Waiting for traffic to drain", "duration", svcCfg.ShutdownDrainWait)
		time.Sleep(svcCfg.ShutdownDrainWait)
	}

	// Cancelling stops a walk in progress; a copy already under way completes.
	stopWatch()
	select {
	case <-watchDone:
	case <-time.After(svcCfg.ShutdownTimeout):
		slog.Warn("Watcher did not stop in time")
	}

	slog.Info("Starting graceful shutdown")
	shutdown(svcCfg.ShutdownTimeout)

	stats := watcher.Stats()
	slog.Info("Shutdown complete", "runs", stats.Runs, "staged", stats.Staged, "failures", stats.Failures)
	return nil
}
