// artifact-stager resolves the freshest build artifact of a producer project
// and stages it into the consumer project, once.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"artifactstager/internal/apperrors"
	"artifactstager/internal/config"
	"artifactstager/internal/hooks"
	"artifactstager/internal/observability"
	"artifactstager/internal/staging"
)

func main() {
	// Minimal logger until the configured one is built.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	plan        bool
	checkStaged bool
	jsonReport  bool
	tasks       []string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("artifact-stager", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, `Usage:
  artifact-stager [options] [TASK...]

TASK names are the originally requested build tasks; they are appended to
STAGER_TASKS and decide the build intent.

Options:
`)
		fs.PrintDefaults()
	}
	opts := &options{}
	fs.BoolVar(&opts.plan, "plan", false, "Print how the staging task hooks into the declared task graph and exit.")
	fs.BoolVar(&opts.checkStaged, "check-staged", false, "Exit 0 if the destination file exists, 3 otherwise.")
	fs.BoolVar(&opts.jsonReport, "json", false, "Print the run report as JSON on stdout.")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.tasks = fs.Args()
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperrors.ExitOK
		}
		return apperrors.ExitUsage
	}

	cfg, err := config.LoadStagerConfig()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		return apperrors.ExitCode(err)
	}
	cfg.Tasks = append(cfg.Tasks, opts.tasks...)

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, stderr)
	slog.SetDefault(logger)

	switch {
	case opts.checkStaged:
		return checkStaged(cfg)
	case opts.plan:
		printPlan(stdout, cfg)
		return apperrors.ExitOK
	}

	var runnerOpts []staging.Option
	runnerOpts = append(runnerOpts, staging.WithLogger(logger))

	var metrics *observability.Metrics
	if cfg.MetricsTextfile != "" {
		metrics, _, err = observability.NewMetrics(ctx)
		if err != nil {
			logger.Error("Failed to set up metrics", "error", err)
			return apperrors.ExitFailure
		}
		runnerOpts = append(runnerOpts, staging.WithMetrics(metrics))
	}

	report, runErr := staging.NewRunner(cfg, runnerOpts...).Run(ctx)

	if metrics != nil {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("Failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}
	if opts.jsonReport && report != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Warn("Failed to encode report", "error", err)
		}
	}
	return apperrors.ExitCode(runErr)
}

func checkStaged(cfg *config.StagerConfig) int {
	target := staging.Target{Dir: cfg.StagingPath(), FileName: cfg.FileName}
	if staging.Staged(target) {
		return apperrors.ExitOK
	}
	slog.Info("Destination not staged", "destination", target.Path())
	return apperrors.ExitNotStaged
}

func printPlan(w io.Writer, cfg *config.StagerConfig) {
	g := hooks.FromWorkspace(cfg.File)
	plan := hooks.PlanFor(cfg)
	report := hooks.Register(g, plan)

	fmt.Fprintf(w, "staging task %s\n", report.StageTask)
	for _, h := range report.Hooks {
		fmt.Fprintf(w, "  %s\n", h)
	}

	if len(cfg.Tasks) == 0 {
		return
	}
	requested := make([]string, 0, len(cfg.Tasks))
	for _, t := range cfg.Tasks {
		if !strings.HasPrefix(t, ":") {
			t = hooks.TaskPath(cfg.Consumer, t)
		}
		requested = append(requested, t)
	}
	fmt.Fprintf(w, "execution order for %s\n", strings.Join(requested, " "))
	for i, t := range g.ExecutionOrder(requested...) {
		fmt.Fprintf(w, "  %d. %s\n", i+1, t)
	}
}
