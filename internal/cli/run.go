package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rigworks/rig/internal/journal"
	"github.com/rigworks/rig/internal/manifest"
	"github.com/rigworks/rig/internal/runner"
	"github.com/rigworks/rig/internal/suite"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal      string
	Parallelism  int
	MaxFailures  int
	TeardownMode string

	// Registry allows overriding the hook registry (for testing).
	// If nil, defaults to the process-global registry.
	Registry *suite.Registry

	// Tokens allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens runner.TokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <plan.yaml>",
		Short: "Execute a run plan",
		Long: `Execute a run plan against the registered hooks.

Suites run in plan order. Within a suite, tests run on a worker pool;
the suite's setup hook runs exactly once no matter how many workers
race into it, and its verdict is shared by every test. Teardown runs
after the last test, in the suite's configured mode.

Flags override the plan: --parallel and --max-failures replace the
plan's values, --teardown forces every suite's teardown mode.

Exit codes:
  0 - Run passed
  1 - Run failed (failed tests or a strict teardown failure)
  2 - Command error (bad plan, unknown hooks, journal not writable)

Examples:
  rig run plans/nightly.yaml
  rig run plans/nightly.yaml --journal runs.db
  rig run plans/nightly.yaml --parallel 1 --teardown strict
  rig run plans/nightly.yaml --max-failures 5 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to SQLite journal (empty = no journal)")
	cmd.Flags().IntVar(&opts.Parallelism, "parallel", 0, "per-suite worker count (overrides the plan)")
	cmd.Flags().IntVar(&opts.MaxFailures, "max-failures", 0, "failure budget, 0 = unlimited (overrides the plan)")
	cmd.Flags().StringVar(&opts.TeardownMode, "teardown", "", "teardown mode for every suite (lenient|strict)")

	return cmd
}

func runPlan(opts *RunOptions, planPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)

	plan, err := manifest.Load(planPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load plan", err)
	}

	if err := applyPlanOverrides(plan, opts, cmd); err != nil {
		return err
	}

	registry := opts.Registry
	if registry == nil {
		registry = suite.Default()
	}

	sessionOpts := []runner.SessionOption{runner.WithLogger(logger)}
	if opts.Tokens != nil {
		sessionOpts = append(sessionOpts, runner.WithTokens(opts.Tokens))
	}

	// Open journal (create if not exists)
	if opts.Journal != "" {
		logger.Info("opening journal", "path", opts.Journal)
		j, err := journal.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if closeErr := j.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		sessionOpts = append(sessionOpts, runner.WithJournal(j))
	}

	session := runner.NewSession(registry, sessionOpts...)

	// Setup signal handling so Ctrl-C skips the remaining tests instead of
	// killing the process mid-suite.
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, cancelling run", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	report, err := session.Run(ctx, plan)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start run", err)
	}

	if opts.Format == "json" {
		return outputRunJSON(cmd, report)
	}
	return outputRunText(cmd, report)
}

// applyPlanOverrides folds command-line overrides into the loaded plan.
func applyPlanOverrides(plan *manifest.Plan, opts *RunOptions, cmd *cobra.Command) error {
	if cmd.Flags().Changed("parallel") {
		plan.Parallelism = opts.Parallelism
	}
	if cmd.Flags().Changed("max-failures") {
		plan.MaxFailures = opts.MaxFailures
	}

	if opts.TeardownMode != "" {
		if err := runner.ValidateTeardownMode(opts.TeardownMode); err != nil {
			return WrapExitError(ExitCommandError, "invalid --teardown", err)
		}
		// Only suites that declare a teardown hook carry a mode.
		for i := range plan.Suites {
			if plan.Suites[i].Teardown != "" {
				plan.Suites[i].TeardownMode = opts.TeardownMode
			}
		}
	}

	return nil
}

// outputRunJSON outputs the run report as JSON.
func outputRunJSON(cmd *cobra.Command, report *runner.Report) error {
	response := CLIResponse{Status: "ok", Data: report}

	if !report.Pass {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_RUN_FAILED",
			Message: failSummary(report),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !report.Pass {
		// Run failures = exit code 1
		return NewExitError(ExitFailure, failSummary(report))
	}
	return nil
}

// outputRunText renders the human-readable report.
func outputRunText(cmd *cobra.Command, report *runner.Report) error {
	report.Render(cmd.OutOrStdout())

	if !report.Pass {
		// Run failures = exit code 1
		return NewExitError(ExitFailure, failSummary(report))
	}
	return nil
}

// failSummary describes why a report failed, for exit messages.
func failSummary(report *runner.Report) string {
	if report.Counts.Failed > 0 {
		return fmt.Sprintf("%d test(s) failed", report.Counts.Failed)
	}
	return "suite teardown failed"
}
