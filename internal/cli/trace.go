package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rigworks/rig/internal/journal"
	"github.com/rigworks/rig/internal/runner"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Verify bool
}

// TraceResult holds the complete trace output for one run.
type TraceResult struct {
	Run     journal.Run           `json:"run"`
	Events  []journal.Event       `json:"events"`
	Results []journal.Result      `json:"results"`
	Verify  *journal.VerifyReport `json:"verify,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <journal.db> <run-token>",
		Short: "Show one run's journaled lifecycle",
		Long: `Show the journaled trace of a single run.

The output interleaves two sections:
- Lifecycle: fixture events (setup verdicts, teardown outcomes, suite
  rollups) in the order the runner recorded them
- Results: per-test outcomes with their diagnostics

With --verify, every stored row's content id is recomputed and compared
with the id written at run time. A mismatch means the row was edited
after the run.

Exit codes:
  0 - Trace printed (and, with --verify, journal intact)
  1 - Verification found tampered rows
  2 - Command error (journal or run not found)

Examples:
  rig trace runs.db 01938d5e-0b5a-7c3e-9f2a-1b2c3d4e5f60
  rig trace runs.db 01938d5e-0b5a-7c3e-9f2a-1b2c3d4e5f60 --verify
  rig trace runs.db 01938d5e-0b5a-7c3e-9f2a-1b2c3d4e5f60 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Verify, "verify", false, "recompute content ids and report tampered rows")

	return cmd
}

func runTrace(opts *TraceOptions, journalPath, runToken string, cmd *cobra.Command) error {
	ctx := context.Background()

	j, err := openJournal(journalPath)
	if err != nil {
		return err
	}
	defer j.Close()

	run, err := j.GetRun(ctx, runToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewExitError(ExitCommandError, fmt.Sprintf("run not found: %s", runToken))
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	events, err := j.Trace(ctx, runToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	results, err := j.Results(ctx, runToken)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read results", err)
	}

	result := TraceResult{Run: run, Events: events, Results: results}

	if opts.Verify {
		report, err := j.Verify(ctx, runToken)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to verify journal", err)
		}
		result.Verify = &report
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// openJournal opens an existing journal, refusing to create a fresh one at
// a mistyped path.
func openJournal(path string) (*journal.Journal, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", path))
	}

	j, err := journal.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return j, nil
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{Status: "ok", Data: result}

	if result.Verify != nil && !result.Verify.OK() {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_VERIFY_FAILED",
			Message: fmt.Sprintf("%d tampered row(s)", len(result.Verify.Problems)),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Verify != nil && !result.Verify.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("journal verification found %d problem(s)", len(result.Verify.Problems)))
	}
	return nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Run: %s\n", result.Run.Token)
	fmt.Fprintf(w, "Plan: %s\n", result.Run.Name)
	fmt.Fprintf(w, "Engine: %s\n", result.Run.EngineVersion)
	fmt.Fprintf(w, "Started: %s\n", result.Run.StartedAt)
	if result.Run.FinishedAt != "" {
		fmt.Fprintf(w, "Finished: %s\n", result.Run.FinishedAt)
	}
	fmt.Fprintf(w, "Verdict: %s\n", runVerdict(result.Run))
	fmt.Fprintln(w)

	// Lifecycle section
	fmt.Fprintln(w, "=== Lifecycle ===")
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "  (no events)")
	} else {
		for _, ev := range result.Events {
			formatTraceEvent(w, ev, verbose)
		}
	}
	fmt.Fprintln(w)

	// Results section
	fmt.Fprintln(w, "=== Results ===")
	if len(result.Results) == 0 {
		fmt.Fprintln(w, "  (no results)")
	} else {
		for _, res := range result.Results {
			formatTraceResult(w, res, verbose)
		}
	}

	// Verify section
	if result.Verify != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Verify ===")
		if result.Verify.OK() {
			fmt.Fprintf(w, "  ✓ journal intact (%d event(s), %d result(s))\n",
				result.Verify.Events, result.Verify.Results)
		} else {
			fmt.Fprintf(w, "  ✗ %d problem(s)\n", len(result.Verify.Problems))
			for _, p := range result.Verify.Problems {
				fmt.Fprintf(w, "    %s\n", p)
			}
			return NewExitError(ExitFailure, fmt.Sprintf("journal verification found %d problem(s)", len(result.Verify.Problems)))
		}
	}

	return nil
}

// formatTraceEvent formats a single lifecycle event for text output.
func formatTraceEvent(w io.Writer, ev journal.Event, verbose bool) {
	fmt.Fprintf(w, "  [%d] %s %s\n", ev.Seq, ev.Suite, ev.Kind)
	if ev.Detail != "" {
		fmt.Fprintf(w, "      %s\n", ev.Detail)
	}
	if verbose {
		fmt.Fprintf(w, "      id: %s\n", truncateID(ev.ID))
	}
}

// formatTraceResult formats a single test result for text output.
func formatTraceResult(w io.Writer, res journal.Result, verbose bool) {
	fmt.Fprintf(w, "  [%d] %s %s/%s (%dms)\n",
		res.Seq, outcomeMark(res.Outcome), res.Suite, res.Test, res.ElapsedMS)
	if res.Message != "" {
		fmt.Fprintf(w, "      %s\n", res.Message)
	}
	if verbose {
		fmt.Fprintf(w, "      id: %s\n", truncateID(res.ID))
	}
}

// outcomeMark maps a stored outcome string to its report symbol.
func outcomeMark(outcome string) string {
	switch runner.TestOutcome(outcome) {
	case runner.OutcomePassed:
		return "✓"
	case runner.OutcomeFailed:
		return "✗"
	case runner.OutcomeSkipped:
		return "-"
	case runner.OutcomeInconclusive:
		return "?"
	}
	return "?"
}

// runVerdict returns a human-readable verdict for a run row.
func runVerdict(run journal.Run) string {
	if run.Pass == nil {
		return "in flight"
	}
	if *run.Pass {
		return "passed"
	}
	return "failed"
}

// truncateID truncates a long content id for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
