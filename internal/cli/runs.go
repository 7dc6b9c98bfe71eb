package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rigworks/rig/internal/journal"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs <journal.db>",
		Short: "List journaled runs",
		Long: `List every run recorded in a journal, oldest first.

Run tokens are UUIDv7, so the listing doubles as a chronology: tokens
sort by start time. Runs without a verdict are still in flight (or were
interrupted before the runner could stamp one).

Examples:
  rig runs runs.db
  rig runs runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runRuns(opts *RootOptions, journalPath string, cmd *cobra.Command) error {
	j, err := openJournal(journalPath)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.Runs(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		return outputRunsJSON(cmd, runs)
	}
	return outputRunsText(cmd, runs)
}

// outputRunsJSON outputs the run listing as JSON.
func outputRunsJSON(cmd *cobra.Command, runs []journal.Run) error {
	response := CLIResponse{Status: "ok", Data: runs}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputRunsText renders the run listing as a table.
func outputRunsText(cmd *cobra.Command, runs []journal.Run) error {
	w := cmd.OutOrStdout()

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Token", "Plan", "Engine", "Started", "Verdict")
	for _, run := range runs {
		table.Append(run.Token, run.Name, run.EngineVersion, run.StartedAt, runVerdict(run))
	}
	table.Render()

	return nil
}
