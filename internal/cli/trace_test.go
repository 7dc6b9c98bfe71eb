package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigworks/rig/internal/journal"
	"github.com/rigworks/rig/internal/testutil"
)

// seedJournal writes one finished run with a small trace and returns the
// journal path and run token.
func seedJournal(t *testing.T) (string, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "runs.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	clk := testutil.NewDeterministicClock()
	token := "trace-test-run"
	require.NoError(t, j.BeginRun(ctx, journal.Run{
		Token:         token,
		Name:          "nightly",
		EngineVersion: "0.1.0",
		StartedAt:     "2025-01-02T03:04:05Z",
	}))

	_, err = j.WriteEvent(ctx, journal.Event{
		RunToken: token, Suite: "payments", Kind: journal.EventSetupRan, Seq: clk.Next(),
	})
	require.NoError(t, err)

	_, err = j.WriteResult(ctx, journal.Result{
		RunToken: token, Suite: "payments", Test: "charge",
		Outcome: "passed", ElapsedMS: 5, Seq: clk.Next(),
	})
	require.NoError(t, err)

	_, err = j.WriteResult(ctx, journal.Result{
		RunToken: token, Suite: "payments", Test: "refund",
		Outcome: "failed", Message: "card declined", ElapsedMS: 7, Seq: clk.Next(),
	})
	require.NoError(t, err)

	_, err = j.WriteEvent(ctx, journal.Event{
		RunToken: token, Suite: "payments", Kind: journal.EventTeardownOK, Seq: clk.Next(),
	})
	require.NoError(t, err)

	require.NoError(t, j.FinishRun(ctx, token, false, "2025-01-02T03:05:05Z"))
	return path, token
}

func TestTraceShowsLifecycle(t *testing.T) {
	path, token := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, token})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Run: trace-test-run")
	assert.Contains(t, output, "Plan: nightly")
	assert.Contains(t, output, "Verdict: failed")
	assert.Contains(t, output, "[1] payments setup_ran")
	assert.Contains(t, output, "[2] ✓ payments/charge (5ms)")
	assert.Contains(t, output, "[3] ✗ payments/refund (7ms)")
	assert.Contains(t, output, "card declined")
	assert.Contains(t, output, "[4] payments teardown_ok")
}

func TestTraceInFlightRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.BeginRun(context.Background(), journal.Run{
		Token: "open-run", Name: "nightly", EngineVersion: "0.1.0",
		StartedAt: "2025-01-02T03:04:05Z",
	}))
	require.NoError(t, j.Close())

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "open-run"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "Verdict: in flight")
	assert.NotContains(t, output, "Finished:")
	assert.Contains(t, output, "(no events)")
	assert.Contains(t, output, "(no results)")
}

func TestTraceVerifyClean(t *testing.T) {
	path, token := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--verify", path, token})

	err := cmd.Execute()
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "✓ journal intact (2 event(s), 2 result(s))")
}

func TestTraceVerifyTampered(t *testing.T) {
	path, token := seedJournal(t)

	// Rewrite a stored outcome behind the journal's back.
	j, err := journal.Open(path)
	require.NoError(t, err)
	_, err = j.DB().Exec(
		`UPDATE results SET outcome = 'passed' WHERE run_token = ? AND seq = 3`, token)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--verify", path, token})

	err = cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 problem(s)")

	output := buf.String()
	assert.Contains(t, output, "✗ 1 problem(s)")
	assert.Contains(t, output, "result seq 3")
}

func TestTraceUnknownJournal(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/runs.db", "some-token"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal not found")
}

func TestTraceUnknownRun(t *testing.T) {
	path, _ := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "bogus-token"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found: bogus-token")
}

func TestTraceJSON(t *testing.T) {
	path, token := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, token})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)

	run, ok := data["run"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, token, run["token"])

	events, ok := data["events"].([]any)
	require.True(t, ok)
	assert.Len(t, events, 2)

	results, ok := data["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 2)
}

func TestTraceVerboseShowsIDs(t *testing.T) {
	path, token := seedJournal(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Verbose: true}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, token})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "id: ")
}

func TestTraceHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "journaled trace")
	assert.Contains(t, output, "--verify")
}
