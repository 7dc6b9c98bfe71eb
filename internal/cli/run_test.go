package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigworks/rig/internal/check"
	"github.com/rigworks/rig/internal/journal"
	"github.com/rigworks/rig/internal/suite"
)

var cliHooksOnce sync.Once

// registerCLIHooks seeds the process-global registry with the hooks the
// command tests reference from their plans. The hooks are stateless, so
// repeated runs in one process behave identically.
func registerCLIHooks() {
	cliHooksOnce.Do(func() {
		_ = suite.RegisterSetup("cli.boot", func(e *suite.Environment) error {
			e.Set("db", "conn-1")
			return nil
		})
		_ = suite.RegisterSetup("cli.badboot", func(e *suite.Environment) error {
			return errors.New("connect refused")
		})
		_ = suite.RegisterTeardown("cli.halt", func() error { return nil })
		_ = suite.RegisterTeardown("cli.badhalt", func() error {
			return check.Failf("disk full")
		})
		_ = suite.RegisterTest("cli.charge", func(e *suite.Environment) error {
			if _, ok := e.Lookup("db"); !ok {
				return errors.New("setup value missing")
			}
			return nil
		})
		_ = suite.RegisterTest("cli.refund", func(e *suite.Environment) error { return nil })
		_ = suite.RegisterTest("cli.declined", func(e *suite.Environment) error {
			return errors.New("card declined")
		})
	})
}

const passingPlanYAML = `
run: cli-test
suites:
  - name: payments
    setup: cli.boot
    teardown: cli.halt
    tests:
      - cli.charge
      - cli.refund
`

func TestRunPassingPlan(t *testing.T) {
	registerCLIHooks()
	planPath := writePlan(t, "plan.yaml", passingPlanYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "suite payments")
	assert.Contains(t, output, "✓ cli.charge")
	assert.Contains(t, output, "✓ cli.refund")
	assert.Contains(t, output, "✓ Run passed")
}

func TestRunFailingPlan(t *testing.T) {
	registerCLIHooks()
	planPath := writePlan(t, "plan.yaml", `
run: cli-test
suites:
  - name: payments
    tests:
      - cli.declined
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 test(s) failed")

	output := buf.String()
	assert.Contains(t, output, "✗ cli.declined")
	assert.Contains(t, output, "card declined")
	assert.Contains(t, output, "✗ Run failed")
}

func TestRunSetupFailurePropagates(t *testing.T) {
	registerCLIHooks()
	planPath := writePlan(t, "plan.yaml", `
run: cli-test
suites:
  - name: payments
    setup: cli.badboot
    tests:
      - cli.refund
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output,
		"setup failed: suite payments: setup cli.badboot failed: *errors.errorString: connect refused")
}

func TestRunUnknownHook(t *testing.T) {
	registerCLIHooks()
	planPath := writePlan(t, "plan.yaml", `
run: cli-test
suites:
  - name: payments
    tests:
      - cli.missing
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to start run")
	assert.Contains(t, err.Error(), `unknown test hook "cli.missing"`)
}

func TestRunMissingPlanFile(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"/nonexistent/plan.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load plan")
}

func TestRunLenientTeardownWarns(t *testing.T) {
	registerCLIHooks()
	planPath := writePlan(t, "plan.yaml", `
run: cli-test
suites:
  - name: payments
    teardown: cli.badhalt
    tests:
      - cli.refund
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{planPath})

	// Lenient is the default mode: the run still passes.
	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "teardown warning: disk full")
	assert.Contains(t, output, "✓ Run passed")
}

func TestRunTeardownStrictOverride(t *testing.T) {
	registerCLIHooks()
	planPath := writePlan(t, "plan.yaml", `
run: cli-test
suites:
  - name: payments
    teardown: cli.badhalt
    tests:
      - cli.refund
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--teardown", "strict", planPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "teardown failed:")
	assert.Contains(t, output, "disk full")
	assert.Contains(t, output, "✗ Run failed")
}

func TestRunInvalidTeardownFlag(t *testing.T) {
	registerCLIHooks()
	planPath := writePlan(t, "plan.yaml", passingPlanYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--teardown", "forgiving", planPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --teardown")
}

func TestRunWritesJournal(t *testing.T) {
	registerCLIHooks()
	planPath := writePlan(t, "plan.yaml", passingPlanYAML)
	journalPath := filepath.Join(t.TempDir(), "runs.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--journal", journalPath, planPath})

	require.NoError(t, cmd.Execute())

	j, err := journal.Open(journalPath)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	runs, err := j.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "cli-test", runs[0].Name)
	require.NotNil(t, runs[0].Pass)
	assert.True(t, *runs[0].Pass)

	events, err := j.Trace(ctx, runs[0].Token)
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	results, err := j.Results(ctx, runs[0].Token)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRunJSON(t *testing.T) {
	registerCLIHooks()
	planPath := writePlan(t, "plan.yaml", passingPlanYAML)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["pass"])
}

func TestRunJSONFailure(t *testing.T) {
	registerCLIHooks()
	planPath := writePlan(t, "plan.yaml", `
run: cli-test
suites:
  - name: payments
    tests:
      - cli.declined
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{planPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_RUN_FAILED", resp.Error.Code)
}

func TestRunHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Execute a run plan")
	assert.Contains(t, output, "--journal")
	assert.Contains(t, output, "--teardown")
}
