package fixture

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigworks/rig/internal/check"
)

func TestClassifySetup_PlainError(t *testing.T) {
	root := errors.New("db down")

	f := classifySetup("payments", "payments.boot", root)

	assert.Equal(t, OutcomeFailed, f.Outcome)
	// Scope, routine, cause type, raw cause message. Nothing else.
	assert.Equal(t, "suite payments: setup payments.boot failed: *errors.errorString: db down", f.Message)
}

func TestClassifySetup_Inconclusive(t *testing.T) {
	f := classifySetup("payments", "payments.boot", check.Inconclusivef("backend offline"))

	assert.Equal(t, OutcomeInconclusive, f.Outcome)
	assert.Contains(t, f.Message, "check.InconclusiveError")
	assert.Contains(t, f.Message, "backend offline")
}

func TestClassifySetup_AssertionFailureIsFailed(t *testing.T) {
	f := classifySetup("payments", "payments.boot", check.Failf("schema mismatch"))

	// Plain assertion failures are Failed; only the inconclusive kind skips.
	assert.Equal(t, OutcomeFailed, f.Outcome)
	assert.Contains(t, f.Message, "schema mismatch")
}

func TestClassifySetup_UnwrapsOneLevel(t *testing.T) {
	root := check.Inconclusivef("flag disabled")
	wrapped := fmt.Errorf("running payments.boot: %w", root)

	f := classifySetup("payments", "payments.boot", wrapped)

	// Classification sees the cause, not the wrapper.
	assert.Equal(t, OutcomeInconclusive, f.Outcome)
	assert.Contains(t, f.Message, "flag disabled")
	assert.NotContains(t, f.Message, "running payments.boot")

	// The full chain stays reachable for errors.Is.
	assert.ErrorIs(t, f, root)
	assert.Same(t, wrapped, f.Unwrap())
}

func TestClassifySetup_ExistingFailureUnchanged(t *testing.T) {
	prior := &Failure{Outcome: OutcomeInconclusive, Message: "already classified"}

	assert.Same(t, prior, classifySetup("payments", "payments.boot", prior))
	assert.Same(t, prior, classifySetup("payments", "payments.boot", fmt.Errorf("rewrap: %w", prior)))
}

func TestClassifyTeardown_AlwaysFailed(t *testing.T) {
	f := classifyTeardown("uploads", "uploads.halt", check.Inconclusivef("cannot tell"))

	assert.Equal(t, OutcomeFailed, f.Outcome)
	assert.Contains(t, f.Message, "teardown uploads.halt")
}

func TestClassifyTeardown_ExistingFailureUnchanged(t *testing.T) {
	prior := &Failure{Outcome: OutcomeFailed, Message: "already classified"}
	assert.Same(t, prior, classifyTeardown("uploads", "uploads.halt", prior))
}

func TestClassify_TraceCaptured(t *testing.T) {
	f := classifySetup("payments", "payments.boot", errors.New("db down"))

	require.NotEmpty(t, f.Trace)
	found := false
	for _, fr := range f.Trace {
		if strings.Contains(fr.Function, "fixture.") {
			found = true
			assert.NotEmpty(t, fr.File)
			assert.Greater(t, fr.Line, 0)
		}
	}
	assert.True(t, found, "trace should include frames from this package")
}

func TestClassify_PanicTracePointsAtPanicSite(t *testing.T) {
	call := NewFunc("payments.boot", func(any) error {
		explode()
		return nil
	})

	err := Invoke(call, &env{})
	require.Error(t, err)

	f := classifySetup("payments", "payments.boot", err)
	require.NotEmpty(t, f.Trace)

	found := false
	for _, fr := range f.Trace {
		if strings.Contains(fr.Function, "explode") {
			found = true
		}
	}
	assert.True(t, found, "frames should include the panicking function")
}

// explode panics from a named function so the frame is recognizable.
func explode() {
	panic("kaboom")
}

func TestFailure_Error(t *testing.T) {
	f := &Failure{Outcome: OutcomeFailed, Message: "suite s: setup r failed: x"}
	assert.Equal(t, "suite s: setup r failed: x", f.Error())
}

func TestFailure_RenderTrace(t *testing.T) {
	f := &Failure{
		Trace: []Frame{
			{Function: "pkg.fn", File: "pkg/fn.go", Line: 42},
			{Function: "pkg.caller", File: "pkg/caller.go", Line: 7},
		},
	}

	out := f.RenderTrace()
	assert.Contains(t, out, "at pkg.fn (pkg/fn.go:42)")
	assert.Contains(t, out, "at pkg.caller (pkg/caller.go:7)")

	assert.Empty(t, (&Failure{}).RenderTrace())
}

func TestIsFailure(t *testing.T) {
	f := &Failure{Outcome: OutcomeFailed, Message: "x"}

	assert.True(t, IsFailure(f))
	assert.True(t, IsFailure(fmt.Errorf("wrapped: %w", f)))
	assert.False(t, IsFailure(errors.New("plain")))
	assert.False(t, IsFailure(nil))
}

func TestUnderlying(t *testing.T) {
	root := errors.New("root")

	assert.Same(t, root, underlying(root))
	assert.Same(t, root, underlying(fmt.Errorf("wrap: %w", root)))
}
