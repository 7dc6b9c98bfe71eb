package fixture

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/rigworks/rig/internal/check"
)

// Outcome classifies a lifecycle failure.
type Outcome string

const (
	// OutcomeFailed marks a setup or teardown error that fails dependent tests.
	OutcomeFailed Outcome = "failed"

	// OutcomeInconclusive marks a setup error of the inconclusive kind.
	// Dependent tests are skipped rather than failed.
	OutcomeInconclusive Outcome = "inconclusive"
)

// Frame is one entry of a captured call stack.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Failure is the verdict of a failed lifecycle routine.
//
// A Failure is immutable once built. For setup, the coordinator caches the
// first Failure and returns the identical value to every caller; nothing
// ever clears or replaces it. The originating error stays reachable through
// Unwrap for chaining, but is never surfaced raw.
type Failure struct {
	// Outcome is Failed or Inconclusive.
	Outcome Outcome

	// Message names the suite, the routine, the underlying error's type and
	// its raw message.
	Message string

	// Trace is the call stack captured when the failure was classified.
	// For recovered panics the frames point at the panic site.
	Trace []Frame

	cause error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return f.Message
}

// Unwrap exposes the originating error for errors.Is/As chains.
func (f *Failure) Unwrap() error {
	return f.cause
}

// Inconclusive returns true when the failure should skip dependent tests
// instead of failing them.
func (f *Failure) Inconclusive() bool {
	return f.Outcome == OutcomeInconclusive
}

// RenderTrace formats the captured frames one per line, innermost first.
// Returns "" when no trace was captured.
func (f *Failure) RenderTrace() string {
	if len(f.Trace) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, fr := range f.Trace {
		fmt.Fprintf(&buf, "  at %s (%s:%d)\n", fr.Function, fr.File, fr.Line)
	}
	return buf.String()
}

// IsFailure returns true if the error is a lifecycle failure.
// Uses errors.As to handle wrapped errors.
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// maxFrames bounds captured stacks.
const maxFrames = 32

// captureFrames records the current call stack. skip counts frames above the
// caller to omit, not counting captureFrames itself.
func captureFrames(skip int) []Frame {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(pcs[:n])
	out := make([]Frame, 0, n)
	for {
		fr, more := frames.Next()
		out = append(out, Frame{Function: fr.Function, File: fr.File, Line: fr.Line})
		if !more {
			break
		}
	}
	return out
}

// underlying unwraps one level of error chaining. Callables that wrap their
// root cause with fmt.Errorf report the cause, not the wrapper.
func underlying(err error) error {
	if inner := errors.Unwrap(err); inner != nil {
		return inner
	}
	return err
}

// failureMessage builds the canonical failure message: suite, routine, the
// underlying error's type name and its raw message. The error is never
// rendered through a generic error-to-string prefix.
func failureMessage(scope, role, routine string, real error) string {
	return fmt.Sprintf("suite %s: %s %s failed: %T: %s", scope, role, routine, real, real.Error())
}

// classifySetup turns a setup error into the Failure cached for the suite.
//
// An error that already is a Failure, wrapped or not, is returned unchanged
// so verdicts are never double-wrapped. Otherwise the error is unwrapped one
// level; the inconclusive kind maps to OutcomeInconclusive and everything
// else to OutcomeFailed.
func classifySetup(scope, routine string, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	real := underlying(err)
	outcome := OutcomeFailed
	if check.IsInconclusive(real) {
		outcome = OutcomeInconclusive
	}
	return newFailure(outcome, scope, "setup", routine, real, err)
}

// classifyTeardown turns a teardown error into a Failure. Teardown failures
// are always OutcomeFailed; there is no inconclusive teardown. An existing
// Failure is returned unchanged, as in classifySetup.
func classifyTeardown(scope, routine string, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return newFailure(OutcomeFailed, scope, "teardown", routine, underlying(err), err)
}

// newFailure assembles a Failure, preferring the panic-site stack when the
// cause is a recovered panic.
func newFailure(outcome Outcome, scope, role, routine string, real, cause error) *Failure {
	trace := panicFrames(cause)
	if trace == nil {
		trace = captureFrames(2)
	}
	return &Failure{
		Outcome: outcome,
		Message: failureMessage(scope, role, routine, real),
		Trace:   trace,
		cause:   cause,
	}
}

// panicFrames returns the stack a recovered panic carried, or nil.
func panicFrames(err error) []Frame {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe.frames
	}
	return nil
}
