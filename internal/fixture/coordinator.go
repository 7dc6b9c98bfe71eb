package fixture

import (
	"sync"
	"sync/atomic"

	"github.com/rigworks/rig/internal/check"
)

// Coordinator guards one suite's setup and teardown lifecycle.
//
// At most one setup and one teardown routine may be bound, each exactly once.
// EnsureSetupRan gives every caller the exactly-once guarantee: the setup
// routine runs once, its verdict is cached forever, and concurrent callers
// block until the verdict exists.
//
// INVARIANTS:
//   - ran true implies the setup routine, if bound, was invoked exactly once
//   - failure is written at most once and never cleared or replaced
//   - failure is written before ran is stored (release/acquire pairing with
//     the fast-path load)
//   - setup slow path and both teardown paths hold the same mutex
//
// Coordinators are per suite, never shared across suites or reused for a
// second run of the same suite.
type Coordinator struct {
	scope string

	// mu serializes the setup slow path and both teardown paths.
	mu       sync.Mutex
	setup    Callable
	teardown Callable

	// ran is the lock-free fast path flag. It is stored only after failure
	// is written, so a true load guarantees the verdict is visible.
	ran     atomic.Bool
	failure *Failure
}

// NewCoordinator creates a Coordinator for the named suite scope.
func NewCoordinator(scope string) *Coordinator {
	return &Coordinator{scope: scope}
}

// Scope returns the suite name the coordinator guards.
func (c *Coordinator) Scope() string {
	return c.scope
}

// BindSetup registers the suite's setup routine.
//
// A second bind is a configuration error and leaves the original routine in
// place. Bind before the first EnsureSetupRan; see the package doc for the
// thread-safety model.
func (c *Coordinator) BindSetup(call Callable) error {
	if call == nil {
		return NewNilCallableError(c.scope, "setup")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.setup != nil {
		return NewSetupReboundError(c.scope, c.setup.Name())
	}
	c.setup = call
	return nil
}

// BindTeardown registers the suite's teardown routine.
//
// A second bind is a configuration error and leaves the original routine in
// place.
func (c *Coordinator) BindTeardown(call Callable) error {
	if call == nil {
		return NewNilCallableError(c.scope, "teardown")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.teardown != nil {
		return NewTeardownReboundError(c.scope, c.teardown.Name())
	}
	c.teardown = call
	return nil
}

// EnsureSetupRan makes sure the suite's setup has run before the caller
// proceeds. Safe to call from any number of goroutines; every caller gets
// the same verdict.
//
// Returns nil when no setup is bound or setup succeeded. Returns the cached
// *Failure when setup failed, the identical value on every call. Returns a
// ConfigError when env is nil; that check precedes everything else and does
// not consume the setup.
//
// The first caller invokes the routine while holding the mutex; concurrent
// callers block on the mutex and observe the cached verdict after re-checking
// the flag. Later callers skip the mutex entirely.
func (c *Coordinator) EnsureSetupRan(env any) error {
	if env == nil {
		return NewNilEnvironmentError(c.scope)
	}

	if c.setup == nil {
		return nil
	}

	// Fast path: verdict already exists. failure was written before the
	// flag store, so no lock is needed to read it.
	if c.ran.Load() {
		return c.verdict()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check under the lock: another caller may have finished setup while
	// we waited.
	if !c.ran.Load() {
		if err := Invoke(c.setup, env); err != nil {
			c.failure = classifySetup(c.scope, c.setup.Name(), err)
		}
		// Flag last. invoke never panics through, so the store is
		// unconditional even for misbehaving routines.
		c.ran.Store(true)
	}

	return c.verdict()
}

// verdict returns the cached failure as an error, or nil. Callers must hold
// the mutex or have observed ran true.
func (c *Coordinator) verdict() error {
	if f := c.failure; f != nil {
		return f
	}
	return nil
}

// RunTeardown invokes the teardown routine leniently.
//
// It never returns an error: a teardown failure comes back as a non-empty
// diagnostic with ok false, for the caller to report at warning level.
// Returns ("", true) when no teardown is bound or it succeeded.
//
// Assertion-style errors contribute their message verbatim; any other error
// is formatted the same way setup failures are. Each call invokes the
// routine again; there is no ran gate.
func (c *Coordinator) RunTeardown() (diag string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.teardown == nil {
		return "", true
	}

	err := Invoke(c.teardown, nil)
	if err == nil {
		return "", true
	}

	real := underlying(err)
	if check.IsAssertion(real) {
		return real.Error(), false
	}
	return failureMessage(c.scope, "teardown", c.teardown.Name(), real), false
}

// RunTeardownStrict invokes the teardown routine and surfaces a failure as
// an error. The returned *Failure is always OutcomeFailed; teardown has no
// inconclusive verdict. Returns nil when no teardown is bound or it
// succeeded.
func (c *Coordinator) RunTeardownStrict() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.teardown == nil {
		return nil
	}

	if err := Invoke(c.teardown, nil); err != nil {
		return classifyTeardown(c.scope, c.teardown.Name(), err)
	}
	return nil
}

// TeardownBound reports whether a teardown routine is bound.
func (c *Coordinator) TeardownBound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.teardown != nil
}

// SetupRan reports whether the setup phase has completed, successfully or
// not. False when no setup is bound, no matter how often EnsureSetupRan was
// called.
func (c *Coordinator) SetupRan() bool {
	return c.ran.Load()
}

// SetupFailure returns the cached setup failure, or nil when setup has not
// run or succeeded. The same value is returned on every call.
func (c *Coordinator) SetupFailure() *Failure {
	if !c.ran.Load() {
		return nil
	}
	return c.failure
}
