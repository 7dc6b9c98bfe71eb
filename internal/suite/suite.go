// Package suite models test scopes: named suites with one fixture
// coordinator each, the environment handed to their hooks, and the registry
// that maps dotted hook names to registered functions.
package suite

import (
	"fmt"

	"github.com/rigworks/rig/internal/fixture"
)

// TestFunc is the body of a single test. Setup hooks share the signature:
// both receive the suite environment.
type TestFunc func(*Environment) error

// TeardownFunc is a suite teardown hook. Teardown takes no arguments;
// resources opened by setup reach it through closure capture, not the
// environment.
type TeardownFunc func() error

// Test is one named test inside a suite.
type Test struct {
	Name string
	Fn   TestFunc
}

// Callable adapts the test body to the coordinator's callable contract,
// panic guard included.
func (t Test) Callable() fixture.Callable {
	return asCallable(t.Name, t.Fn)
}

// Suite pairs a named scope with its fixture coordinator and ordered test
// list. One Suite instance exists per scope per run; the coordinator is
// never shared across runs.
type Suite struct {
	name  string
	coord *fixture.Coordinator
	tests []Test
}

// New creates an empty suite with a fresh coordinator.
func New(name string) *Suite {
	return &Suite{
		name:  name,
		coord: fixture.NewCoordinator(name),
	}
}

// Name returns the suite name.
func (s *Suite) Name() string {
	return s.name
}

// Coordinator returns the suite's fixture coordinator.
func (s *Suite) Coordinator() *fixture.Coordinator {
	return s.coord
}

// SetSetup binds the suite's setup callable. Binding twice is a
// configuration error and leaves the original in place.
func (s *Suite) SetSetup(call fixture.Callable) error {
	return s.coord.BindSetup(call)
}

// SetTeardown binds the suite's teardown callable. Binding twice is a
// configuration error and leaves the original in place.
func (s *Suite) SetTeardown(call fixture.Callable) error {
	return s.coord.BindTeardown(call)
}

// AddTest appends a test to the suite's ordered list.
func (s *Suite) AddTest(name string, fn TestFunc) {
	s.tests = append(s.tests, Test{Name: name, Fn: fn})
}

// Tests returns the suite's tests in registration order.
func (s *Suite) Tests() []Test {
	return s.tests
}

// asCallable adapts a typed environment function to the coordinator's
// untyped callable contract. The runner always forwards *Environment, so a
// type mismatch means a wiring bug, not user error.
func asCallable(name string, fn func(*Environment) error) fixture.Callable {
	return fixture.NewFunc(name, func(env any) error {
		e, ok := env.(*Environment)
		if !ok {
			return fmt.Errorf("unexpected environment type %T for %s", env, name)
		}
		return fn(e)
	})
}
