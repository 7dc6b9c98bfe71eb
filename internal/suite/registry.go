package suite

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rigworks/rig/internal/fixture"
)

// DuplicateHookError indicates a second registration under a name that is
// already taken. The original registration stays in effect.
type DuplicateHookError struct {
	Kind string // "setup", "teardown", or "test"
	Name string
}

func (e *DuplicateHookError) Error() string {
	return fmt.Sprintf("duplicate %s registration %q", e.Kind, e.Name)
}

// IsDuplicateHook reports whether err is a DuplicateHookError.
func IsDuplicateHook(err error) bool {
	var dup *DuplicateHookError
	return errors.As(err, &dup)
}

// UnknownHookError indicates a resolution miss: a plan referenced a hook
// name nothing registered.
type UnknownHookError struct {
	Kind string
	Name string
}

func (e *UnknownHookError) Error() string {
	return fmt.Sprintf("unknown %s hook %q", e.Kind, e.Name)
}

// IsUnknownHook reports whether err is an UnknownHookError.
func IsUnknownHook(err error) bool {
	var unknown *UnknownHookError
	return errors.As(err, &unknown)
}

// Registry maps dotted hook names ("payments.boot") to registered setup,
// teardown, and test functions. It holds discovery state only: coordinators
// are created per run per suite, never process-global.
//
// Thread-safety: all methods are safe for concurrent use. Registration
// typically happens from init funcs before any run starts.
type Registry struct {
	mu        sync.Mutex
	setups    map[string]TestFunc
	teardowns map[string]TeardownFunc
	tests     map[string]TestFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		setups:    make(map[string]TestFunc),
		teardowns: make(map[string]TeardownFunc),
		tests:     make(map[string]TestFunc),
	}
}

// RegisterSetup registers a suite setup under name.
func (r *Registry) RegisterSetup(name string, fn TestFunc) error {
	return r.register(r.setups, "setup", name, fn)
}

// RegisterTeardown registers a suite teardown under name. Teardown hooks
// are niladic; see TeardownFunc.
func (r *Registry) RegisterTeardown(name string, fn TeardownFunc) error {
	if name == "" {
		return fmt.Errorf("empty teardown hook name")
	}
	if fn == nil {
		return fmt.Errorf("nil teardown hook %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.teardowns[name]; exists {
		return &DuplicateHookError{Kind: "teardown", Name: name}
	}
	r.teardowns[name] = fn
	return nil
}

// RegisterTest registers a test body under name.
func (r *Registry) RegisterTest(name string, fn TestFunc) error {
	return r.register(r.tests, "test", name, fn)
}

func (r *Registry) register(table map[string]TestFunc, kind, name string, fn TestFunc) error {
	if name == "" {
		return fmt.Errorf("empty %s hook name", kind)
	}
	if fn == nil {
		return fmt.Errorf("nil %s hook %q", kind, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := table[name]; exists {
		return &DuplicateHookError{Kind: kind, Name: name}
	}
	table[name] = fn
	return nil
}

// ResolveSetup returns the setup registered under name.
func (r *Registry) ResolveSetup(name string) (TestFunc, error) {
	return r.resolve(r.setups, "setup", name)
}

// ResolveTeardown returns the teardown registered under name.
func (r *Registry) ResolveTeardown(name string) (TeardownFunc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn, ok := r.teardowns[name]
	if !ok {
		return nil, &UnknownHookError{Kind: "teardown", Name: name}
	}
	return fn, nil
}

// ResolveTest returns the test body registered under name.
func (r *Registry) ResolveTest(name string) (TestFunc, error) {
	return r.resolve(r.tests, "test", name)
}

func (r *Registry) resolve(table map[string]TestFunc, kind, name string) (TestFunc, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn, ok := table[name]
	if !ok {
		return nil, &UnknownHookError{Kind: kind, Name: name}
	}
	return fn, nil
}

// BuildSuite assembles a Suite from registered hooks. Empty setup and
// teardown names mean the suite runs without that hook. Every test name
// must resolve.
func (r *Registry) BuildSuite(name, setupName, teardownName string, testNames []string) (*Suite, error) {
	s := New(name)

	if setupName != "" {
		fn, err := r.ResolveSetup(setupName)
		if err != nil {
			return nil, err
		}
		if err := s.SetSetup(asCallable(setupName, fn)); err != nil {
			return nil, err
		}
	}

	if teardownName != "" {
		fn, err := r.ResolveTeardown(teardownName)
		if err != nil {
			return nil, err
		}
		// Teardown is invoked without an environment, so the niladic
		// adapter applies, not asCallable.
		if err := s.SetTeardown(fixture.NewNiladic(teardownName, fn)); err != nil {
			return nil, err
		}
	}

	for _, testName := range testNames {
		fn, err := r.ResolveTest(testName)
		if err != nil {
			return nil, err
		}
		s.AddTest(testName, fn)
	}

	return s, nil
}

// defaultRegistry backs the package-level Register* funcs so embedding
// binaries can register hooks from init.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// RegisterSetup registers a setup in the default registry.
func RegisterSetup(name string, fn TestFunc) error {
	return defaultRegistry.RegisterSetup(name, fn)
}

// RegisterTeardown registers a teardown in the default registry.
func RegisterTeardown(name string, fn TeardownFunc) error {
	return defaultRegistry.RegisterTeardown(name, fn)
}

// RegisterTest registers a test in the default registry.
func RegisterTest(name string, fn TestFunc) error {
	return defaultRegistry.RegisterTest(name, fn)
}
