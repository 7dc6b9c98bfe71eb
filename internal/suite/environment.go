package suite

import (
	"log/slog"
	"sync"
)

// Environment is the execution context handed to setup callables and test
// functions. The runner builds one per suite per run and forwards the same
// pointer to every hook, so values set by setup are visible to all tests.
//
// Thread-safety: Set/Value/Lookup are safe for concurrent use. Tests in the
// same suite run in parallel and share this bag.
type Environment struct {
	runToken string
	suite    string
	logger   *slog.Logger

	mu     sync.Mutex
	values map[string]any
}

// NewEnvironment creates an environment for one suite in one run.
//
// A nil logger falls back to slog.Default().
func NewEnvironment(runToken, suiteName string, logger *slog.Logger) *Environment {
	if logger == nil {
		logger = slog.Default()
	}
	return &Environment{
		runToken: runToken,
		suite:    suiteName,
		logger:   logger,
		values:   make(map[string]any),
	}
}

// RunToken returns the token identifying the run this environment belongs to.
func (e *Environment) RunToken() string {
	return e.runToken
}

// Suite returns the name of the suite this environment belongs to.
func (e *Environment) Suite() string {
	return e.suite
}

// Logger returns the suite-scoped logger.
func (e *Environment) Logger() *slog.Logger {
	return e.logger
}

// Set stores a value under key, replacing any previous value.
//
// Typical use: setup stores a handle ("db", "server_addr") that tests read.
func (e *Environment) Set(key string, val any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values[key] = val
}

// Value returns the value stored under key, or nil when absent.
func (e *Environment) Value(key string) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values[key]
}

// Lookup returns the value stored under key and whether it was present.
func (e *Environment) Lookup(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	val, ok := e.values[key]
	return val, ok
}
