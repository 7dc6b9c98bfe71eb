package fixture

import (
	"errors"
	"fmt"
)

// ConfigError represents a misconfigured lifecycle, detected before any
// routine runs.
//
// Configuration errors include:
//   - Rebinding: a second setup or teardown bound to the same coordinator
//   - Nil callable: binding a nil routine
//   - Nil environment: EnsureSetupRan called without an environment
//
// ConfigError is never cached. It reports the misuse and leaves the
// coordinator's state untouched: a rejected rebind keeps the original
// callable, and a nil-environment call does not consume the setup.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Message is a human-readable description.
	Message string

	// Scope identifies the affected suite.
	Scope string

	// Routine identifies the bound routine, when one is involved.
	Routine string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeSetupRebound indicates a second setup bind on one coordinator.
	ErrCodeSetupRebound ConfigErrorCode = "SETUP_REBOUND"

	// ErrCodeTeardownRebound indicates a second teardown bind on one coordinator.
	ErrCodeTeardownRebound ConfigErrorCode = "TEARDOWN_REBOUND"

	// ErrCodeNilCallable indicates an attempt to bind a nil routine.
	ErrCodeNilCallable ConfigErrorCode = "NIL_CALLABLE"

	// ErrCodeNilEnvironment indicates EnsureSetupRan received a nil environment.
	ErrCodeNilEnvironment ConfigErrorCode = "NIL_ENVIRONMENT"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Scope != "" && e.Routine != "" {
		return fmt.Sprintf("%s: %s (scope=%s, routine=%s)", e.Code, e.Message, e.Scope, e.Routine)
	}
	if e.Scope != "" {
		return fmt.Sprintf("%s: %s (scope=%s)", e.Code, e.Message, e.Scope)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError returns true if the error is a lifecycle configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// NewSetupReboundError creates a ConfigError for a duplicate setup bind.
// existing names the routine that stays bound.
func NewSetupReboundError(scope, existing string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeSetupRebound,
		Message: "setup routine already bound",
		Scope:   scope,
		Routine: existing,
	}
}

// NewTeardownReboundError creates a ConfigError for a duplicate teardown bind.
// existing names the routine that stays bound.
func NewTeardownReboundError(scope, existing string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeTeardownRebound,
		Message: "teardown routine already bound",
		Scope:   scope,
		Routine: existing,
	}
}

// NewNilCallableError creates a ConfigError for a nil routine bind.
// role is "setup" or "teardown".
func NewNilCallableError(scope, role string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeNilCallable,
		Message: fmt.Sprintf("cannot bind nil %s routine", role),
		Scope:   scope,
	}
}

// NewNilEnvironmentError creates a ConfigError for a nil environment.
func NewNilEnvironmentError(scope string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeNilEnvironment,
		Message: "setup requires a non-nil environment",
		Scope:   scope,
	}
}
