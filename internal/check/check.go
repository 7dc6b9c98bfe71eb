// Package check defines the assertion-style errors test bodies and lifecycle
// hooks raise, and the predicates the rest of the harness uses to classify
// them.
//
// Two kinds exist:
//   - AssertionError: a checked condition did not hold. The owning test fails.
//   - InconclusiveError: the outcome cannot be decided, typically because a
//     precondition of the run is not met. Dependent work is skipped, not
//     failed.
//
// The distinction matters most during setup: a suite whose setup raises an
// inconclusive error has its tests skipped, while any other setup error fails
// them.
package check

import (
	"errors"
	"fmt"
)

// AssertionError is raised when a test or hook observes a condition that
// contradicts what it asserted.
type AssertionError struct {
	// Message is the human-readable description of the failed check.
	Message string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return e.Message
}

// InconclusiveError is raised when a test or hook cannot decide an outcome.
type InconclusiveError struct {
	// Message describes why no verdict could be reached.
	Message string
}

// Error implements the error interface.
func (e *InconclusiveError) Error() string {
	return e.Message
}

// Failf returns an AssertionError with a formatted message.
func Failf(format string, args ...any) error {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

// Inconclusivef returns an InconclusiveError with a formatted message.
func Inconclusivef(format string, args ...any) error {
	return &InconclusiveError{Message: fmt.Sprintf(format, args...)}
}

// IsAssertion returns true if the error is assertion-style: a plain assertion
// failure or an inconclusive result. Uses errors.As to handle wrapped errors.
func IsAssertion(err error) bool {
	var ae *AssertionError
	if errors.As(err, &ae) {
		return true
	}
	return IsInconclusive(err)
}

// IsInconclusive returns true if the error marks an inconclusive outcome.
// Uses errors.As to handle wrapped errors.
func IsInconclusive(err error) bool {
	var ie *InconclusiveError
	return errors.As(err, &ie)
}
