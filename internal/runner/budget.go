package runner

import (
	"errors"
	"fmt"
	"sync"
)

// FailureBudget tracks test failures across a run and enforces a
// max-failures limit.
//
// One FailureBudget instance exists per run and is shared by every suite's
// workers. Once the budget is exceeded, tests that have not started yet are
// recorded as skipped instead of executed.
//
// A zero limit disables enforcement: failures are still counted but the
// budget never trips.
//
// Thread-safety: all methods are safe for concurrent use. Unlike the
// logical clock, the counter guards a compare as well as an increment, so
// it uses a mutex rather than an atomic.
type FailureBudget struct {
	mu          sync.Mutex
	maxFailures int
	failures    int
}

// NewFailureBudget creates a budget with the given limit.
//
// maxFailures: number of test failures after which the run stops scheduling
// new tests. 0 means unlimited.
func NewFailureBudget(maxFailures int) *FailureBudget {
	return &FailureBudget{maxFailures: maxFailures}
}

// Record counts one failure and validates against the limit.
//
// Returns BudgetExceededError on the failure that crosses the limit and on
// every failure after it.
func (b *FailureBudget) Record(runToken string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.maxFailures > 0 && b.failures > b.maxFailures {
		return &BudgetExceededError{
			RunToken: runToken,
			Failures: b.failures,
			Limit:    b.maxFailures,
		}
	}
	return nil
}

// Exceeded reports whether the failure count has passed the limit.
func (b *FailureBudget) Exceeded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxFailures > 0 && b.failures > b.maxFailures
}

// Failures returns the current failure count.
// Used for logging and diagnostics.
func (b *FailureBudget) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// MaxFailures returns the configured limit.
func (b *FailureBudget) MaxFailures() int {
	return b.maxFailures
}

// BudgetExceededError is returned when a run exceeds its failure budget.
//
// The run finishes gracefully: already-running tests complete, unstarted
// tests are recorded as skipped.
type BudgetExceededError struct {
	RunToken string // The run that exceeded the budget
	Failures int    // Number of failures recorded
	Limit    int    // Maximum allowed failures
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded failure budget: %d failures > %d limit",
		e.RunToken, e.Failures, e.Limit)
}

// IsBudgetExceededError returns true if the error is a BudgetExceededError.
// Uses errors.As to handle wrapped errors.
func IsBudgetExceededError(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
