package runner

import "fmt"

// TeardownMode defines how the runner treats a teardown failure.
type TeardownMode string

const (
	// TeardownLenient records a failed teardown as a warning diagnostic;
	// suite and test outcomes are unchanged (default).
	TeardownLenient TeardownMode = "lenient"

	// TeardownStrict fails the suite when its teardown fails.
	// Requires explicit opt-in via `teardown_mode: "strict"` in the plan.
	TeardownStrict TeardownMode = "strict"
)

// ValidateTeardownMode checks if mode is a valid teardown mode.
// Returns error if mode is not one of: lenient, strict.
func ValidateTeardownMode(mode string) error {
	switch TeardownMode(mode) {
	case TeardownLenient, TeardownStrict:
		return nil
	case "":
		// Empty is valid - will default to lenient
		return nil
	default:
		return fmt.Errorf("invalid teardown mode %q: must be lenient or strict", mode)
	}
}

// NormalizeTeardownMode returns the mode with the default applied when empty.
func NormalizeTeardownMode(mode string) TeardownMode {
	if mode == "" {
		return TeardownLenient
	}
	return TeardownMode(mode)
}
