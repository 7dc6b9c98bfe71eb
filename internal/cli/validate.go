package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rigworks/rig/internal/manifest"
)

// PlanCheck is the validation outcome for one plan file.
type PlanCheck struct {
	Path   string `json:"path"`
	Valid  bool   `json:"valid"`
	Suites int    `json:"suites,omitempty"`
	Tests  int    `json:"tests,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ValidationResult holds validation results across all named plan files.
type ValidationResult struct {
	Valid bool        `json:"valid"`
	Plans []PlanCheck `json:"plans"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <plan.yaml>...",
		Short: "Validate run plans without executing them",
		Long: `Validate run plan files without executing anything.

Each plan passes three layers: strict YAML decoding (unknown fields are
rejected), the embedded schema, and semantic checks (duplicate suite or
test names, teardown_mode without a teardown hook).

Exit codes:
  0 - All plans valid
  1 - One or more plans invalid
  2 - Command error (plan file not found)

Examples:
  rig validate plans/nightly.yaml
  rig validate plans/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	// Missing files are command errors, not validation findings.
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return NewExitError(ExitCommandError, fmt.Sprintf("plan file not found: %s", path))
		}
	}

	result := ValidationResult{Valid: true, Plans: make([]PlanCheck, 0, len(paths))}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		result.Plans = append(result.Plans, checkPlan(path))
	}
	for _, check := range result.Plans {
		if !check.Valid {
			result.Valid = false
		}
	}

	if opts.Format == "json" {
		return outputValidateJSON(formatter, result)
	}
	return outputValidateText(formatter, result)
}

// checkPlan loads one plan file and converts the outcome to a PlanCheck.
func checkPlan(path string) PlanCheck {
	check := PlanCheck{Path: path}

	plan, err := manifest.Load(path)
	if err != nil {
		check.Error = err.Error()
		return check
	}

	check.Valid = true
	check.Suites = len(plan.Suites)
	for _, s := range plan.Suites {
		check.Tests += len(s.Tests)
	}
	return check
}

// outputValidateJSON emits the validation result in the JSON envelope.
func outputValidateJSON(formatter *OutputFormatter, result ValidationResult) error {
	response := CLIResponse{Status: "ok", Data: result}

	invalid := countInvalid(result)
	if invalid > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_PLAN_INVALID",
			Message: fmt.Sprintf("%d plan(s) invalid", invalid),
		}
	}

	encoder := json.NewEncoder(formatter.Writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d plan(s) invalid", invalid))
	}
	return nil
}

// outputValidateText emits one line per plan plus a failure summary.
func outputValidateText(formatter *OutputFormatter, result ValidationResult) error {
	w := formatter.Writer

	for _, check := range result.Plans {
		if check.Valid {
			fmt.Fprintf(w, "✓ %s (%d suite(s), %d test(s))\n", check.Path, check.Suites, check.Tests)
			continue
		}
		fmt.Fprintf(w, "✗ %s\n", check.Path)
		fmt.Fprintf(w, "  %s\n", check.Error)
	}

	if invalid := countInvalid(result); invalid > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d plan(s) invalid", invalid))
	}
	return nil
}

func countInvalid(result ValidationResult) int {
	n := 0
	for _, check := range result.Plans {
		if !check.Valid {
			n++
		}
	}
	return n
}
