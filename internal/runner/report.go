package runner

import (
	"fmt"
	"io"
)

// Render writes the human-readable run summary.
//
// Output is deterministic for a given report: suites and tests appear in
// plan order and no timing fields are printed. Golden tests rely on this.
func (r *Report) Render(w io.Writer) {
	for i, sr := range r.Suites {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "suite %s\n", sr.Name)

		if sr.SetupFailure != "" {
			fmt.Fprintf(w, "  setup failed: %s\n", sr.SetupFailure)
		}

		for _, res := range sr.Results {
			fmt.Fprintf(w, "  %s %s\n", outcomeSymbol(res.Outcome), res.Name)
			// The cached setup failure is printed once at suite level, not
			// repeated under every test it marked.
			if res.Message != "" && res.Message != sr.SetupFailure {
				fmt.Fprintf(w, "    %s\n", res.Message)
			}
		}

		if sr.TeardownWarning != "" {
			fmt.Fprintf(w, "  teardown warning: %s\n", sr.TeardownWarning)
		}
		if sr.TeardownFailure != "" {
			fmt.Fprintf(w, "  teardown failed: %s\n", sr.TeardownFailure)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run Summary: %d passed, %d failed, %d skipped, %d inconclusive, %d total\n",
		r.Counts.Passed, r.Counts.Failed, r.Counts.Skipped, r.Counts.Inconclusive, r.Counts.Total())

	if r.Pass {
		fmt.Fprintln(w, "✓ Run passed")
	} else {
		fmt.Fprintln(w, "✗ Run failed")
	}
}

func outcomeSymbol(o TestOutcome) string {
	switch o {
	case OutcomePassed:
		return "✓"
	case OutcomeFailed:
		return "✗"
	case OutcomeSkipped:
		return "-"
	case OutcomeInconclusive:
		return "?"
	}
	return "?"
}
