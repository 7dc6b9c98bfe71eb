package runner

// TestOutcome is the verdict for one executed (or skipped) test.
type TestOutcome string

const (
	// OutcomePassed means the test body returned nil.
	OutcomePassed TestOutcome = "passed"

	// OutcomeFailed means the test body returned an error, panicked, or its
	// suite setup failed.
	OutcomeFailed TestOutcome = "failed"

	// OutcomeSkipped means the test body never ran: the failure budget was
	// exhausted or the run was cancelled.
	OutcomeSkipped TestOutcome = "skipped"

	// OutcomeInconclusive means the test (or its suite setup) signalled an
	// inconclusive verdict rather than a failure.
	OutcomeInconclusive TestOutcome = "inconclusive"
)

// TestResult is the outcome of one test in one run.
type TestResult struct {
	// Suite is the owning suite's name.
	Suite string `json:"suite"`

	// Name is the test's dotted hook name.
	Name string `json:"name"`

	Outcome TestOutcome `json:"outcome"`

	// Message carries the failure or skip diagnostic. Empty on pass.
	Message string `json:"message,omitempty"`

	// ElapsedMS is wall time of the test body. Zero for tests that never ran.
	ElapsedMS int64 `json:"elapsed_ms"`

	// Seq is the logical-clock stamp assigned when the result was recorded.
	Seq int64 `json:"seq"`
}

// SuiteReport rolls up one suite's results plus its fixture diagnostics.
type SuiteReport struct {
	Name    string       `json:"name"`
	Results []TestResult `json:"results"`

	// SetupFailure is the cached fixture failure message, when setup failed.
	SetupFailure string `json:"setup_failure,omitempty"`

	// TeardownWarning is the lenient-mode teardown diagnostic.
	TeardownWarning string `json:"teardown_warning,omitempty"`

	// TeardownFailure is the strict-mode teardown failure message.
	TeardownFailure string `json:"teardown_failure,omitempty"`

	// Failed marks a suite-level failure (strict teardown), independent of
	// individual test outcomes.
	Failed bool `json:"failed,omitempty"`
}

// Counts tallies test outcomes across a run.
type Counts struct {
	Passed       int `json:"passed"`
	Failed       int `json:"failed"`
	Skipped      int `json:"skipped"`
	Inconclusive int `json:"inconclusive"`
}

// Total returns the number of recorded test results.
func (c Counts) Total() int {
	return c.Passed + c.Failed + c.Skipped + c.Inconclusive
}

// Report is the rollup for one run.
//
// Pass reflects failures only: failed tests and suite-level failures flip
// it; skipped and inconclusive results do not.
type Report struct {
	RunToken string        `json:"run_token"`
	Pass     bool          `json:"pass"`
	Suites   []SuiteReport `json:"suites"`
	Counts   Counts        `json:"counts"`
}

// NewReport creates a passing, empty report for a run.
func NewReport(runToken string) *Report {
	return &Report{
		RunToken: runToken,
		Pass:     true,
		Suites:   []SuiteReport{},
	}
}

// AddSuite appends a suite rollup and folds its outcomes into the run tally.
func (r *Report) AddSuite(sr SuiteReport) {
	r.Suites = append(r.Suites, sr)

	c := tallyResults(sr.Results)
	r.Counts.Passed += c.Passed
	r.Counts.Failed += c.Failed
	r.Counts.Skipped += c.Skipped
	r.Counts.Inconclusive += c.Inconclusive

	if c.Failed > 0 || sr.Failed {
		r.Pass = false
	}
}

// tallyResults counts outcomes across one suite's results.
func tallyResults(results []TestResult) Counts {
	var c Counts
	for _, res := range results {
		switch res.Outcome {
		case OutcomePassed:
			c.Passed++
		case OutcomeFailed:
			c.Failed++
		case OutcomeSkipped:
			c.Skipped++
		case OutcomeInconclusive:
			c.Inconclusive++
		}
	}
	return c
}
