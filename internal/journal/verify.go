package journal

import (
	"context"
	"fmt"

	"github.com/rigworks/rig/internal/ident"
)

var knownEventKinds = map[string]bool{
	EventSetupRan:        true,
	EventSetupFailed:     true,
	EventTeardownOK:      true,
	EventTeardownWarning: true,
	EventTeardownFailed:  true,
	EventSuiteDone:       true,
}

// VerifyReport summarizes an integrity check of one run's journal rows.
type VerifyReport struct {
	RunToken string   `json:"run_token"`
	Events   int      `json:"events"`
	Results  int      `json:"results"`
	Problems []string `json:"problems,omitempty"`
}

// OK reports whether the check found no problems.
func (r VerifyReport) OK() bool {
	return len(r.Problems) == 0
}

// Verify recomputes every event and result id for a run and compares them
// with the stored ids. A mismatch means the row was altered after writing.
// Unknown event kinds are reported too.
//
// Returns an error only for storage failures; integrity findings land in
// the report's Problems.
func (j *Journal) Verify(ctx context.Context, runToken string) (VerifyReport, error) {
	report := VerifyReport{RunToken: runToken}

	if _, err := j.GetRun(ctx, runToken); err != nil {
		return report, fmt.Errorf("verify: run %s: %w", runToken, err)
	}

	events, err := j.Trace(ctx, runToken)
	if err != nil {
		return report, fmt.Errorf("verify: %w", err)
	}
	report.Events = len(events)

	for _, ev := range events {
		want, err := ident.EventID(ev.RunToken, ev.Suite, ev.Kind, ev.Detail, ev.Seq)
		if err != nil {
			return report, fmt.Errorf("verify: recompute event id: %w", err)
		}
		if want != ev.ID {
			report.Problems = append(report.Problems,
				fmt.Sprintf("event seq %d (%s/%s): stored id %s, recomputed %s",
					ev.Seq, ev.Suite, ev.Kind, ev.ID, want))
		}
		if !knownEventKinds[ev.Kind] {
			report.Problems = append(report.Problems,
				fmt.Sprintf("event seq %d: unknown kind %q", ev.Seq, ev.Kind))
		}
	}

	results, err := j.Results(ctx, runToken)
	if err != nil {
		return report, fmt.Errorf("verify: %w", err)
	}
	report.Results = len(results)

	for _, res := range results {
		want, err := ident.ResultID(res.RunToken, res.Suite, res.Test, res.Outcome, res.Message, res.ElapsedMS, res.Seq)
		if err != nil {
			return report, fmt.Errorf("verify: recompute result id: %w", err)
		}
		if want != res.ID {
			report.Problems = append(report.Problems,
				fmt.Sprintf("result seq %d (%s/%s): stored id %s, recomputed %s",
					res.Seq, res.Suite, res.Test, res.ID, want))
		}
	}

	return report, nil
}
