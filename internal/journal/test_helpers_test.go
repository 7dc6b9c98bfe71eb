package journal

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestJournal creates a journal backed by a temp-dir database.
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

// beginTestRun inserts a run row so event and result writes satisfy the
// foreign key on run_token.
func beginTestRun(t *testing.T, j *Journal, token string) {
	t.Helper()
	run := Run{
		Token:         token,
		Name:          "nightly",
		EngineVersion: "0.1.0",
		StartedAt:     "2025-01-02T03:04:05Z",
	}
	if err := j.BeginRun(context.Background(), run); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
}

// createTestEvent builds an event with minimal required fields.
func createTestEvent(runToken, suite, kind string, seq int64) Event {
	return Event{
		RunToken: runToken,
		Suite:    suite,
		Kind:     kind,
		Seq:      seq,
	}
}

// createTestResult builds a result with minimal required fields.
func createTestResult(runToken, suite, test, outcome string, seq int64) Result {
	return Result{
		RunToken:  runToken,
		Suite:     suite,
		Test:      test,
		Outcome:   outcome,
		ElapsedMS: 5,
		Seq:       seq,
	}
}
