package journal

import (
	"context"
	"database/sql"
	"fmt"
)

// Runs returns all run rows, oldest first.
//
// Ordering is by started_at then token COLLATE BINARY, so listings are
// deterministic even when two runs share a start timestamp.
func (j *Journal) Runs(ctx context.Context) ([]Run, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT token, name, engine_version, started_at, finished_at, pass
		FROM runs
		ORDER BY started_at ASC, token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	if runs == nil {
		runs = []Run{}
	}

	return runs, nil
}

// GetRun retrieves a single run by token.
// Returns sql.ErrNoRows if not found.
func (j *Journal) GetRun(ctx context.Context, token string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT token, name, engine_version, started_at, finished_at, pass
		FROM runs
		WHERE token = ?
	`, token)

	return scanRun(row)
}

// Trace returns all fixture lifecycle events for a run.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the run has no events.
func (j *Journal) Trace(ctx context.Context, runToken string) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_token, suite, kind, detail, seq
		FROM events
		WHERE run_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.RunToken, &ev.Suite, &ev.Kind, &ev.Detail, &ev.Seq); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	if events == nil {
		events = []Event{}
	}

	return events, nil
}

// Results returns all per-test outcomes for a run.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the run has no results.
func (j *Journal) Results(ctx context.Context, runToken string) ([]Result, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_token, suite, test, outcome, message, elapsed_ms, seq
		FROM results
		WHERE run_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var res Result
		if err := rows.Scan(&res.ID, &res.RunToken, &res.Suite, &res.Test, &res.Outcome, &res.Message, &res.ElapsedMS, &res.Seq); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	if results == nil {
		results = []Result{}
	}

	return results, nil
}

// scanTarget abstracts sql.Row and sql.Rows for shared scan helpers.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanRun(row scanTarget) (Run, error) {
	var run Run
	var finishedAt sql.NullString
	var pass sql.NullBool

	if err := row.Scan(&run.Token, &run.Name, &run.EngineVersion, &run.StartedAt, &finishedAt, &pass); err != nil {
		if err == sql.ErrNoRows {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if finishedAt.Valid {
		run.FinishedAt = finishedAt.String
	}
	if pass.Valid {
		v := pass.Bool
		run.Pass = &v
	}

	return run, nil
}
