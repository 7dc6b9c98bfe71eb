package journal

import (
	"context"
	"fmt"

	"github.com/rigworks/rig/internal/ident"
)

// BeginRun inserts the run row.
// Uses ON CONFLICT(token) DO NOTHING for idempotency - re-opening a run
// with the same token is silently ignored.
func (j *Journal) BeginRun(ctx context.Context, run Run) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (token, name, engine_version, started_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`,
		run.Token,
		run.Name,
		run.EngineVersion,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	return nil
}

// FinishRun stamps the run's verdict and finish time.
func (j *Journal) FinishRun(ctx context.Context, token string, pass bool, finishedAt string) error {
	_, err := j.db.ExecContext(ctx, `
		UPDATE runs SET finished_at = ?, pass = ? WHERE token = ?
	`,
		finishedAt,
		pass,
		token,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	return nil
}

// WriteEvent inserts a fixture lifecycle event.
//
// The id is computed here from the row's identity fields, so the caller
// never assigns one. Uses ON CONFLICT(id) DO NOTHING for idempotency -
// writing the identical event twice is a no-op. Other constraint
// violations (e.g., unknown run token) still return errors.
func (j *Journal) WriteEvent(ctx context.Context, ev Event) (Event, error) {
	id, err := ident.EventID(ev.RunToken, ev.Suite, ev.Kind, ev.Detail, ev.Seq)
	if err != nil {
		return Event{}, fmt.Errorf("write event: %w", err)
	}
	ev.ID = id

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO events (id, run_token, suite, kind, detail, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		ev.ID,
		ev.RunToken,
		ev.Suite,
		ev.Kind,
		ev.Detail,
		ev.Seq,
	)
	if err != nil {
		return Event{}, fmt.Errorf("write event: %w", err)
	}

	return ev, nil
}

// WriteResult inserts a per-test outcome.
//
// The id is computed here from the row's identity fields. Uses
// ON CONFLICT(id) DO NOTHING for idempotency.
func (j *Journal) WriteResult(ctx context.Context, res Result) (Result, error) {
	id, err := ident.ResultID(res.RunToken, res.Suite, res.Test, res.Outcome, res.Message, res.ElapsedMS, res.Seq)
	if err != nil {
		return Result{}, fmt.Errorf("write result: %w", err)
	}
	res.ID = id

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO results (id, run_token, suite, test, outcome, message, elapsed_ms, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		res.ID,
		res.RunToken,
		res.Suite,
		res.Test,
		res.Outcome,
		res.Message,
		res.ElapsedMS,
		res.Seq,
	)
	if err != nil {
		return Result{}, fmt.Errorf("write result: %w", err)
	}

	return res, nil
}
