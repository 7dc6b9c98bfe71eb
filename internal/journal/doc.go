// Package journal provides SQLite-backed durable storage for run lifecycle
// traces.
//
// The journal implements an append-only log with:
//   - Runs: one row per run token
//   - Events: suite fixture lifecycle (setup ran/failed, teardown verdicts)
//   - Results: per-test outcomes
//
// # Patterns
//
// Content-addressed idempotency
//   - Event and result ids are domain-separated SHA-256 over the row's
//     identity fields (internal/ident)
//   - Writes use ON CONFLICT(id) DO NOTHING; identical re-writes are no-ops
//
// Logical time
//   - All ordering uses seq INTEGER (the runner's logical clock), never
//     timestamps
//   - All queries order by seq ASC, id ASC COLLATE BINARY so reads are
//     deterministic
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package journal
