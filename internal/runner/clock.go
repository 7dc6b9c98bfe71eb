package runner

import "sync/atomic"

// Clock is a monotonic logical clock for journal event ordering.
//
// All journal rows are stamped with a strictly increasing seq number from
// this clock. This ensures:
// - Deterministic ordering (no wall-clock race conditions)
// - Content ids are stable for a given interleaving
// - Causal relationships are explicit
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// Parallel workers all stamp through the same clock.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at the given sequence number.
// Used with WithClock to resume numbering in an existing journal.
func NewClockAt(seq int64) *Clock {
	c := &Clock{}
	c.seq.Store(seq)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
