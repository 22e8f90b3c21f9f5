package ledger

import "sync/atomic"

// SeqClock hands out strictly increasing event sequence numbers.
// Implemented by Clock (production) and testutil.DeterministicClock (tests).
type SeqClock interface {
	Next() int64
}

// Clock is the ledger's monotonic logical clock.
//
// Events are ordered by seq, never by wall time, so an audit log replays in
// the same order regardless of when it was written.
//
// Thread-safety: safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
// Used when a ledger is restored from a store whose last event had seq start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
