// Package testutil holds deterministic helpers for scenario runs.
package testutil

import "sync/atomic"

// DeterministicClock numbers trace events. It is safe for concurrent use
// and can be reset, so a scenario run twice yields identical sequence numbers.
type DeterministicClock struct {
	seq atomic.Int64
}

// NewDeterministicClock creates a clock whose first Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next advances the clock and returns the new sequence number.
func (c *DeterministicClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number, 0 before any Next.
func (c *DeterministicClock) Current() int64 {
	return c.seq.Load()
}

// Reset rewinds the clock so the next Next returns 1 again.
func (c *DeterministicClock) Reset() {
	c.seq.Store(0)
}
