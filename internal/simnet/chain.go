package simnet

import "sync/atomic"

// blockClock is the chain's block height. Every mined transaction advances
// it by one; it never moves backwards, even when execution rolls back.
type blockClock struct {
	height atomic.Uint64
}

// newBlockClockAt resumes a persistent chain at a known tip.
func newBlockClockAt(start uint64) *blockClock {
	c := &blockClock{}
	c.height.Store(start)
	return c
}

// Peek returns the height the next block will have.
func (c *blockClock) Peek() uint64 {
	return c.height.Load() + 1
}

// Advance mines a block and returns its height.
func (c *blockClock) Advance() uint64 {
	return c.height.Add(1)
}

// Current returns the tip height.
func (c *blockClock) Current() uint64 {
	return c.height.Load()
}
