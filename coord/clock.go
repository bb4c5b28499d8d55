package coord

import (
	"sync/atomic"
	"time"
)

// Clock supplies the engine's view of wall time and chain height. The
// engine never reads time directly: expiry and rate-limit periods come
// from Now, and the flash-loan guard and reveal window come from Height.
type Clock interface {
	// Now returns the current time in unix seconds.
	Now() uint64

	// Height returns the latest observed chain height.
	Height() uint64
}

// SystemClock reads wall time from the OS and reports heights observed
// from an external chain listener via ObserveHeight.
type SystemClock struct {
	height atomic.Uint64
}

// NewSystemClock returns a SystemClock starting at height 0.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the wall-clock time in unix seconds.
func (c *SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// Height returns the latest observed height.
func (c *SystemClock) Height() uint64 {
	return c.height.Load()
}

// ObserveHeight records a new chain height. Heights never move
// backwards; stale observations are ignored.
func (c *SystemClock) ObserveHeight(h uint64) {
	for {
		cur := c.height.Load()
		if h <= cur {
			return
		}
		if c.height.CompareAndSwap(cur, h) {
			return
		}
	}
}

// ManualClock is a Clock under test control.
type ManualClock struct {
	now    atomic.Uint64
	height atomic.Uint64
}

// NewManualClock returns a ManualClock at the given time and height.
func NewManualClock(now, height uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(now)
	c.height.Store(height)
	return c
}

// Now returns the configured time.
func (c *ManualClock) Now() uint64 { return c.now.Load() }

// Height returns the configured height.
func (c *ManualClock) Height() uint64 { return c.height.Load() }

// SetNow sets the current time.
func (c *ManualClock) SetNow(t uint64) { c.now.Store(t) }

// SetHeight sets the current height.
func (c *ManualClock) SetHeight(h uint64) { c.height.Store(h) }

// AdvanceTime moves the clock forward by d seconds.
func (c *ManualClock) AdvanceTime(d uint64) { c.now.Add(d) }

// AdvanceHeight moves the height forward by n.
func (c *ManualClock) AdvanceHeight(n uint64) { c.height.Add(n) }
