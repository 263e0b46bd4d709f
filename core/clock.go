package core

import (
	"sync/atomic"
	"time"
)

// Clock reports milliseconds since boot. The value wraps at 2^32.
type Clock interface {
	Millis() uint32
}

// BootClock counts from the moment it was created
type BootClock struct {
	start time.Time
}

// NewBootClock starts a clock at zero
func NewBootClock() *BootClock {
	return &BootClock{start: time.Now()}
}

func (c *BootClock) Millis() uint32 {
	return uint32(time.Since(c.start) / time.Millisecond)
}

// ManualClock only moves when told to (for testing/hardware integration)
type ManualClock struct {
	ms uint32
}

func (c *ManualClock) Millis() uint32 {
	return atomic.LoadUint32(&c.ms)
}

// Set sets the current time
func (c *ManualClock) Set(ms uint32) {
	atomic.StoreUint32(&c.ms, ms)
}

// Advance moves the clock forward, wrapping at 2^32
func (c *ManualClock) Advance(ms uint32) {
	atomic.AddUint32(&c.ms, ms)
}
