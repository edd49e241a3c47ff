// Package timer provides the clock source used for task accounting and the
// get_time system call.
package timer

import (
	"sync/atomic"
	"time"
)

// Clock is a monotonic time source measured from boot.
type Clock interface {
	// TimeUS returns the microseconds elapsed since boot.
	TimeUS() uint64

	// TimeMS returns the milliseconds elapsed since boot.
	TimeMS() uint64
}

var (
	// nowFn returns the current time. It is mocked by tests.
	nowFn = time.Now
)

// Monotonic is a Clock that reports the time elapsed since it was created.
type Monotonic struct {
	boot time.Time
}

// NewMonotonic returns a Monotonic clock whose epoch is the current instant.
func NewMonotonic() *Monotonic {
	return &Monotonic{boot: nowFn()}
}

// TimeUS implements Clock.
func (c *Monotonic) TimeUS() uint64 {
	return uint64(nowFn().Sub(c.boot) / time.Microsecond)
}

// TimeMS implements Clock.
func (c *Monotonic) TimeMS() uint64 {
	return uint64(nowFn().Sub(c.boot) / time.Millisecond)
}

// Fixed is a Clock that only moves when advanced explicitly.
type Fixed struct {
	us uint64
}

// NewFixed returns a Fixed clock set to us microseconds.
func NewFixed(us uint64) *Fixed {
	return &Fixed{us: us}
}

// Advance moves the clock forward by d.
func (c *Fixed) Advance(d time.Duration) {
	atomic.AddUint64(&c.us, uint64(d/time.Microsecond))
}

// TimeUS implements Clock.
func (c *Fixed) TimeUS() uint64 {
	return atomic.LoadUint64(&c.us)
}

// TimeMS implements Clock.
func (c *Fixed) TimeMS() uint64 {
	return c.TimeUS() / 1000
}
