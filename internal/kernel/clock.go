package kernel

import (
	"context"
	"math"
	"sync/atomic"
	"time"
)

// Tick is a count of scheduler ticks since the clock started.
type Tick uint64

// Clock is a monotonically increasing tick source.
type Clock struct {
	start atomic.Pointer[time.Time]
	tick  time.Duration
}

// NewClock starts a clock whose ticks are the given length.
// Non-positive lengths fall back to one millisecond.
func NewClock(tick time.Duration) *Clock {
	if tick <= 0 {
		tick = time.Millisecond
	}
	c := &Clock{tick: tick}
	c.Restart()
	return c
}

// Restart sets tick zero to the current instant. Call it before any task
// reads the clock; ticks already handed out are not adjusted.
func (c *Clock) Restart() {
	now := time.Now()
	c.start.Store(&now)
}

// Now returns the number of whole ticks elapsed since the clock started.
func (c *Clock) Now() Tick {
	return Tick(time.Since(*c.start.Load()) / c.tick)
}

// TickLength returns the wall-clock length of one tick.
func (c *Clock) TickLength() time.Duration {
	return c.tick
}

// Duration converts a tick count to wall-clock time, saturating at the
// longest representable duration.
func (c *Clock) Duration(t Tick) time.Duration {
	if uint64(t) > uint64(math.MaxInt64/c.tick) {
		return math.MaxInt64
	}
	return time.Duration(t) * c.tick
}

// Ticks converts wall-clock time to whole ticks, rounding down.
func (c *Clock) Ticks(d time.Duration) Tick {
	if d <= 0 {
		return 0
	}
	return Tick(d / c.tick)
}

// At returns the wall-clock instant at which tick t begins.
func (c *Clock) At(t Tick) time.Time {
	return c.start.Load().Add(c.Duration(t))
}

// DelayUntil blocks until *next + period, then advances *next by exactly one
// period so a periodic task does not drift with its own execution time. If
// the wake time has already passed it returns immediately. A cancelled ctx
// ends the delay early with ctx.Err().
func DelayUntil(ctx context.Context, clock *Clock, next *Tick, period Tick) error {
	*next += period

	wait := time.Until(clock.At(*next))
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
