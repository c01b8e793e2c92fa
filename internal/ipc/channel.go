package ipc

import (
	"sync"
	"sync/atomic"
)

// ChannelID names a channel. It is what a Multiplexer returns from a wait.
type ChannelID string

// ChannelStats is a snapshot of a channel's counters.
type ChannelStats struct {
	ID          ChannelID `json:"id"`
	Pending     bool      `json:"pending"`
	Sent        uint64    `json:"sent"`
	Received    uint64    `json:"received"`
	Overwritten uint64    `json:"overwritten"`
}

// Source is anything a Multiplexer can watch.
type Source interface {
	ID() ChannelID
	Pending() bool
	attach(m *Multiplexer)
}

// Channel is a single-slot, overwrite-on-send mailbox.
type Channel[T any] struct {
	id ChannelID

	mu       sync.Mutex
	slot     T
	full     bool
	watchers []*Multiplexer

	sent        atomic.Uint64
	received    atomic.Uint64
	overwritten atomic.Uint64
}

// NewChannel creates an empty channel.
func NewChannel[T any](id ChannelID) *Channel[T] {
	return &Channel[T]{id: id}
}

// ID returns the channel's name
func (c *Channel[T]) ID() ChannelID { return c.id }

// Send stores v, replacing any value not yet received, and wakes every
// multiplexer watching the channel. It never blocks and reports whether an
// unreceived value was lost.
func (c *Channel[T]) Send(v T) (overwrote bool) {
	c.mu.Lock()
	overwrote = c.full
	c.slot = v
	c.full = true
	watchers := c.watchers
	c.mu.Unlock()

	c.sent.Add(1)
	if overwrote {
		c.overwritten.Add(1)
	}

	for _, m := range watchers {
		m.notify()
	}
	return overwrote
}

// TryReceive takes the pending value, if any, and empties the slot.
func (c *Channel[T]) TryReceive() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	if !c.full {
		return zero, false
	}

	v := c.slot
	c.slot = zero
	c.full = false
	c.received.Add(1)
	return v, true
}

// Pending reports whether a value is waiting to be received.
func (c *Channel[T]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.full
}

// Stats returns a snapshot of the channel's counters.
func (c *Channel[T]) Stats() ChannelStats {
	return ChannelStats{
		ID:          c.id,
		Pending:     c.Pending(),
		Sent:        c.sent.Load(),
		Received:    c.received.Load(),
		Overwritten: c.overwritten.Load(),
	}
}

func (c *Channel[T]) attach(m *Multiplexer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// copy-on-write so Send can iterate without holding the lock
	watchers := make([]*Multiplexer, 0, len(c.watchers)+1)
	watchers = append(watchers, c.watchers...)
	c.watchers = append(watchers, m)
}
