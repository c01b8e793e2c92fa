package ipc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	ErrRegisterWhileWaiting = errors.New("cannot register while a wait is in progress")
	ErrDuplicateChannel     = errors.New("channel already registered")
	ErrNilSource            = errors.New("source is nil")
)

// Multiplexer blocks a waiter until any registered channel has a value.
type Multiplexer struct {
	mu      sync.Mutex
	sources []Source
	index   map[ChannelID]int
	waiters int
	next    int           // round-robin cursor into sources
	wake    chan struct{} // closed and replaced on every notify
}

// NewMultiplexer creates a multiplexer with no channels.
func NewMultiplexer() *Multiplexer {
	return &Multiplexer{
		index: make(map[ChannelID]int),
		wake:  make(chan struct{}),
	}
}

// Register adds a channel to the watched set. All channels must be
// registered before the first wait.
func (m *Multiplexer) Register(src Source) error {
	if src == nil {
		return ErrNilSource
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiters > 0 {
		return ErrRegisterWhileWaiting
	}
	if _, exists := m.index[src.ID()]; exists {
		return fmt.Errorf("register %s: %w", src.ID(), ErrDuplicateChannel)
	}

	m.index[src.ID()] = len(m.sources)
	m.sources = append(m.sources, src)
	src.attach(m)
	return nil
}

// Len returns the number of registered channels
func (m *Multiplexer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// Channels returns the registered channel IDs in registration order.
func (m *Multiplexer) Channels() []ChannelID {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]ChannelID, len(m.sources))
	for i, src := range m.sources {
		ids[i] = src.ID()
	}
	return ids
}

// WaitAny blocks until a registered channel has a pending value and returns
// its ID. It returns false when the timeout elapses or ctx is done first.
// The value is not drained; another consumer may take it before the caller
// does, in which case the caller's TryReceive finds the slot empty.
func (m *Multiplexer) WaitAny(ctx context.Context, timeout time.Duration) (ChannelID, bool) {
	m.mu.Lock()
	m.waiters++
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.waiters--
		m.mu.Unlock()
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		m.mu.Lock()
		id, ok := m.pickLocked()
		wake := m.wake
		m.mu.Unlock()

		if ok {
			return id, true
		}
		if timeout == 0 {
			return "", false
		}

		select {
		case <-wake:
		case <-expired:
			return "", false
		case <-ctx.Done():
			return "", false
		}
	}
}

// pickLocked returns the first ready channel at or after the cursor.
func (m *Multiplexer) pickLocked() (ChannelID, bool) {
	n := len(m.sources)
	for i := 0; i < n; i++ {
		idx := (m.next + i) % n
		if m.sources[idx].Pending() {
			m.next = (idx + 1) % n
			return m.sources[idx].ID(), true
		}
	}
	return "", false
}

func (m *Multiplexer) notify() {
	m.mu.Lock()
	close(m.wake)
	m.wake = make(chan struct{})
	m.mu.Unlock()
}
