package ipc

import (
	"context"
	"fmt"
	"math/bits"
	"strings"
	"sync"
	"time"
)

// Flags is a bitmask of signals within a SignalSet.
type Flags uint32

// Bit returns the flag for bit position n.
func Bit(n uint) Flags { return Flags(1) << n }

// Has reports whether every flag in o is set in f.
func (f Flags) Has(o Flags) bool { return o != 0 && f&o == o }

// Any reports whether at least one flag in o is set in f.
func (f Flags) Any(o Flags) bool { return f&o != 0 }

// Count returns the number of flags set
func (f Flags) Count() int { return bits.OnesCount32(uint32(f)) }

// SignalSet is a named group of independently settable flags.
type SignalSet struct {
	name string

	mu    sync.Mutex
	bits  Flags
	wake  chan struct{} // closed and replaced whenever a new flag is raised
	names map[Flags]string
}

// NewSignalSet creates a set with every flag cleared.
func NewSignalSet(name string) *SignalSet {
	return &SignalSet{
		name:  name,
		wake:  make(chan struct{}),
		names: make(map[Flags]string),
	}
}

// Name returns the set's name
func (s *SignalSet) Name() string { return s.name }

// Define attaches a human-readable name to a single flag for Describe.
func (s *SignalSet) Define(flag Flags, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[flag] = name
}

// Set raises flags and wakes any waiter on them. Raising an already-set
// flag changes nothing. It returns the flags set after the call.
func (s *SignalSet) Set(flags Flags) Flags {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bits|flags != s.bits {
		s.bits |= flags
		close(s.wake)
		s.wake = make(chan struct{})
	}
	return s.bits
}

// Clear lowers flags and returns the flags that were set before the call.
func (s *SignalSet) Clear(flags Flags) Flags {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.bits
	s.bits &^= flags
	return before
}

// Get returns the flags currently set.
func (s *SignalSet) Get() Flags {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bits
}

// WaitAny blocks until at least one of flags is set and returns the subset
// of flags that matched. With autoClear the matched flags are cleared before
// the lock is released. It returns zero when the timeout elapses or ctx is
// done first.
func (s *SignalSet) WaitAny(ctx context.Context, flags Flags, timeout time.Duration, autoClear bool) Flags {
	if flags == 0 {
		return 0
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	for {
		s.mu.Lock()
		matched := s.bits & flags
		if matched != 0 && autoClear {
			s.bits &^= matched
		}
		wake := s.wake
		s.mu.Unlock()

		if matched != 0 {
			return matched
		}
		if timeout == 0 {
			return 0
		}

		select {
		case <-wake:
		case <-expired:
			return 0
		case <-ctx.Done():
			return 0
		}
	}
}

// Describe renders flags using the names given to Define, e.g. "sensor1|sensor2b".
func (s *SignalSet) Describe(flags Flags) string {
	if flags == 0 {
		return "none"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var parts []string
	for n := uint(0); n < 32; n++ {
		bit := Bit(n)
		if flags&bit == 0 {
			continue
		}
		if name, ok := s.names[bit]; ok {
			parts = append(parts, name)
		} else {
			parts = append(parts, fmt.Sprintf("bit%d", n))
		}
	}
	return strings.Join(parts, "|")
}
