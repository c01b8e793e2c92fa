package sensor

import (
	"errors"
	"fmt"
)

var ErrInvalidRange = errors.New("counter begin exceeds end")

// Counter is a bounded counter that wraps from End back to Begin.
type Counter struct {
	Begin int32
	End   int32
}

// NewCounter validates a counter range.
func NewCounter(begin, end int32) (Counter, error) {
	if begin > end {
		return Counter{}, fmt.Errorf("[%d, %d]: %w", begin, end, ErrInvalidRange)
	}
	return Counter{Begin: begin, End: end}, nil
}

// Next returns the value after v.
func (c Counter) Next(v int32) int32 {
	if v < c.End {
		return v + 1
	}
	return c.Begin
}

// Cycle returns how many steps it takes to come back to the same value.
func (c Counter) Cycle() int {
	return int(c.End) - int(c.Begin) + 1
}

// Contains reports whether v lies within the range.
func (c Counter) Contains(v int32) bool {
	return v >= c.Begin && v <= c.End
}
