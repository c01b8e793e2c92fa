package kernel

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockConversions(t *testing.T) {
	clock := NewClock(2 * time.Millisecond)

	assert.Equal(t, 2*time.Millisecond, clock.TickLength())
	assert.Equal(t, 10*time.Millisecond, clock.Duration(5))
	assert.Equal(t, Tick(5), clock.Ticks(11*time.Millisecond))
	assert.Equal(t, Tick(0), clock.Ticks(-time.Second))
}

func TestClockDurationSaturates(t *testing.T) {
	clock := NewClock(time.Millisecond)

	d := clock.Duration(Tick(math.MaxUint64))
	assert.Equal(t, time.Duration(math.MaxInt64), d)
	assert.Greater(t, clock.Duration(Tick(math.MaxInt64/int64(time.Millisecond))+1), time.Duration(0))
}

func TestClockRestart(t *testing.T) {
	clock := NewClock(time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	require.GreaterOrEqual(t, clock.Now(), Tick(30))

	clock.Restart()
	assert.Less(t, clock.Now(), Tick(20))
}

func TestClockDefaultsTickLength(t *testing.T) {
	assert.Equal(t, time.Millisecond, NewClock(0).TickLength())
}

func TestClockIsMonotonic(t *testing.T) {
	clock := NewClock(time.Millisecond)

	prev := clock.Now()
	for i := 0; i < 5; i++ {
		time.Sleep(2 * time.Millisecond)
		now := clock.Now()
		assert.GreaterOrEqual(t, now, prev)
		prev = now
	}
	assert.Greater(t, prev, Tick(0))
}

func TestDelayUntilAdvancesByExactlyOnePeriod(t *testing.T) {
	clock := NewClock(time.Millisecond)
	ctx := context.Background()

	var next Tick
	for i := 1; i <= 3; i++ {
		require.NoError(t, DelayUntil(ctx, clock, &next, 10))
		assert.Equal(t, Tick(10*i), next)
		assert.GreaterOrEqual(t, clock.Now(), next)
	}
}

func TestDelayUntilPastDeadlineReturnsImmediately(t *testing.T) {
	clock := NewClock(time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	var next Tick
	start := time.Now()
	require.NoError(t, DelayUntil(context.Background(), clock, &next, 1))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestDelayUntilCancelled(t *testing.T) {
	clock := NewClock(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	var next Tick
	err := DelayUntil(ctx, clock, &next, 10_000)
	assert.ErrorIs(t, err, context.Canceled)
}
