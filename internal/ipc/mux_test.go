package ipc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMux(t *testing.T, ids ...ChannelID) (*Multiplexer, map[ChannelID]*Channel[int32]) {
	t.Helper()
	m := NewMultiplexer()
	chans := make(map[ChannelID]*Channel[int32], len(ids))
	for _, id := range ids {
		ch := NewChannel[int32](id)
		require.NoError(t, m.Register(ch))
		chans[id] = ch
	}
	return m, chans
}

func TestMultiplexerRegister(t *testing.T) {
	m, chans := newMux(t, "a", "b")

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []ChannelID{"a", "b"}, m.Channels())
	assert.ErrorIs(t, m.Register(chans["a"]), ErrDuplicateChannel)
	assert.ErrorIs(t, m.Register(nil), ErrNilSource)
}

func TestMultiplexerRegisterWhileWaiting(t *testing.T) {
	m, _ := newMux(t, "a")

	waiting := make(chan struct{})
	go func() {
		close(waiting)
		m.WaitAny(context.Background(), 200*time.Millisecond)
	}()
	<-waiting

	attempt := 0
	require.Eventually(t, func() bool {
		attempt++
		err := m.Register(NewChannel[int32](ChannelID(fmt.Sprintf("late-%d", attempt))))
		return errors.Is(err, ErrRegisterWhileWaiting)
	}, time.Second, time.Millisecond)
}

func TestMultiplexerReturnsReadyChannel(t *testing.T) {
	m, chans := newMux(t, "a", "b", "c")

	chans["b"].Send(42)

	id, ok := m.WaitAny(context.Background(), 50*time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, ChannelID("b"), id)

	// WaitAny does not drain
	assert.True(t, chans["b"].Pending())
	v, ok := chans["b"].TryReceive()
	require.True(t, ok)
	assert.Equal(t, int32(42), v)
}

func TestMultiplexerTimeout(t *testing.T) {
	m, _ := newMux(t, "a", "b")

	start := time.Now()
	id, ok := m.WaitAny(context.Background(), 30*time.Millisecond)
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestMultiplexerZeroTimeoutPolls(t *testing.T) {
	m, chans := newMux(t, "a")

	_, ok := m.WaitAny(context.Background(), 0)
	assert.False(t, ok)

	chans["a"].Send(1)
	id, ok := m.WaitAny(context.Background(), 0)
	assert.True(t, ok)
	assert.Equal(t, ChannelID("a"), id)
}

func TestMultiplexerWakesOnSend(t *testing.T) {
	m, chans := newMux(t, "a", "b")

	go func() {
		time.Sleep(20 * time.Millisecond)
		chans["a"].Send(9)
	}()

	start := time.Now()
	id, ok := m.WaitAny(context.Background(), 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, ChannelID("a"), id)
	assert.Less(t, time.Since(start), time.Second)
}

func TestMultiplexerContextCancel(t *testing.T) {
	m, _ := newMux(t, "a")
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, ok := m.WaitAny(ctx, -1)
	assert.False(t, ok)
}

func TestMultiplexerRoundRobin(t *testing.T) {
	m, chans := newMux(t, "a", "b", "c")
	for _, ch := range chans {
		ch.Send(1)
	}

	var order []ChannelID
	for i := 0; i < 3; i++ {
		id, ok := m.WaitAny(context.Background(), 0)
		require.True(t, ok)
		order = append(order, id)
		_, ok = chans[id].TryReceive()
		require.True(t, ok)
	}
	assert.Equal(t, []ChannelID{"a", "b", "c"}, order)

	// a busy channel does not starve the others
	chans["a"].Send(2)
	chans["c"].Send(2)
	id, _ := m.WaitAny(context.Background(), 0)
	assert.Equal(t, ChannelID("a"), id)
	chans["a"].TryReceive()
	chans["a"].Send(3)
	id, _ = m.WaitAny(context.Background(), 0)
	assert.Equal(t, ChannelID("c"), id)
}

func TestMultiplexerConcurrentWaiters(t *testing.T) {
	m, chans := newMux(t, "a")

	results := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, ok := m.WaitAny(context.Background(), time.Second)
			results <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	chans["a"].Send(5)

	for i := 0; i < 2; i++ {
		select {
		case ok := <-results:
			assert.True(t, ok, "every waiter sees the ready channel")
		case <-time.After(2 * time.Second):
			t.Fatal("waiter was not woken")
		}
	}
}
