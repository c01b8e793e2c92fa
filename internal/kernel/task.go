package kernel

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/GriffinCanCode/sensorlink/internal/shared/id"
)

// Priority is the scheduling priority a task was created with.
// Goroutines have no priorities, so it is advisory and used for logs only.
type Priority uint8

const (
	PriorityIdle       Priority = 0
	PriorityProducer   Priority = 1
	PriorityController Priority = 2
)

// State represents a task lifecycle state
type State int32

const (
	StateReady State = iota
	StateRunning
	StateTerminated
	StateExited
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// TaskFunc is the body of a task. It must return once ctx is done.
type TaskFunc func(ctx context.Context, task *Task) error

// Task is a handle to a spawned task.
type Task struct {
	id       id.TaskID
	name     string
	priority Priority

	ctx    context.Context
	cancel context.CancelFunc
	state  atomic.Int32
	done   chan struct{}

	mu  sync.Mutex
	err error

	onTerminate func(*Task)
}

// ID returns the task's unique ID
func (t *Task) ID() id.TaskID { return t.id }

// Name returns the task's name
func (t *Task) Name() string { return t.name }

// Priority returns the priority the task was spawned with
func (t *Task) Priority() Priority { return t.priority }

// State returns the current lifecycle state
func (t *Task) State() State { return State(t.state.Load()) }

// Done is closed once the task body has returned.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the error the task body exited with, if any.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Terminated reports whether the task was removed with Terminate.
func (t *Task) Terminated() bool { return t.State() == StateTerminated }

// Terminate removes the task immediately and for good. Every blocking wait
// inside the task returns, and the task body is expected to exit. Calling it
// from inside the task itself is allowed. Repeated calls are no-ops.
func (t *Task) Terminate() {
	for {
		cur := t.state.Load()
		if State(cur) == StateTerminated || State(cur) == StateExited {
			return
		}
		if t.state.CompareAndSwap(cur, int32(StateTerminated)) {
			break
		}
	}
	t.cancel()
	if t.onTerminate != nil {
		t.onTerminate(t)
	}
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	t.state.CompareAndSwap(int32(StateRunning), int32(StateExited))
	t.cancel()
	close(t.done)
}
