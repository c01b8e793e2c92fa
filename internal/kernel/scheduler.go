package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sensorlink/internal/shared/id"
)

var (
	ErrSchedulerStopped = errors.New("scheduler stopped")
	ErrNilTaskFunc      = errors.New("task function is nil")
)

// Scheduler spawns tasks and tracks them until they exit.
type Scheduler struct {
	clock  *Clock
	logger *logging.Logger

	mu          sync.Mutex
	tasks       []*Task
	stopped     bool
	onTerminate func(*Task)

	wg sync.WaitGroup
}

// NewScheduler creates a scheduler bound to a clock.
func NewScheduler(clock *Clock, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		clock:  clock,
		logger: logger.Component("scheduler"),
	}
}

// OnTerminate registers a hook called whenever a task is terminated.
// It must be set before tasks are spawned.
func (s *Scheduler) OnTerminate(fn func(*Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTerminate = fn
}

// Clock returns the scheduler's tick source
func (s *Scheduler) Clock() *Clock { return s.clock }

// Spawn starts fn on its own goroutine. The task's context is derived from
// ctx, so cancelling ctx stops the task as well.
func (s *Scheduler) Spawn(ctx context.Context, name string, priority Priority, fn TaskFunc) (*Task, error) {
	if fn == nil {
		return nil, ErrNilTaskFunc
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, fmt.Errorf("spawn %s: %w", name, ErrSchedulerStopped)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	task := &Task{
		id:          id.NewTaskID(),
		name:        name,
		priority:    priority,
		ctx:         taskCtx,
		cancel:      cancel,
		done:        make(chan struct{}),
		onTerminate: s.onTerminate,
	}
	task.state.Store(int32(StateRunning))
	s.tasks = append(s.tasks, task)
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Debug("task spawned",
		zap.String("task", name),
		zap.String("task_id", task.id.String()),
		zap.Uint8("priority", uint8(priority)),
		logging.Tick(uint64(s.clock.Now())),
	)

	go s.run(task, fn)
	return task, nil
}

func (s *Scheduler) run(task *Task, fn TaskFunc) {
	defer s.wg.Done()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.name, r)
			s.logger.Error("task panicked", zap.String("task", task.name), zap.Any("panic", r))
		}
		task.finish(err)
		s.logger.Debug("task exited",
			zap.String("task", task.name),
			zap.String("state", task.State().String()),
			zap.Error(err),
		)
	}()

	err = fn(task.ctx, task)
}

// Tasks returns every task spawned so far, in spawn order.
func (s *Scheduler) Tasks() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Stop cancels every task's context and refuses further spawns. Tasks end
// in StateExited; only Task.Terminate yields StateTerminated.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	tasks := make([]*Task, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
}

// Wait blocks until every spawned task has exited and returns their
// combined errors. Cancellation and deliberate termination are not errors.
func (s *Scheduler) Wait() error {
	s.wg.Wait()

	var err error
	for _, t := range s.Tasks() {
		terr := t.Err()
		if terr == nil || errors.Is(terr, context.Canceled) || t.Terminated() {
			continue
		}
		err = multierr.Append(err, fmt.Errorf("task %s: %w", t.name, terr))
	}
	return err
}
