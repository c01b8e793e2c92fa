package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sensorlink/internal/ipc"
	"github.com/GriffinCanCode/sensorlink/internal/kernel"
)

var (
	// ErrSimulatedFault is returned by a primary's cycle once its failure
	// deadline has passed. It is not recoverable.
	ErrSimulatedFault = errors.New("simulated controller fault")

	ErrUnknownRole  = errors.New("unknown controller role")
	ErrInvalidDeps  = errors.New("invalid controller dependencies")
	errNoRouteFound = errors.New("no route for channel")
)

// Controller is one consumer of the shared sensor channels.
type Controller interface {
	Name() string
	Role() Role
	// Cycle runs one iteration of the role's loop. It returns ctx.Err()
	// once ctx is done and ErrSimulatedFault when the role gives up for good.
	Cycle(ctx context.Context) error
	Readings() Readings
	Active() bool
}

// Timeouts bounds each blocking wait, in ticks.
type Timeouts struct {
	DataReady   kernel.Tick
	Multiplexer kernel.Tick
	Liveness    kernel.Tick
}

// DefaultTimeouts returns the stock wait bounds
func DefaultTimeouts() Timeouts {
	return Timeouts{DataReady: 500, Multiplexer: 200, Liveness: 500}
}

// Deps is everything a controller shares with the rest of the system.
type Deps struct {
	Name string

	DataReady    *ipc.SignalSet
	DataFlags    ipc.Flags
	Liveness     *ipc.SignalSet
	LivenessFlag ipc.Flags
	Mux          *ipc.Multiplexer
	Router       Router
	Clock        *kernel.Clock

	Timeouts Timeouts
	// FailAfter is the tick at which a primary faults. Zero disables it.
	FailAfter kernel.Tick

	Logger  *logging.Logger
	Metrics *monitoring.Metrics
}

func (d Deps) validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidDeps)
	case d.DataReady == nil || d.Liveness == nil:
		return fmt.Errorf("%w: signal sets are required", ErrInvalidDeps)
	case d.DataFlags == 0 || d.LivenessFlag == 0:
		return fmt.Errorf("%w: flags are required", ErrInvalidDeps)
	case d.Mux == nil || d.Clock == nil:
		return fmt.Errorf("%w: multiplexer and clock are required", ErrInvalidDeps)
	case len(d.Router) == 0:
		return fmt.Errorf("%w: router is empty", ErrInvalidDeps)
	case d.Timeouts.DataReady == 0 || d.Timeouts.Multiplexer == 0 || d.Timeouts.Liveness == 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidDeps)
	}
	return nil
}

// New creates the controller implementing role.
func New(role Role, deps Deps) (Controller, error) {
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("controller %s: %w", deps.Name, err)
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}

	base := newConsumer(role, deps)
	switch role {
	case RolePrimary:
		return &Primary{consumer: base}, nil
	case RoleReserve:
		return &Reserve{consumer: base}, nil
	default:
		return nil, fmt.Errorf("controller %s: %w: %d", deps.Name, ErrUnknownRole, role)
	}
}

// Run drives c until ctx is done or c faults. A fault terminates task.
func Run(ctx context.Context, c Controller, task *kernel.Task) error {
	for {
		err := c.Cycle(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrSimulatedFault) {
			task.Terminate()
			return nil
		}
		return err
	}
}

// consumer holds the state and consume sequence both roles share.
type consumer struct {
	role Role
	deps Deps
	log  *logging.Logger

	// quiet keeps timeout chatter down while nobody is producing
	quiet *rate.Limiter

	mu       sync.RWMutex
	readings Readings
}

func newConsumer(role Role, deps Deps) *consumer {
	return &consumer{
		role: role,
		deps: deps,
		log: logging.Wrap(deps.Logger.Component("controller").With(
			zap.String("controller", deps.Name),
			zap.String("role", role.String()),
		)),
		quiet: rate.NewLimiter(rate.Every(time.Second), 3),
	}
}

// Name returns the controller's name
func (c *consumer) Name() string { return c.deps.Name }

// Role returns the controller's role
func (c *consumer) Role() Role { return c.role }

// Readings returns a snapshot of the latest received values.
func (c *consumer) Readings() Readings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.readings
}

func (c *consumer) wait(t kernel.Tick) time.Duration {
	return c.deps.Clock.Duration(t)
}

// consume waits for a data-ready flag, asks the multiplexer which channel is
// ready and drains it. It reports whether a value was received.
func (c *consumer) consume(ctx context.Context) bool {
	d := c.deps
	defer c.countCycle()

	matched := d.DataReady.WaitAny(ctx, d.DataFlags, c.wait(d.Timeouts.DataReady), true)
	if matched == 0 {
		if ctx.Err() == nil {
			c.timedOut(monitoring.WaitDataReady)
		}
		return false
	}

	id, ok := d.Mux.WaitAny(ctx, c.wait(d.Timeouts.Multiplexer))
	if !ok {
		if ctx.Err() == nil {
			c.miss(matched, "")
		}
		return false
	}

	route, ok := d.Router[id]
	if !ok {
		c.log.Warn("channel ignored", zap.String("channel", string(id)), zap.Error(errNoRouteFound))
		return false
	}

	v, ok := route.Receive()
	if !ok {
		// the other controller drained it first
		c.miss(matched, id)
		return false
	}
	d.Metrics.RecordReceive(string(id), d.Name)

	r := c.record(route.Slot, id, v)
	c.log.Info("controller received data",
		logging.Tick(uint64(r.At)),
		zap.Int32("sensor1", r.Sensor1),
		zap.Int32("sensor2", r.Sensor2),
		zap.String("channel", string(id)),
	)
	return true
}

func (c *consumer) record(slot Slot, id ipc.ChannelID, v int32) Readings {
	now := c.deps.Clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch slot {
	case SlotSensor1:
		c.readings.Sensor1 = v
	case SlotSensor2:
		c.readings.Sensor2 = v
		c.readings.Sensor2Source = id
	}
	c.readings.At = now
	c.readings.Received++
	return c.readings
}

func (c *consumer) countCycle() {
	c.mu.Lock()
	c.readings.Cycles++
	c.mu.Unlock()
}

func (c *consumer) timedOut(wait string) {
	c.deps.Metrics.RecordTimeout(c.deps.Name, wait)
	if c.quiet.Allow() {
		c.log.Debug("wait timed out",
			zap.String("wait", wait),
			logging.Tick(uint64(c.deps.Clock.Now())),
		)
	}
}

func (c *consumer) miss(flags ipc.Flags, id ipc.ChannelID) {
	c.deps.Metrics.RecordMiss(c.deps.Name)
	if c.quiet.Allow() {
		c.log.Debug("multiplexer miss",
			zap.String("flags", c.deps.DataReady.Describe(flags)),
			zap.String("channel", string(id)),
			logging.Tick(uint64(c.deps.Clock.Now())),
		)
	}
}
