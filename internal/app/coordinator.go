package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sensorlink/internal/controller"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/config"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sensorlink/internal/ipc"
	"github.com/GriffinCanCode/sensorlink/internal/kernel"
	"github.com/GriffinCanCode/sensorlink/internal/sensor"
	"github.com/GriffinCanCode/sensorlink/internal/shared/id"
)

// Task and channel names
const (
	Sensor1  = "sensor1"
	Sensor2A = "sensor2a"
	Sensor2B = "sensor2b"

	PrimaryName = "controller-1"
	ReserveName = "controller-2"
)

// LivenessFlag is the primary's heartbeat in the liveness signal set.
const LivenessFlag = ipc.Flags(1 << 0)

var (
	ErrAlreadyStarted = errors.New("system already started")
	ErrNotStarted     = errors.New("system not started")
)

// Coordinator owns every shared object of a running system.
type Coordinator struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics
	runID   id.RunID

	clock *kernel.Clock
	sched *kernel.Scheduler

	channels    []*ipc.Channel[int32]
	mux         *ipc.Multiplexer
	dataReady   *ipc.SignalSet
	liveness    *ipc.SignalSet
	producers   []*sensor.Producer
	controllers []controller.Controller

	mu      sync.Mutex
	started bool
	tasks   map[string]*kernel.Task
}

// New builds a system from cfg. Nothing runs until Start, and the clock
// reads tick zero again when Start is called.
// A nil logger or metrics disables that concern.
func New(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics) (*Coordinator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	tick, err := cfg.Clock.TickLength()
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		cfg:       cfg,
		logger:    logger.Component("coordinator"),
		metrics:   metrics,
		runID:     id.NewRunID(),
		clock:     kernel.NewClock(tick),
		mux:       ipc.NewMultiplexer(),
		dataReady: ipc.NewSignalSet("data-ready"),
		liveness:  ipc.NewSignalSet("liveness"),
		tasks:     make(map[string]*kernel.Task),
	}
	c.sched = kernel.NewScheduler(c.clock, logger)
	c.sched.OnTerminate(c.onTerminate)
	c.liveness.Define(LivenessFlag, "alive")

	if err := c.buildSensors(logger); err != nil {
		return nil, err
	}
	if err := c.buildControllers(logger); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Coordinator) buildSensors(logger *logging.Logger) error {
	specs := []struct {
		name string
		cfg  config.SensorConfig
		flag ipc.Flags
	}{
		{Sensor1, c.cfg.Sensors.Sensor1, sensor.FlagSensor1},
		{Sensor2A, c.cfg.Sensors.Sensor2A, sensor.FlagSensor2A},
		{Sensor2B, c.cfg.Sensors.Sensor2B, sensor.FlagSensor2B},
	}

	for _, s := range specs {
		ch := ipc.NewChannel[int32](ipc.ChannelID(s.name))
		if err := c.mux.Register(ch); err != nil {
			return err
		}
		c.dataReady.Define(s.flag, s.name)

		p, err := sensor.NewProducer(sensor.Spec{
			Name:   s.name,
			Begin:  s.cfg.Begin,
			End:    s.cfg.End,
			Period: kernel.Tick(s.cfg.Period),
			Flag:   s.flag,
		}, ch, c.dataReady, c.clock, logger.Component("sensor"))
		if err != nil {
			return err
		}

		c.channels = append(c.channels, ch)
		c.producers = append(c.producers, p.WithMetrics(c.metrics))
	}
	return nil
}

func (c *Coordinator) buildControllers(logger *logging.Logger) error {
	router := controller.Router{}.
		Add(c.channels[0], controller.SlotSensor1).
		Add(c.channels[1], controller.SlotSensor2).
		Add(c.channels[2], controller.SlotSensor2)

	cc := c.cfg.Controller
	deps := controller.Deps{
		DataReady:    c.dataReady,
		DataFlags:    sensor.AllFlags,
		Liveness:     c.liveness,
		LivenessFlag: LivenessFlag,
		Mux:          c.mux,
		Router:       router,
		Clock:        c.clock,
		Timeouts: controller.Timeouts{
			DataReady:   kernel.Tick(cc.DataReadyTimeout),
			Multiplexer: kernel.Tick(cc.MultiplexerTimeout),
			Liveness:    kernel.Tick(cc.LivenessTimeout),
		},
		FailAfter: kernel.Tick(cc.FailAfter),
		Logger:    logger,
		Metrics:   c.metrics,
	}

	for _, r := range []struct {
		name string
		role controller.Role
	}{
		{PrimaryName, controller.RolePrimary},
		{ReserveName, controller.RoleReserve},
	} {
		d := deps
		d.Name = r.name
		ctrl, err := controller.New(r.role, d)
		if err != nil {
			return err
		}
		c.controllers = append(c.controllers, ctrl)
	}
	return nil
}

// RunID returns the identifier of this run
func (c *Coordinator) RunID() id.RunID { return c.runID }

// Clock returns the system tick source
func (c *Coordinator) Clock() *kernel.Clock { return c.clock }

// Producers returns the sensors in catalogue order
func (c *Coordinator) Producers() []*sensor.Producer { return c.producers }

// Controllers returns the primary and then the reserve
func (c *Coordinator) Controllers() []controller.Controller { return c.controllers }

// Start spawns the producers and then the controllers. Cancelling ctx stops
// every task.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true
	c.clock.Restart()

	for _, p := range c.producers {
		task, err := c.sched.Spawn(ctx, p.Spec().Name, kernel.PriorityProducer, p.Run)
		if err != nil {
			c.sched.Stop()
			return fmt.Errorf("start %s: %w", p.Spec().Name, err)
		}
		c.tasks[task.Name()] = task
	}

	for _, ctrl := range c.controllers {
		ctrl := ctrl // per-iteration copy (go 1.21 loop semantics)
		task, err := c.sched.Spawn(ctx, ctrl.Name(), kernel.PriorityController,
			func(ctx context.Context, t *kernel.Task) error {
				return controller.Run(ctx, ctrl, t)
			})
		if err != nil {
			c.sched.Stop()
			return fmt.Errorf("start %s: %w", ctrl.Name(), err)
		}
		c.tasks[task.Name()] = task
	}

	c.logger.Info("system started",
		zap.String("run_id", c.runID.String()),
		zap.Duration("tick", c.clock.TickLength()),
		zap.Int("channels", c.mux.Len()),
		zap.Uint64("fail_after", c.cfg.Controller.FailAfter),
	)
	return nil
}

// Stop cancels every task. Wait returns once they have exited.
func (c *Coordinator) Stop() {
	c.sched.Stop()
}

// Wait blocks until every task has exited.
func (c *Coordinator) Wait() error {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()

	if !started {
		return ErrNotStarted
	}
	err := c.sched.Wait()
	c.logger.Info("system stopped", logging.Tick(uint64(c.clock.Now())), zap.Error(err))
	return err
}

// TerminatePrimary removes the primary controller's task immediately, as if
// it had faulted. It reports false if the primary is not running.
func (c *Coordinator) TerminatePrimary() bool {
	c.mu.Lock()
	task, ok := c.tasks[PrimaryName]
	c.mu.Unlock()

	if !ok || task.State() != kernel.StateRunning {
		return false
	}

	c.logger.Warn("primary terminated by operator", logging.Tick(uint64(c.clock.Now())))
	task.Terminate()
	return true
}

func (c *Coordinator) onTerminate(t *kernel.Task) {
	c.metrics.RecordTermination(t.Name())
	c.logger.Warn("task terminated",
		zap.String("task", t.Name()),
		zap.String("task_id", t.ID().String()),
		logging.Tick(uint64(c.clock.Now())),
	)
}
