package sensor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sensorlink/internal/ipc"
	"github.com/GriffinCanCode/sensorlink/internal/kernel"
)

var ErrMissingDependency = errors.New("channel, signal set and clock are required")

// Data-ready flags, one per sensor.
const (
	FlagSensor1  = ipc.Flags(1 << 0)
	FlagSensor2A = ipc.Flags(1 << 1)
	FlagSensor2B = ipc.Flags(1 << 2)

	// AllFlags is every data-ready flag
	AllFlags = FlagSensor1 | FlagSensor2A | FlagSensor2B
)

// Spec describes a producer.
type Spec struct {
	Name   string
	Begin  int32
	End    int32
	Period kernel.Tick
	Flag   ipc.Flags
}

// Producer periodically advances a counter and publishes it.
type Producer struct {
	spec    Spec
	counter Counter
	value   atomic.Int32

	channel *ipc.Channel[int32]
	ready   *ipc.SignalSet
	clock   *kernel.Clock
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewProducer creates a producer publishing to ch and raising spec.Flag on ready.
func NewProducer(spec Spec, ch *ipc.Channel[int32], ready *ipc.SignalSet, clock *kernel.Clock, logger *logging.Logger) (*Producer, error) {
	counter, err := NewCounter(spec.Begin, spec.End)
	if err != nil {
		return nil, fmt.Errorf("sensor %s: %w", spec.Name, err)
	}
	if spec.Period == 0 {
		return nil, fmt.Errorf("sensor %s: period must be positive", spec.Name)
	}
	if spec.Flag == 0 {
		return nil, fmt.Errorf("sensor %s: data-ready flag must be set", spec.Name)
	}
	if ch == nil || ready == nil || clock == nil {
		return nil, fmt.Errorf("sensor %s: %w", spec.Name, ErrMissingDependency)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	p := &Producer{
		spec:    spec,
		counter: counter,
		channel: ch,
		ready:   ready,
		clock:   clock,
		logger:  logger,
	}
	p.value.Store(spec.Begin)
	return p, nil
}

// WithMetrics adds metrics tracking to the producer
func (p *Producer) WithMetrics(metrics *monitoring.Metrics) *Producer {
	p.metrics = metrics
	return p
}

// Spec returns the producer's description
func (p *Producer) Spec() Spec { return p.spec }

// Value returns the most recently published value, or Begin before the first step.
func (p *Producer) Value() int32 { return p.value.Load() }

// Step runs one period: advance, publish, raise the data-ready flag.
func (p *Producer) Step() int32 {
	return p.step(p.logger)
}

func (p *Producer) step(log *logging.Logger) int32 {
	next := p.counter.Next(p.value.Load())
	p.value.Store(next)

	overwrote := p.channel.Send(next)
	p.ready.Set(p.spec.Flag)
	p.metrics.RecordSend(string(p.channel.ID()), overwrote)

	if ce := log.Check(zap.DebugLevel, "sensor published"); ce != nil {
		ce.Write(
			zap.Int32("value", next),
			zap.Bool("overwrote", overwrote),
			logging.Tick(uint64(p.clock.Now())),
		)
	}
	return next
}

// Run is the producer's task body. It steps once per period until the task
// is terminated.
func (p *Producer) Run(ctx context.Context, task *kernel.Task) error {
	log := p.logger.Task(task.Name(), task.ID().String())
	log.Info("sensor started",
		zap.Int32("begin", p.spec.Begin),
		zap.Int32("end", p.spec.End),
		zap.Uint64("period", uint64(p.spec.Period)),
	)

	next := p.clock.Now()
	for {
		if err := kernel.DelayUntil(ctx, p.clock, &next, p.spec.Period); err != nil {
			log.Info("sensor stopped", zap.Int32("last", p.Value()))
			return err
		}
		p.step(log)
	}
}
