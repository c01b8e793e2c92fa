package controller

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/monitoring"
)

// Primary is the controller that consumes while healthy and keeps the
// reserve dormant through the liveness signal.
type Primary struct {
	*consumer
	active  atomic.Bool
	faulted atomic.Bool
}

// Active reports whether the primary is still consuming
func (p *Primary) Active() bool { return p.active.Load() }

// Cycle raises liveness, consumes once and then checks the fault deadline.
func (p *Primary) Cycle(ctx context.Context) error {
	if p.faulted.Load() {
		return ErrSimulatedFault
	}
	if err := ctx.Err(); err != nil {
		p.stand()
		return err
	}

	d := p.deps
	if !p.active.Swap(true) {
		d.Metrics.SetActive(d.Name, p.role.String(), true)
	}

	timer := monitoring.NewTimer(d.Metrics, d.Name, p.role.String())
	d.Liveness.Set(d.LivenessFlag)
	p.consume(ctx)
	timer.Stop()

	if now := d.Clock.Now(); d.FailAfter > 0 && now >= d.FailAfter {
		p.faulted.Store(true)
		p.stand()
		p.log.Error("controller had an error", logging.Tick(uint64(now)))
		return fmt.Errorf("%s at tick %d: %w", d.Name, now, ErrSimulatedFault)
	}
	if err := ctx.Err(); err != nil {
		p.stand()
		return err
	}
	return nil
}

// stand clears the active mark once the primary stops consuming for good.
func (p *Primary) stand() {
	if p.active.Swap(false) {
		p.deps.Metrics.SetActive(p.deps.Name, p.role.String(), false)
		p.log.Info("controller stopped consuming", logging.Tick(uint64(p.deps.Clock.Now())))
	}
}
