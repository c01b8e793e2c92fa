package controller

import (
	"context"
	"sync/atomic"

	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/monitoring"
)

// Reserve is the standby controller. It consumes only while the primary's
// liveness signal is missing.
type Reserve struct {
	*consumer
	active atomic.Bool
}

// Active reports whether the reserve consumed on its last cycle
func (r *Reserve) Active() bool { return r.active.Load() }

// Cycle waits for the primary's heartbeat and stays dormant if it arrives.
// Otherwise it runs the consume sequence in the primary's place.
func (r *Reserve) Cycle(ctx context.Context) error {
	d := r.deps

	alive := d.Liveness.WaitAny(ctx, d.LivenessFlag, r.wait(d.Timeouts.Liveness), true)
	if err := ctx.Err(); err != nil {
		return err
	}
	if alive != 0 {
		r.setActive(false)
		return nil
	}

	r.timedOut(monitoring.WaitLiveness)
	r.setActive(true)

	timer := monitoring.NewTimer(d.Metrics, d.Name, r.role.String())
	r.consume(ctx)
	timer.Stop()
	return ctx.Err()
}

func (r *Reserve) setActive(active bool) {
	if r.active.Swap(active) == active {
		return
	}

	d := r.deps
	now := logging.Tick(uint64(d.Clock.Now()))
	if active {
		d.Metrics.IncFailovers()
		r.log.Warn("failover: primary liveness lost, reserve consuming", now)
	} else {
		r.log.Info("standby: primary liveness restored", now)
	}
	d.Metrics.SetActive(d.Name, r.role.String(), active)
}
