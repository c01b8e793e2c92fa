// Package controller implements the two consumer roles that share the
// sensor channels.
//
// A Primary refreshes the liveness signal on every cycle, then waits for a
// data-ready flag, asks the multiplexer which channel is ready and drains
// it. After a configurable number of ticks it reports ErrSimulatedFault and
// Run removes its task for good.
//
// A Reserve watches the liveness signal. While the primary keeps raising
// it, the reserve stays dormant. Once a liveness wait times out, the reserve
// runs the same consume sequence as the primary until liveness returns.
//
// Example Usage:
//
//	router := controller.Router{}
//	router.Add(sensor1, controller.SlotSensor1)
//	ctrl, err := controller.New(controller.RolePrimary, controller.Deps{...})
//	task, err := sched.Spawn(ctx, ctrl.Name(), kernel.PriorityController,
//	    func(ctx context.Context, t *kernel.Task) error {
//	        return controller.Run(ctx, ctrl, t)
//	    })
package controller
