// Package app owns the lifecycle of a running sensorlink system.
//
// The Coordinator builds every shared object once (channels, the
// multiplexer, the data-ready and liveness signal sets, producers and
// controllers) and hands them to each task by reference. Nothing is
// reachable through package-level state.
//
// Key Components:
//   - Coordinator: builds, starts and stops the system
//   - Status: JSON snapshot of tasks, controllers and channels
//   - TerminatePrimary: operator-triggered fault injection
//
// Example Usage:
//
//	coord, err := app.New(cfg, logger, metrics)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := coord.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	err = coord.Wait()
package app
