// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every producer and controller logs through a child logger created with
// Task, so each line carries the task name and its ULID. Status lines for
// received sensor data are emitted at info level; wait timeouts at debug.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	log := logger.Task("controller-1", string(taskID))
//	log.Info("controller received data", logging.Tick(now), zap.Int32("sensor1", v))
package logging
