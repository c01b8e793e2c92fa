// Package kernel adapts goroutines to the small scheduling surface the IPC
// core needs: a monotonic tick clock, periodic self-paced delays, and tasks
// that can be spawned with a priority and terminated unilaterally.
//
// The core never reaches for goroutines or timers directly. Producers and
// controllers receive a *Task and a *Clock and block only through
// DelayUntil or the ipc wait operations, all of which return as soon as the
// task is terminated.
//
// Example Usage:
//
//	clock := kernel.NewClock(time.Millisecond)
//	sched := kernel.NewScheduler(clock, logger)
//	task, err := sched.Spawn(ctx, "sensor1", kernel.PriorityProducer, producer.Run)
//	...
//	task.Terminate()
//	err = sched.Wait()
package kernel
