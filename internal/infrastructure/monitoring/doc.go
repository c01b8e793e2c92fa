/*
Package monitoring provides Prometheus metrics for the IPC core.

# Overview

Every Metrics value owns a private registry, so tests and multiple
coordinators in one process never collide on registration. A nil *Metrics
is accepted everywhere and records nothing.

# Metrics

- Channel sends, overwrites (lost values) and receives per controller
- Wait timeouts per controller and wait kind
- Multiplexer misses (flag seen, nothing to drain)
- Controller cycle duration and active-consumer gauge
- Failover count and task terminations
- Operator HTTP request count and latency

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
