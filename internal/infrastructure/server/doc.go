// Package server exposes a small operator HTTP endpoint next to a running
// system: liveness of the process, a JSON status snapshot, Prometheus
// metrics and on-demand fault injection into the primary controller.
//
// Routes:
//   - GET  /health
//   - GET  /status
//   - GET  /metrics
//   - POST /faults/primary
package server
