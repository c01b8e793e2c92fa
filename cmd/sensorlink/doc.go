// Command sensorlink runs three periodic sensors feeding a primary and a
// reserve controller, with an optional operator HTTP endpoint.
//
// Usage:
//
//	sensorlink [--config file.yaml] [--log-level debug] [--dev] [--metrics-addr :9090] [--duration 5s]
//	sensorlink config [--format yaml|toml]
//
// Every config value can also be set through SENSORLINK_* environment
// variables, e.g. SENSORLINK_CONTROLLER_FAIL_AFTER=0 disables the
// simulated primary fault.
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
package main
