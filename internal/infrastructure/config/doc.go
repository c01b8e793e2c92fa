// Package config provides 12-factor configuration management.
//
// Defaults reproduce the stock timing. A YAML or TOML file can
// override them, and environment variables override both.
//
// Configuration Sections:
//   - Clock: tick length
//   - Sensors: counter range and period of sensor1, sensor2a, sensor2b
//   - Controller: data-ready, multiplexer and liveness timeouts, fault tick
//   - Logging: log level and output format
//   - Server: operator HTTP address
//
// Example Usage:
//
//	cfg, err := config.LoadFile("sensorlink.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Environment Variables:
//   - SENSORLINK_CLOCK_TICK
//   - SENSORLINK_SENSORS_SENSOR1_BEGIN, _END, _PERIOD (and SENSOR2A, SENSOR2B)
//   - SENSORLINK_CONTROLLER_DATA_READY_TIMEOUT, _MULTIPLEXER_TIMEOUT,
//     _LIVENESS_TIMEOUT, _FAIL_AFTER
//   - SENSORLINK_LOGGING_LEVEL, SENSORLINK_LOGGING_DEV
//   - SENSORLINK_SERVER_ADDR
package config
