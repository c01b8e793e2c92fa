package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	tick, err := cfg.Clock.TickLength()
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, tick)

	assert.Equal(t, SensorConfig{Begin: 100, End: 199, Period: 200}, cfg.Sensors.Sensor1)
	assert.Equal(t, SensorConfig{Begin: 200, End: 249, Period: 500}, cfg.Sensors.Sensor2A)
	assert.Equal(t, SensorConfig{Begin: 250, End: 299, Period: 1400}, cfg.Sensors.Sensor2B)

	assert.Equal(t, uint64(500), cfg.Controller.DataReadyTimeout)
	assert.Equal(t, uint64(200), cfg.Controller.MultiplexerTimeout)
	assert.Equal(t, uint64(500), cfg.Controller.LivenessTimeout)
	assert.Equal(t, uint64(2000), cfg.Controller.FailAfter)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Empty(t, cfg.Server.Addr)

	assert.NoError(t, cfg.Validate())
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "1ms", cfg.Clock.Tick)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("SENSORLINK_CLOCK_TICK", "2ms")
	t.Setenv("SENSORLINK_SENSORS_SENSOR1_BEGIN", "10")
	t.Setenv("SENSORLINK_SENSORS_SENSOR1_END", "20")
	t.Setenv("SENSORLINK_SENSORS_SENSOR2B_PERIOD", "700")
	t.Setenv("SENSORLINK_CONTROLLER_FAIL_AFTER", "0")
	t.Setenv("SENSORLINK_CONTROLLER_LIVENESS_TIMEOUT", "250")
	t.Setenv("SENSORLINK_LOGGING_LEVEL", "debug")
	t.Setenv("SENSORLINK_LOGGING_DEV", "true")
	t.Setenv("SENSORLINK_SERVER_ADDR", ":9100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2ms", cfg.Clock.Tick)
	assert.Equal(t, SensorConfig{Begin: 10, End: 20, Period: 200}, cfg.Sensors.Sensor1)
	assert.Equal(t, uint64(700), cfg.Sensors.Sensor2B.Period)
	assert.Equal(t, uint64(0), cfg.Controller.FailAfter)
	assert.Equal(t, uint64(250), cfg.Controller.LivenessTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, ":9100", cfg.Server.Addr)

	// untouched values keep their defaults
	assert.Equal(t, uint64(500), cfg.Controller.DataReadyTimeout)
	assert.Equal(t, int32(200), cfg.Sensors.Sensor2A.Begin)
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("SENSORLINK_SENSORS_SENSOR1_PERIOD", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")

	// LoadOrDefault falls back instead of failing
	assert.Equal(t, uint64(200), LoadOrDefault().Sensors.Sensor1.Period)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "sensorlink.yaml", `
clock:
  tick: 500us
sensors:
  sensor2a:
    begin: 1
    end: 5
    period: 50
controller:
  fail_after: 300
logging:
  level: warn
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	tick, err := cfg.Clock.TickLength()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Microsecond, tick)
	assert.Equal(t, SensorConfig{Begin: 1, End: 5, Period: 50}, cfg.Sensors.Sensor2A)
	assert.Equal(t, uint64(300), cfg.Controller.FailAfter)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, SensorConfig{Begin: 100, End: 199, Period: 200}, cfg.Sensors.Sensor1)
}

func TestLoadFileTOML(t *testing.T) {
	path := writeFile(t, "sensorlink.toml", `
[sensors.sensor1]
begin = 0
end = 9
period = 10

[controller]
liveness_timeout = 50

[server]
addr = "127.0.0.1:9200"
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, SensorConfig{Begin: 0, End: 9, Period: 10}, cfg.Sensors.Sensor1)
	assert.Equal(t, uint64(50), cfg.Controller.LivenessTimeout)
	assert.Equal(t, "127.0.0.1:9200", cfg.Server.Addr)
}

func TestLoadFileEnvironmentWins(t *testing.T) {
	path := writeFile(t, "sensorlink.yml", "logging:\n  level: warn\n")
	t.Setenv("SENSORLINK_LOGGING_LEVEL", "error")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{name: "unknown extension", file: "cfg.json", content: "{}", wantErr: ErrUnsupportedFormat},
		{name: "invalid range", file: "cfg.yaml", content: "sensors:\n  sensor1:\n    begin: 9\n    end: 1\n    period: 10\n", wantErr: ErrInvalid},
		{name: "zero timeout", file: "cfg.toml", content: "[controller]\nliveness_timeout = 0\n", wantErr: ErrInvalid},
	}

	for _, tt := range tests {
		tt := tt // per-iteration copy (go 1.21 loop semantics)
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, tt.file, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad tick", func(c *Config) { c.Clock.Tick = "soon" }, "clock tick"},
		{"negative tick", func(c *Config) { c.Clock.Tick = "-1ms" }, "must be positive"},
		{"zero period", func(c *Config) { c.Sensors.Sensor2B.Period = 0 }, "sensor2b: period"},
		{"reversed range", func(c *Config) { c.Sensors.Sensor2A.Begin = 300 }, "sensor2a: begin 300 exceeds end 249"},
		{"zero data timeout", func(c *Config) { c.Controller.DataReadyTimeout = 0 }, "data_ready_timeout"},
		{"zero mux timeout", func(c *Config) { c.Controller.MultiplexerTimeout = 0 }, "multiplexer_timeout"},
		{"overflowing timeout", func(c *Config) { c.Controller.LivenessTimeout = 1 << 62 }, "liveness_timeout: 4611686018427387904 ticks of 1ms exceeds 24h0m0s"},
		{"period past max span", func(c *Config) {
			c.Clock.Tick = "1s"
			c.Sensors.Sensor1.Period = 86_401
		}, "sensor1: period"},
	}

	for _, tt := range tests {
		tt := tt // per-iteration copy (go 1.21 loop semantics)
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
