package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment variable, e.g. SENSORLINK_LOGGING_LEVEL.
const EnvPrefix = "SENSORLINK"

// MaxSpan caps every period and timeout once converted to wall-clock time.
const MaxSpan = 24 * time.Hour

var (
	ErrUnsupportedFormat = errors.New("unsupported config file format")
	ErrInvalid           = errors.New("invalid configuration")
)

// Config holds all application configuration.
// Timing values other than the tick length are counted in ticks.
type Config struct {
	Clock      ClockConfig      `yaml:"clock" toml:"clock" envconfig:"CLOCK"`
	Sensors    SensorsConfig    `yaml:"sensors" toml:"sensors" envconfig:"SENSORS"`
	Controller ControllerConfig `yaml:"controller" toml:"controller" envconfig:"CONTROLLER"`
	Logging    LogConfig        `yaml:"logging" toml:"logging" envconfig:"LOGGING"`
	Server     ServerConfig     `yaml:"server" toml:"server" envconfig:"SERVER"`
}

// ClockConfig holds the scheduler clock configuration.
type ClockConfig struct {
	Tick string `yaml:"tick" toml:"tick" envconfig:"TICK"` // tick length, e.g. "1ms"
}

// TickLength parses Tick.
func (c ClockConfig) TickLength() (time.Duration, error) {
	d, err := time.ParseDuration(c.Tick)
	if err != nil {
		return 0, fmt.Errorf("clock tick %q: %w", c.Tick, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("clock tick %q must be positive", c.Tick)
	}
	return d, nil
}

// SensorConfig describes one periodic producer.
type SensorConfig struct {
	Begin  int32  `yaml:"begin" toml:"begin" envconfig:"BEGIN"`
	End    int32  `yaml:"end" toml:"end" envconfig:"END"`
	Period uint64 `yaml:"period" toml:"period" envconfig:"PERIOD"`
}

// SensorsConfig holds the three producers.
type SensorsConfig struct {
	Sensor1  SensorConfig `yaml:"sensor1" toml:"sensor1" envconfig:"SENSOR1"`
	Sensor2A SensorConfig `yaml:"sensor2a" toml:"sensor2a" envconfig:"SENSOR2A"`
	Sensor2B SensorConfig `yaml:"sensor2b" toml:"sensor2b" envconfig:"SENSOR2B"`
}

// ControllerConfig holds controller timeouts and the simulated fault.
type ControllerConfig struct {
	DataReadyTimeout   uint64 `yaml:"data_ready_timeout" toml:"data_ready_timeout" envconfig:"DATA_READY_TIMEOUT"`
	MultiplexerTimeout uint64 `yaml:"multiplexer_timeout" toml:"multiplexer_timeout" envconfig:"MULTIPLEXER_TIMEOUT"`
	LivenessTimeout    uint64 `yaml:"liveness_timeout" toml:"liveness_timeout" envconfig:"LIVENESS_TIMEOUT"`
	// FailAfter is the tick at which the primary terminates itself; 0 disables.
	FailAfter uint64 `yaml:"fail_after" toml:"fail_after" envconfig:"FAIL_AFTER"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `yaml:"level" toml:"level" envconfig:"LEVEL"`
	Development bool   `yaml:"development" toml:"development" envconfig:"DEV"`
}

// ServerConfig holds the operator HTTP endpoint configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" toml:"addr" envconfig:"ADDR"` // empty disables the endpoint
}

// Load loads configuration from environment variables over the defaults.
func Load() (*Config, error) {
	cfg := Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads defaults, then the YAML or TOML file at path, then the
// environment. The format is chosen by file extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

func applyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// Default returns the stock configuration: a 1ms tick,
// sensors at 200/500/1400 ticks and a primary that fails at tick 2000.
func Default() *Config {
	return &Config{
		Clock: ClockConfig{
			Tick: "1ms",
		},
		Sensors: SensorsConfig{
			Sensor1:  SensorConfig{Begin: 100, End: 199, Period: 200},
			Sensor2A: SensorConfig{Begin: 200, End: 249, Period: 500},
			Sensor2B: SensorConfig{Begin: 250, End: 299, Period: 1400},
		},
		Controller: ControllerConfig{
			DataReadyTimeout:   500,
			MultiplexerTimeout: 200,
			LivenessTimeout:    500,
			FailAfter:          2000,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Server: ServerConfig{
			Addr: "",
		},
	}
}

// Validate checks that the configuration can build a running system.
func (c *Config) Validate() error {
	var problems []string

	tick, err := c.Clock.TickLength()
	if err != nil {
		problems = append(problems, err.Error())
	}
	tooLong := func(field string, ticks uint64) {
		if tick > 0 && ticks > uint64(MaxSpan/tick) {
			problems = append(problems, fmt.Sprintf("%s: %d ticks of %s exceeds %s", field, ticks, tick, MaxSpan))
		}
	}

	sensors := map[string]SensorConfig{
		"sensor1":  c.Sensors.Sensor1,
		"sensor2a": c.Sensors.Sensor2A,
		"sensor2b": c.Sensors.Sensor2B,
	}
	for _, name := range []string{"sensor1", "sensor2a", "sensor2b"} {
		s := sensors[name]
		if s.Begin > s.End {
			problems = append(problems, fmt.Sprintf("%s: begin %d exceeds end %d", name, s.Begin, s.End))
		}
		if s.Period == 0 {
			problems = append(problems, fmt.Sprintf("%s: period must be positive", name))
		}
		tooLong(name+": period", s.Period)
	}

	if c.Controller.DataReadyTimeout == 0 {
		problems = append(problems, "controller: data_ready_timeout must be positive")
	}
	if c.Controller.MultiplexerTimeout == 0 {
		problems = append(problems, "controller: multiplexer_timeout must be positive")
	}
	if c.Controller.LivenessTimeout == 0 {
		problems = append(problems, "controller: liveness_timeout must be positive")
	}
	tooLong("controller: data_ready_timeout", c.Controller.DataReadyTimeout)
	tooLong("controller: multiplexer_timeout", c.Controller.MultiplexerTimeout)
	tooLong("controller: liveness_timeout", c.Controller.LivenessTimeout)

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
