package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/sensorlink/internal/app"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/config"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sensorlink/internal/infrastructure/server"
)

var (
	configPath  string
	logLevel    string
	dev         bool
	metricsAddr string
	duration    time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sensorlink",
		Short: "Redundant sensor controllers with liveness failover",
		Long: `sensorlink runs three periodic sensors feeding a primary and a reserve
controller. The primary fails on purpose after a configurable number of
ticks and the reserve takes over.

Examples:
  # Run with the stock timing until interrupted
  sensorlink

  # Debug logs, operator endpoint on :9090, stop after ten seconds
  sensorlink --log-level debug --metrics-addr :9090 --duration 10s

  # Print the effective configuration
  sensorlink config --config sensorlink.yaml
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSystem()
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&dev, "dev", false, "Development logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Operator HTTP address, e.g. :9090")
	rootCmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 runs until interrupted)")

	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var out []byte
			switch format {
			case "yaml":
				out, err = yaml.Marshal(cfg)
			case "toml":
				out, err = toml.Marshal(cfg)
			default:
				return fmt.Errorf("%s: %w", format, config.ErrUnsupportedFormat)
			}
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format (yaml|toml)")
	return cmd
}

// loadConfig layers defaults, the optional file, the environment and then flags.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(configPath)
	}
	if err != nil {
		return nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if dev {
		cfg.Logging.Development = true
	}
	if metricsAddr != "" {
		cfg.Server.Addr = metricsAddr
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*logging.Logger, error) {
	logCfg := logging.DefaultConfig()
	if cfg.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Level != "" {
		logCfg.Level = cfg.Level
	}
	return logging.New(logCfg)
}

func runSystem() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	metrics := monitoring.NewMetrics()
	coord, err := app.New(cfg, logger, metrics)
	if err != nil {
		return err
	}

	logger.Info("Initializing sensorlink",
		zap.String("run_id", coord.RunID().String()),
		zap.String("tick", cfg.Clock.Tick),
		zap.String("metrics_addr", cfg.Server.Addr),
	)

	g, ctx := errgroup.WithContext(ctx)

	if err := coord.Start(ctx); err != nil {
		return err
	}
	g.Go(coord.Wait)

	if cfg.Server.Addr != "" {
		srv := server.New(cfg.Server.Addr, coord, logger, metrics)
		g.Go(func() error { return srv.Run(ctx) })
	}

	err = g.Wait()
	if err != nil {
		logger.Error("sensorlink exited with error", zap.Error(err))
		return err
	}
	logger.Info("Shut down gracefully", zap.Any("controllers", coord.Status().Controllers))
	return nil
}
