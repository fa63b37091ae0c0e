// Package commands implements the rcli command tree.
package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/rserve-client/internal/logger"
	"github.com/marmos91/rserve-client/internal/metrics"
	"github.com/marmos91/rserve-client/internal/telemetry"
	"github.com/marmos91/rserve-client/pkg/config"
	"github.com/marmos91/rserve-client/pkg/rclient"
	"github.com/prometheus/client_golang/prometheus"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	flagServer  string
	flagConfig  string
	flagOutput  string
	flagNoColor bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "rcli",
	Short:         "rcli - command-line client for an R compute server",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `rcli is a command-line client for QAP1, the binary protocol spoken by
Rserve-compatible R compute servers.

Use "rcli [command] --help" for more information about a command.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "INFO"
		if flagVerbose {
			level = "DEBUG"
		}
		logger.SetLevel(level)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command, for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagServer, "server", "", "R server address (host:port), overrides config")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "table", "Output format (table|json); not read by any command, results always print as plain tables or values")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output; not read by any command, log color follows terminal detection")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(replCmd)
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}

// loadConfig loads configuration and applies the --server flag override.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flagServer != "" {
		cfg.Server.Address = flagServer
	}
	return cfg, nil
}

// connect loads configuration and dials the configured server, wiring up
// metrics and telemetry the same way for every subcommand.
func connect(ctx context.Context) (*rclient.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if flagVerbose {
		level = "DEBUG"
	}
	if err := logger.Init(logger.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	if _, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		SampleRate:     cfg.Telemetry.SampleRate,
		PrettyPrint:    cfg.Telemetry.PrettyPrint,
	}); err != nil {
		return nil, nil, fmt.Errorf("init telemetry: %w", err)
	}

	var reg *prometheus.Registry
	var clientMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		clientMetrics = metrics.NewMetrics(reg)
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Server.DialTimeout+5*time.Second)
	defer cancel()

	client, err := rclient.Connect(dialCtx, cfg.Server.Address, rclient.Options{
		DialTimeout: cfg.Server.DialTimeout,
		Metrics:     clientMetrics,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Server.Address, err)
	}

	return client, cfg, nil
}
