package config

import (
	"strings"
	"time"
)

// ApplyDefaults fills any unspecified fields with sensible defaults. Zero
// values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyMetricsDefaults(&cfg.Metrics)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 10 * time.Second
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "rserve-client"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config with every field set to its default
// value. Load returns it when no config file is found; tests use it when
// they don't care about a specific server address.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Address: "localhost:6311",
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
