package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.Equal(t, "localhost:6311", cfg.Server.Address)
	assert.Equal(t, 10*time.Second, cfg.Server.DialTimeout)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.NoError(t, Validate(cfg))
}

func TestApplyDefaultsUppercasesLevel(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug", Format: "json", Output: "stdout"}}
	ApplyDefaults(cfg)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestValidateRejectsMissingAddress(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Server.Address = ""
	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "NOISY"
	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidateRejectsOutOfRangeSampleRate(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.SampleRate = 1.5
	err := Validate(cfg)
	require.Error(t, err)
}

func TestLoadFallsBackToDefaultsWhenNoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6311", cfg.Server.Address)
}
