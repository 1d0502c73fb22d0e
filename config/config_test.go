package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/alertflow/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Rules.MaxSteps)
	assert.Equal(t, 10*time.Second, cfg.Rules.DefaultInterval.Std())
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "alertflow.actions", cfg.Actions.Subject)
}

func TestLoadFileOverrides(t *testing.T) {
	path := writeConfig(t, `{
		"logging": {"level": "debug", "format": "json"},
		"nats": {"url": "nats://broker:4222", "reconnect_wait": "500ms"},
		"rules": {
			"files": ["rules/alerts.json"],
			"default_interval": "30s",
			"workers": 8
		},
		"metrics": {"enabled": false}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, 500*time.Millisecond, cfg.NATS.ReconnectWait.Std())
	assert.Equal(t, []string{"rules/alerts.json"}, cfg.Rules.Files)
	assert.Equal(t, 30*time.Second, cfg.Rules.DefaultInterval.Std())
	assert.Equal(t, 8, cfg.Rules.Workers)
	assert.False(t, cfg.Metrics.Enabled)

	// Untouched sections keep their defaults.
	assert.Equal(t, 100, cfg.Rules.MaxSteps)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ALERTFLOW_NATS_URL", "nats://env:4222")
	t.Setenv("ALERTFLOW_LOG_LEVEL", "warn")
	t.Setenv("ALERTFLOW_SMTP_PORT", "2525")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 2525, cfg.Actions.SMTP.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, `{not json`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing nats url", func(c *Config) { c.NATS.URL = "" }},
		{"non-positive max steps", func(c *Config) { c.Rules.MaxSteps = 0 }},
		{"non-positive workers", func(c *Config) { c.Rules.Workers = 0 }},
		{"zero tick interval", func(c *Config) { c.Rules.TickInterval = 0 }},
		{"metrics without addr", func(c *Config) { c.Metrics.Addr = "" }},
		{"actions without subject", func(c *Config) { c.Actions.Subject = "" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))
		})
	}

	cfg := Default()
	assert.NoError(t, cfg.Validate())
}

func TestDurationUnmarshal(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Std())

	require.NoError(t, d.UnmarshalJSON([]byte(`1000000000`)))
	assert.Equal(t, time.Second, d.Std())

	assert.Error(t, d.UnmarshalJSON([]byte(`"soon"`)))
	assert.Error(t, d.UnmarshalJSON([]byte(`true`)))
}
