// Package config loads service configuration from a JSON file with
// environment variable overrides for deployment-specific values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/c360/alertflow/actions"
	"github.com/c360/alertflow/errors"
)

// Config is the full service configuration
type Config struct {
	Logging LoggingConfig `json:"logging"`
	NATS    NATSConfig    `json:"nats"`
	Rules   RulesConfig   `json:"rules"`
	Source  SourceConfig  `json:"source"`
	Actions ActionsConfig `json:"actions"`
	Metrics MetricsConfig `json:"metrics"`
}

// LoggingConfig controls log output
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// NATSConfig controls the NATS connection
type NATSConfig struct {
	URL           string   `json:"url"`
	ClientName    string   `json:"client_name"`
	MaxReconnects int      `json:"max_reconnects"`
	ReconnectWait Duration `json:"reconnect_wait"`
	Timeout       Duration `json:"timeout"`
}

// RulesConfig controls rule loading and scheduling
type RulesConfig struct {
	Files           []string `json:"files"`
	MaxSteps        int      `json:"max_steps"`
	DefaultInterval Duration `json:"default_interval"`
	TickInterval    Duration `json:"tick_interval"`
	RunTimeout      Duration `json:"run_timeout"`
	Workers         int      `json:"workers"`
	QueueSize       int      `json:"queue_size"`
}

// SourceConfig controls the topic data source
type SourceConfig struct {
	Bucket string `json:"bucket"`
}

// ActionsConfig controls the action consumer
type ActionsConfig struct {
	Enabled    bool               `json:"enabled"`
	Subject    string             `json:"subject"`
	TodoBucket string             `json:"todo_bucket"`
	SMTP       actions.SMTPConfig `json:"smtp"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
	Path    string `json:"path"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			ClientName:    "alertflow",
			MaxReconnects: -1,
			ReconnectWait: Duration(2 * time.Second),
			Timeout:       Duration(5 * time.Second),
		},
		Rules: RulesConfig{
			MaxSteps:        100,
			DefaultInterval: Duration(10 * time.Second),
			TickInterval:    Duration(time.Second),
			RunTimeout:      Duration(30 * time.Second),
			Workers:         4,
			QueueSize:       64,
		},
		Source: SourceConfig{Bucket: "topic-data"},
		Actions: ActionsConfig{
			Enabled:    true,
			Subject:    "alertflow.actions",
			TodoBucket: "todos",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9100",
			Path:    "/metrics",
		},
	}
}

// Load reads configuration from path, layering it over the defaults and then
// applying environment overrides. An empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.WrapInvalid(err, "Config", "Load", "read "+path)
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.WrapInvalid(err, "Config", "Load", "parse "+path)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays deployment-specific overrides
func applyEnv(cfg *Config) {
	if v := os.Getenv("ALERTFLOW_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("ALERTFLOW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ALERTFLOW_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("ALERTFLOW_ACTION_SUBJECT"); v != "" {
		cfg.Actions.Subject = v
	}
	if v := os.Getenv("ALERTFLOW_SOURCE_BUCKET"); v != "" {
		cfg.Source.Bucket = v
	}
	if v := os.Getenv("ALERTFLOW_SMTP_HOST"); v != "" {
		cfg.Actions.SMTP.Host = v
	}
	if v := os.Getenv("ALERTFLOW_SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Actions.SMTP.Port = port
		}
	}
	if v := os.Getenv("ALERTFLOW_SMTP_PASSWORD"); v != "" {
		cfg.Actions.SMTP.Password = v
	}
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return validationErr("nats.url is required")
	}
	if c.Rules.MaxSteps <= 0 {
		return validationErr("rules.max_steps must be positive")
	}
	if c.Rules.Workers <= 0 {
		return validationErr("rules.workers must be positive")
	}
	if c.Rules.TickInterval <= 0 || c.Rules.DefaultInterval <= 0 {
		return validationErr("rules intervals must be positive")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return validationErr("metrics.addr is required when metrics are enabled")
	}
	if c.Actions.Enabled && c.Actions.Subject == "" {
		return validationErr("actions.subject is required when actions are enabled")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return validationErr(fmt.Sprintf("unknown log level %q", c.Logging.Level))
	}
	return nil
}

func validationErr(detail string) error {
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, detail),
		"Config", "Validate", "validate configuration")
}
