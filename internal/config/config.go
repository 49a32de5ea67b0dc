// Package config loads application configuration from a YAML file and
// RR_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. RR_FETCH_RATE_LIMIT.
const EnvPrefix = "RR_"

// Config errors.
var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrDatabaseMissing = errors.New("database url is not configured")
)

// Config is the root configuration.
type Config struct {
	Log         LogConfig          `koanf:"log"`
	Fetch       FetchConfig        `koanf:"fetch"`
	Acquisition AcquisitionConfig  `koanf:"acquisition"`
	Database    DatabaseConfig     `koanf:"database"`
	Server      ServerConfig       `koanf:"server"`
	Scheduler   SchedulerConfig    `koanf:"scheduler"`
	Jobs        JobsConfig         `koanf:"jobs"`
	Alerts      []domain.AlertRule `koanf:"alerts" validate:"dive"`
	Report      ReportConfig       `koanf:"report"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// FetchConfig configures every source's HTTP behaviour.
type FetchConfig struct {
	RateLimit      float64       `koanf:"rate_limit" validate:"gte=0"`
	Timeout        time.Duration `koanf:"timeout" validate:"gt=0"`
	MaxAttempts    int           `koanf:"max_attempts" validate:"gte=1,lte=10"`
	InitialBackoff time.Duration `koanf:"initial_backoff" validate:"gt=0"`
	MaxBackoff     time.Duration `koanf:"max_backoff" validate:"gtefield=InitialBackoff"`
	UserAgent      string        `koanf:"user_agent"`
}

// AcquisitionConfig configures the orchestrator.
type AcquisitionConfig struct {
	Mode            string `koanf:"mode" validate:"oneof=report scheduler adhoc"`
	Concurrency     int    `koanf:"concurrency" validate:"gte=1,lte=64"`
	HistoryMaxPages int    `koanf:"history_max_pages" validate:"gte=1"`
	GenericMaxPages int    `koanf:"generic_max_pages" validate:"gte=1"`
	EnableGeneric   bool   `koanf:"enable_generic"`
	EnableRSS       bool   `koanf:"enable_rss"`
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout" validate:"gt=0"`
	ConnectAttempts int           `koanf:"connect_attempts" validate:"gte=1"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// ServerConfig configures the HTTP API and metrics listeners.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port" validate:"required,numeric"`
	MetricsPort       string        `koanf:"metrics_port" validate:"required,numeric"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	AllowedOrigins    []string      `koanf:"allowed_origins"`
}

// SchedulerConfig configures the re-run daemon.
type SchedulerConfig struct {
	Interval   time.Duration    `koanf:"interval" validate:"gte=1m"`
	DaysBack   int              `koanf:"days_back" validate:"gte=1"`
	RunOnStart bool             `koanf:"run_on_start"`
	Companies  []domain.Company `koanf:"companies" validate:"dive"`
}

// JobsConfig configures the API acquisition job runner.
type JobsConfig struct {
	Workers   int           `koanf:"workers" validate:"gte=1,lte=32"`
	QueueSize int           `koanf:"queue_size" validate:"gte=1"`
	Timeout   time.Duration `koanf:"timeout" validate:"gt=0"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	OutputDir string `koanf:"output_dir"`
	Format    string `koanf:"format" validate:"oneof=markdown csv"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Fetch: FetchConfig{
			RateLimit:      1,
			Timeout:        30 * time.Second,
			MaxAttempts:    3,
			InitialBackoff: 2 * time.Second,
			MaxBackoff:     10 * time.Second,
		},
		Acquisition: AcquisitionConfig{
			Mode:            "report",
			Concurrency:     4,
			HistoryMaxPages: 50,
			GenericMaxPages: 10,
			EnableGeneric:   true,
			EnableRSS:       true,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		Scheduler: SchedulerConfig{
			Interval: time.Hour,
			DaysBack: 30,
		},
		Jobs: JobsConfig{
			Workers:   2,
			QueueSize: 100,
			Timeout:   30 * time.Minute,
		},
		Report: ReportConfig{
			OutputDir: "reports",
			Format:    "markdown",
		},
	}
}

// Load reads configuration. Values come from Default, then the YAML file at
// path (skipped when path is empty), then RR_ environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	enableOmittedAlerts(k, cfg.Alerts)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// enableOmittedAlerts turns on rules that leave out the enabled key, matching
// the column default in the alerts table.
func enableOmittedAlerts(k *koanf.Koanf, rules []domain.AlertRule) {
	raw := k.Slices("alerts")
	if len(raw) != len(rules) {
		return
	}
	for i, r := range raw {
		if !r.Exists("enabled") {
			rules[i].Enabled = true
		}
	}
}

// envKey maps RR_FETCH_RATE_LIMIT to fetch.rate_limit. Only the first
// underscore separates the section, since keys themselves use underscores.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "_", ".", 1)
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// RequireDatabase fails when commands that need storage run without a URL.
func (c *Config) RequireDatabase() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return ErrDatabaseMissing
	}
	return nil
}
