package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1.0, cfg.Fetch.RateLimit)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Fetch.InitialBackoff)
	assert.Equal(t, 10*time.Second, cfg.Fetch.MaxBackoff)
	assert.Equal(t, "report", cfg.Acquisition.Mode)
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: json
fetch:
  rate_limit: 2.5
  timeout: 45s
acquisition:
  mode: adhoc
  concurrency: 8
scheduler:
  interval: 30m
  companies:
    - name: Acme
      url: https://status.acme.com
      is_target: true
    - name: Globex
      url: https://status.globex.com
alerts:
  - company_name: Acme
    type: incident_count_daily
    threshold: 3
    comparison: gte
    enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2.5, cfg.Fetch.RateLimit)
	assert.Equal(t, 45*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 3, cfg.Fetch.MaxAttempts, "unset keys keep defaults")
	assert.Equal(t, "adhoc", cfg.Acquisition.Mode)
	assert.Equal(t, 8, cfg.Acquisition.Concurrency)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.Interval)

	require.Len(t, cfg.Scheduler.Companies, 2)
	assert.Equal(t, "Acme", cfg.Scheduler.Companies[0].Name)
	assert.True(t, cfg.Scheduler.Companies[0].IsTarget)
	assert.Equal(t, "https://status.globex.com", cfg.Scheduler.Companies[1].URL)

	require.Len(t, cfg.Alerts, 1)
	assert.Equal(t, "Acme", cfg.Alerts[0].CompanyName)
	assert.InDelta(t, 3.0, cfg.Alerts[0].Threshold, 0)
	assert.True(t, cfg.Alerts[0].Enabled)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
fetch:
  rate_limit: 2
server:
  port: "8081"
`)
	t.Setenv("RR_FETCH_RATE_LIMIT", "5")
	t.Setenv("RR_DATABASE_URL", "postgres://u:p@localhost:5432/rr")
	t.Setenv("RR_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.Fetch.RateLimit)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "postgres://u:p@localhost:5432/rr", cfg.Database.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NoError(t, cfg.RequireDatabase())
}

func TestLoad_AlertEnabledByDefault(t *testing.T) {
	path := writeConfig(t, `
alerts:
  - company_name: Acme
    type: incident_count_daily
    threshold: 1
    comparison: gte
  - company_name: Acme
    type: critical_incident
    threshold: 0
    comparison: gt
    enabled: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Alerts, 2)
	assert.True(t, cfg.Alerts[0].Enabled, "omitted enabled key turns the rule on")
	assert.False(t, cfg.Alerts[1].Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad log level", "log:\n  level: verbose\n"},
		{"bad mode", "acquisition:\n  mode: eager\n"},
		{"zero attempts", "fetch:\n  max_attempts: 0\n"},
		{"backoff cap below initial", "fetch:\n  initial_backoff: 5s\n  max_backoff: 1s\n"},
		{"company without url", "scheduler:\n  companies:\n    - name: Acme\n"},
		{"unknown alert type", "alerts:\n  - company_name: Acme\n    type: uptime\n    comparison: gt\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestRequireDatabase(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.RequireDatabase(), ErrDatabaseMissing)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "fetch.rate_limit", envKey("RR_FETCH_RATE_LIMIT"))
	assert.Equal(t, "server.metrics_port", envKey("RR_SERVER_METRICS_PORT"))
	assert.Equal(t, "log.level", envKey("RR_LOG_LEVEL"))
}
