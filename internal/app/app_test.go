package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bissquit/reliability-reporter/internal/acquisition"
	"github.com/bissquit/reliability-reporter/internal/config"
	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/jobs"
	"github.com/bissquit/reliability-reporter/internal/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := config.Default()
	cfg.Log.Level = "error"

	a, err := New(&cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, a.Shutdown(ctx))
	})
	return a
}

func TestApp_Probes(t *testing.T) {
	a := newTestApp(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/version", http.StatusOK},
		{"/api/openapi.yaml", http.StatusOK},
		{"/api/v1/acquisitions", http.StatusOK},
		{"/api/v1/companies", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestApp_Version(t *testing.T) {
	a := newTestApp(t)

	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, version.Version, body["version"])
}

func TestNew_InvalidMode(t *testing.T) {
	cfg := config.Default()
	cfg.Acquisition.Mode = "everything"

	_, err := New(&cfg)
	assert.Error(t, err)
}

func TestSourceConfig(t *testing.T) {
	cfg := config.Default()

	sc := SourceConfig(&cfg)
	assert.Equal(t, version.UserAgent(), sc.Fetch.UserAgent)
	assert.Equal(t, cfg.Fetch.MaxAttempts, sc.Fetch.MaxAttempts)
	assert.Equal(t, 50, sc.HistoryMaxPages)
	assert.True(t, sc.EnableRSS)

	cfg.Fetch.UserAgent = "probe/1.0"
	assert.Equal(t, "probe/1.0", SourceConfig(&cfg).Fetch.UserAgent)
}

func TestNewOrchestrator_Mode(t *testing.T) {
	cfg := config.Default()

	o := NewOrchestrator(&cfg, acquisition.ModeAdHoc)
	t.Cleanup(func() { _ = o.Close() })
	assert.Equal(t, acquisition.ModeAdHoc, o.Mode())
}

func TestNewDaemon_NoCompanies(t *testing.T) {
	cfg := config.Default()

	_, err := NewDaemon(context.Background(), &cfg)
	assert.ErrorIs(t, err, ErrNoCompanies)
}

func TestDaemon_RunWithoutDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Server.MetricsPort = "0"
	cfg.Scheduler.Companies = []domain.Company{{Name: "Acme", URL: "https://status.acme.test"}}

	d, err := NewDaemon(context.Background(), &cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	assert.NoError(t, d.Shutdown(shutdownCtx))
}

func TestApp_ShutdownCancelsRunningAcquisition(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		upstream.Close()
	})

	cfg := config.Default()
	cfg.Log.Level = "error"

	a, err := New(&cfg)
	require.NoError(t, err)

	job, err := a.runner.Submit([]domain.Company{{Name: "Acme", URL: upstream.URL}}, domain.Timeframe{})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		j, err := a.runner.Store().Get(job.ID)
		return err == nil && j.Status == jobs.StatusRunning
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	assert.NoError(t, a.Shutdown(ctx))
	assert.Less(t, time.Since(start), 2*time.Second)
}
