package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bissquit/reliability-reporter/internal/acquisition"
	"github.com/bissquit/reliability-reporter/internal/config"
	"github.com/bissquit/reliability-reporter/internal/pkg/postgres"
	"github.com/bissquit/reliability-reporter/internal/sources"
	storepostgres "github.com/bissquit/reliability-reporter/internal/store/postgres"
	"github.com/bissquit/reliability-reporter/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SourceConfig translates fetch and acquisition settings into the
// per-tier fetcher configuration.
func SourceConfig(cfg *config.Config) acquisition.SourceConfig {
	userAgent := cfg.Fetch.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}

	return acquisition.SourceConfig{
		Fetch: sources.Config{
			RateLimit:      cfg.Fetch.RateLimit,
			Timeout:        cfg.Fetch.Timeout,
			MaxAttempts:    cfg.Fetch.MaxAttempts,
			InitialBackoff: cfg.Fetch.InitialBackoff,
			MaxBackoff:     cfg.Fetch.MaxBackoff,
			UserAgent:      userAgent,
		},
		HistoryMaxPages: cfg.Acquisition.HistoryMaxPages,
		GenericMaxPages: cfg.Acquisition.GenericMaxPages,
		EnableGeneric:   cfg.Acquisition.EnableGeneric,
		EnableRSS:       cfg.Acquisition.EnableRSS,
	}
}

// NewOrchestrator builds an orchestrator running the tiers of mode.
func NewOrchestrator(cfg *config.Config, mode acquisition.Mode) *acquisition.Orchestrator {
	return acquisition.New(acquisition.NewSources(SourceConfig(cfg)), acquisition.Config{
		Mode:        mode,
		Concurrency: cfg.Acquisition.Concurrency,
	})
}

// ConnectDB opens the pool and, when database.auto_migrate is set, applies
// pending migrations first.
func ConnectDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := storepostgres.Migrate(cfg.Database.URL); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

// NewMetricsServer serves /metrics on the configured metrics port.
func NewMetricsServer(cfg config.ServerConfig) *http.Server {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Host, cfg.MetricsPort),
		Handler:           r,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func serveMetrics(logger *slog.Logger, srv *http.Server) {
	logger.Info("starting metrics server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server error", "error", err)
	}
}
