// Package app wires configuration into the long-running serve and schedule
// processes.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/reliability-reporter/api/openapi"
	"github.com/bissquit/reliability-reporter/internal/acquisition"
	"github.com/bissquit/reliability-reporter/internal/api"
	"github.com/bissquit/reliability-reporter/internal/config"
	"github.com/bissquit/reliability-reporter/internal/jobs"
	"github.com/bissquit/reliability-reporter/internal/pkg/ctxlog"
	"github.com/bissquit/reliability-reporter/internal/pkg/httputil"
	"github.com/bissquit/reliability-reporter/internal/pkg/metrics"
	"github.com/bissquit/reliability-reporter/internal/report"
	storepostgres "github.com/bissquit/reliability-reporter/internal/store/postgres"
	"github.com/bissquit/reliability-reporter/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbMetricsInterval = 15 * time.Second

// App is the API server process.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	repo          *storepostgres.Repository
	orchestrator  *acquisition.Orchestrator
	runner        *jobs.Runner
	server        *http.Server
	metricsServer *http.Server
	cancel        context.CancelFunc
}

// New creates the API server. The database is optional: without one, jobs
// still run but nothing is persisted and stored-data routes answer 503.
func New(cfg *config.Config) (*App, error) {
	logger := InitLogger(cfg.Log)

	mode, err := acquisition.ParseMode(cfg.Acquisition.Mode)
	if err != nil {
		return nil, fmt.Errorf("parse acquisition mode: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		config:       cfg,
		logger:       logger,
		orchestrator: NewOrchestrator(cfg, mode),
		cancel:       cancel,
	}

	var saver jobs.IncidentSaver
	var incidents api.IncidentReader
	if cfg.Database.URL != "" {
		db, err := ConnectDB(ctx, cfg)
		if err != nil {
			cancel()
			return nil, err
		}
		app.db = db
		app.repo = storepostgres.NewRepository(db)
		saver = app.repo
		incidents = app.repo

		go metrics.CollectDBPoolMetrics(ctx, db, dbMetricsInterval)
	} else {
		logger.Warn("database url is not configured, acquisitions will not be persisted")
	}

	app.runner = jobs.NewRunner(jobs.RunnerConfig{
		NumWorkers: cfg.Jobs.Workers,
		QueueSize:  cfg.Jobs.QueueSize,
		JobTimeout: cfg.Jobs.Timeout,
	}, jobs.NewStore(), app.orchestrator, saver)
	app.runner.Start(ctx)

	handler := api.NewHandler(app.runner, app.runner.Store(), incidents, app.orchestrator, report.NewBuilder(nil, ""))

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           app.setupRouter(handler),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	app.metricsServer = NewMetricsServer(cfg.Server)

	return app, nil
}

// Run starts the HTTP servers and blocks until the API server stops.
func (a *App) Run() error {
	go serveMetrics(a.logger, a.metricsServer)

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"version", version.Version,
		"persistence", a.db != nil,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, drains running jobs and closes the pool.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for name, srv := range map[string]*http.Server{"server": a.server, "metrics server": a.metricsServer} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Shutdown(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("shutdown %s: %w", name, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	a.cancel()
	if err := a.runner.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop runner: %w", err))
	}

	if err := a.orchestrator.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close orchestrator: %w", err))
	}
	if a.db != nil {
		a.db.Close()
	}

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter(handler *api.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)
	r.Use(httputil.CORSMiddleware(a.config.Server.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", versionHandler)
	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		_, _ = w.Write(openapi.Spec)
	})

	r.Route("/api/v1", handler.RegisterRoutes)

	return r
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if a.repo == nil {
		httputil.Text(w, http.StatusOK, "OK")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.repo.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	httputil.Text(w, http.StatusOK, "OK")
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

// InitLogger builds the process logger from cfg and installs it as the
// slog default.
func InitLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
