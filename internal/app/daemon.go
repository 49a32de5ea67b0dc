package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bissquit/reliability-reporter/internal/acquisition"
	"github.com/bissquit/reliability-reporter/internal/config"
	"github.com/bissquit/reliability-reporter/internal/pkg/metrics"
	"github.com/bissquit/reliability-reporter/internal/scheduler"
	storepostgres "github.com/bissquit/reliability-reporter/internal/store/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoCompanies is returned when the scheduler has nothing to monitor.
var ErrNoCompanies = errors.New("scheduler.companies is empty")

// Daemon is the scheduler process: periodic acquisition in scheduler mode,
// persisted results and alert evaluation.
type Daemon struct {
	logger        *slog.Logger
	db            *pgxpool.Pool
	orchestrator  *acquisition.Orchestrator
	scheduler     *scheduler.Scheduler
	metricsServer *http.Server
	cancel        context.CancelFunc
}

// NewDaemon creates the scheduler process. Without a database, runs and
// triggered alerts are only logged.
func NewDaemon(ctx context.Context, cfg *config.Config) (*Daemon, error) {
	logger := InitLogger(cfg.Log)

	if len(cfg.Scheduler.Companies) == 0 {
		return nil, ErrNoCompanies
	}

	ctx, cancel := context.WithCancel(ctx)
	d := &Daemon{
		logger:        logger,
		orchestrator:  NewOrchestrator(cfg, acquisition.ModeScheduler),
		metricsServer: NewMetricsServer(cfg.Server),
		cancel:        cancel,
	}

	rules := cfg.Alerts
	var store scheduler.Store
	if cfg.Database.URL != "" {
		db, err := ConnectDB(ctx, cfg)
		if err != nil {
			cancel()
			return nil, err
		}
		repo := storepostgres.NewRepository(db)

		rules, err = repo.ReplaceAlertRules(ctx, cfg.Alerts)
		if err != nil {
			db.Close()
			cancel()
			return nil, fmt.Errorf("store alert rules: %w", err)
		}

		d.db = db
		store = repo
		go metrics.CollectDBPoolMetrics(ctx, db, dbMetricsInterval)
	} else {
		logger.Warn("database url is not configured, scheduled runs will not be persisted")
	}

	d.scheduler = scheduler.New(scheduler.Config{
		Interval:   cfg.Scheduler.Interval,
		DaysBack:   cfg.Scheduler.DaysBack,
		RunOnStart: cfg.Scheduler.RunOnStart,
		Companies:  cfg.Scheduler.Companies,
		Rules:      rules,
	}, d.orchestrator, store)

	return d, nil
}

// Run starts the metrics server and the scheduler loop, then blocks until
// ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	go serveMetrics(d.logger, d.metricsServer)

	d.scheduler.Start(ctx)
	<-ctx.Done()
	return nil
}

// Shutdown waits for an in-flight run and releases resources.
func (d *Daemon) Shutdown(ctx context.Context) error {
	d.scheduler.Stop()
	d.cancel()

	var errs []error
	if err := d.metricsServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
	}
	if err := d.orchestrator.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close orchestrator: %w", err))
	}
	if d.db != nil {
		d.db.Close()
	}
	return errors.Join(errs...)
}
