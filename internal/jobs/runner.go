package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bissquit/reliability-reporter/internal/acquisition"
	"github.com/bissquit/reliability-reporter/internal/domain"
)

// Acquirer fetches incidents for a set of companies.
type Acquirer interface {
	FetchCompanies(ctx context.Context, companies []domain.Company, tf domain.Timeframe) []acquisition.Outcome
}

// IncidentSaver persists acquired incidents.
type IncidentSaver interface {
	SaveIncidents(ctx context.Context, company domain.Company, incidents []domain.Incident) error
}

// RunnerConfig contains runner configuration.
type RunnerConfig struct {
	NumWorkers int
	QueueSize  int
	JobTimeout time.Duration
}

// DefaultRunnerConfig returns default runner configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		NumWorkers: 2,
		QueueSize:  100,
		JobTimeout: 30 * time.Minute,
	}
}

// Runner executes queued acquisition jobs on a fixed pool of workers.
type Runner struct {
	config   RunnerConfig
	store    *Store
	acquirer Acquirer
	saver    IncidentSaver

	queue   chan string
	stopCh  chan struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// NewRunner creates a runner. saver may be nil when nothing is persisted.
func NewRunner(config RunnerConfig, store *Store, acquirer Acquirer, saver IncidentSaver) *Runner {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}
	return &Runner{
		config:   config,
		store:    store,
		acquirer: acquirer,
		saver:    saver,
		queue:    make(chan string, config.QueueSize),
		stopCh:   make(chan struct{}),
	}
}

// Store returns the job store the runner reports into.
func (r *Runner) Store() *Store {
	return r.store
}

// Start launches worker goroutines.
func (r *Runner) Start(ctx context.Context) {
	slog.Info("starting acquisition runner",
		"workers", r.config.NumWorkers,
		"queue_size", r.config.QueueSize,
	)

	for i := range r.config.NumWorkers {
		r.wg.Add(1)
		go r.run(ctx, i)
	}
}

// Stop stops accepting jobs and waits for running ones to finish or for ctx
// to expire. Callers cancel the context passed to Start first so in-flight
// acquisitions unwind instead of running to their timeout.
func (r *Runner) Stop(ctx context.Context) error {
	if r.stopped.Swap(true) {
		return nil
	}
	close(r.stopCh)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("acquisition runner stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running jobs: %w", ctx.Err())
	}
}

// Submit creates a pending job and queues it.
func (r *Runner) Submit(companies []domain.Company, tf domain.Timeframe) (Job, error) {
	if r.stopped.Load() {
		return Job{}, ErrRunnerStopped
	}

	job := r.store.Create(companies, tf)
	select {
	case r.queue <- job.ID:
		slog.Info("acquisition job queued", "job_id", job.ID, "companies", len(companies))
		return job, nil
	default:
		if err := r.store.Fail(job.ID, ErrQueueFull); err != nil {
			slog.Error("failed to mark job as failed", "job_id", job.ID, "error", err)
		}
		return Job{}, ErrQueueFull
	}
}

func (r *Runner) run(ctx context.Context, workerID int) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case id := <-r.queue:
			r.process(ctx, workerID, id)
		}
	}
}

func (r *Runner) process(ctx context.Context, workerID int, id string) {
	if err := r.store.Start(id); err != nil {
		slog.Error("failed to start job", "worker", workerID, "job_id", id, "error", err)
		return
	}

	job, err := r.store.Get(id)
	if err != nil {
		slog.Error("job vanished", "worker", workerID, "job_id", id, "error", err)
		return
	}

	jobCtx := ctx
	if r.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, r.config.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	outcomes := r.acquirer.FetchCompanies(jobCtx, job.Companies, job.Timeframe)

	results := make([]CompanyResult, 0, len(outcomes))
	var incidents []domain.Incident
	var errs []error
	for _, out := range outcomes {
		result := CompanyResult{Company: out.Company.Name, Count: len(out.Incidents)}
		for _, a := range out.Attempts {
			result.Sources = append(result.Sources, a.Source)
		}

		if out.Err != nil {
			result.Error = out.Err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", out.Company.Name, out.Err))
		} else if r.saver != nil {
			if err := r.saver.SaveIncidents(jobCtx, out.Company, out.Incidents); err != nil {
				result.Error = err.Error()
				errs = append(errs, fmt.Errorf("save %s: %w", out.Company.Name, err))
			}
		}

		results = append(results, result)
		incidents = append(incidents, out.Incidents...)
	}

	if len(outcomes) > 0 && len(errs) == len(outcomes) {
		if err := r.store.Fail(id, errors.Join(errs...)); err != nil {
			slog.Error("failed to mark job as failed", "job_id", id, "error", err)
		}
		slog.Warn("acquisition job failed", "worker", workerID, "job_id", id, "duration", time.Since(start))
		return
	}

	if err := r.store.Complete(id, results, incidents); err != nil {
		slog.Error("failed to complete job", "job_id", id, "error", err)
		return
	}
	slog.Info("acquisition job completed",
		"worker", workerID,
		"job_id", id,
		"incidents", len(incidents),
		"duration", time.Since(start),
	)
}
