// Package scheduler re-runs acquisition for configured companies on a fixed
// interval, persists the results and evaluates threshold alerts.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bissquit/reliability-reporter/internal/acquisition"
	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/pkg/metrics"
)

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// Acquirer fetches incidents for a set of companies.
type Acquirer interface {
	FetchCompanies(ctx context.Context, companies []domain.Company, tf domain.Timeframe) []acquisition.Outcome
}

// Store persists incidents and fired alerts.
type Store interface {
	SaveIncidents(ctx context.Context, company domain.Company, incidents []domain.Incident) error
	RecordAlertTrigger(ctx context.Context, trigger *domain.AlertTrigger) error
}

// Config contains scheduler configuration.
type Config struct {
	Interval   time.Duration
	DaysBack   int
	RunOnStart bool
	Companies  []domain.Company
	Rules      []domain.AlertRule
}

// DefaultConfig returns default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Interval: time.Hour,
		DaysBack: 30,
	}
}

// RunResult summarizes one scheduled run.
type RunResult struct {
	Outcome   string
	Incidents int
	Failed    []string
	Triggers  []domain.AlertTrigger
}

// Scheduler periodically re-runs acquisition.
type Scheduler struct {
	config   Config
	acquirer Acquirer
	store    Store
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a scheduler. store may be nil, in which case results and
// triggers are only logged.
func New(config Config, acquirer Acquirer, store Store) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.DaysBack <= 0 {
		config.DaysBack = DefaultConfig().DaysBack
	}
	return &Scheduler{
		config:   config,
		acquirer: acquirer,
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		stopCh:   make(chan struct{}),
	}
}

// Start launches the interval loop.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("starting scheduler",
		"interval", s.config.Interval,
		"days_back", s.config.DaysBack,
		"companies", len(s.config.Companies),
		"rules", len(s.config.Rules),
	)

	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop stops the loop and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce acquires the last DaysBack days for every company, saves the
// incidents and evaluates alert rules against them.
func (s *Scheduler) RunOnce(ctx context.Context) RunResult {
	start := time.Now()
	now := s.now()
	tf := domain.Timeframe{Start: now.AddDate(0, 0, -s.config.DaysBack), End: now}

	outcomes := s.acquirer.FetchCompanies(ctx, s.config.Companies, tf)

	var result RunResult
	for _, out := range outcomes {
		if err := s.handleOutcome(ctx, out, now, &result); err != nil {
			slog.Error("scheduled acquisition failed", "company", out.Company.Name, "error", err)
			result.Failed = append(result.Failed, out.Company.Name)
		}
	}

	switch {
	case len(outcomes) > 0 && len(result.Failed) == len(outcomes):
		result.Outcome = OutcomeFailed
	case len(result.Failed) > 0:
		result.Outcome = OutcomePartial
	default:
		result.Outcome = OutcomeSuccess
	}
	metrics.RecordSchedulerRun(result.Outcome)

	slog.Info("scheduled run finished",
		"outcome", result.Outcome,
		"companies", len(outcomes),
		"incidents", result.Incidents,
		"alerts", len(result.Triggers),
		"duration", time.Since(start),
	)
	return result
}

func (s *Scheduler) handleOutcome(ctx context.Context, out acquisition.Outcome, now time.Time, result *RunResult) error {
	if out.Err != nil {
		return out.Err
	}
	result.Incidents += len(out.Incidents)

	if s.store != nil {
		if err := s.store.SaveIncidents(ctx, out.Company, out.Incidents); err != nil {
			return fmt.Errorf("save incidents: %w", err)
		}
	}

	for _, rule := range s.config.Rules {
		if rule.CompanyName != out.Company.Name {
			continue
		}
		trigger, fired := Evaluate(rule, out.Incidents, now)
		if !fired {
			continue
		}

		metrics.RecordAlert(string(trigger.Type))
		slog.Warn("alert triggered",
			"company", trigger.CompanyName,
			"type", trigger.Type,
			"value", trigger.Value,
			"threshold", trigger.Threshold,
			"message", trigger.Message,
		)

		if s.store != nil {
			if err := s.store.RecordAlertTrigger(ctx, trigger); err != nil {
				slog.Error("failed to record alert trigger", "company", trigger.CompanyName, "error", err)
			}
		}
		result.Triggers = append(result.Triggers, *trigger)
	}
	return nil
}
