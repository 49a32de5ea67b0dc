// Package acquisition decides, per company, which incident sources to
// query and merges what they return into one deduplicated collection.
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/pkg/ctxlog"
	"github.com/bissquit/reliability-reporter/internal/pkg/metrics"
	"github.com/bissquit/reliability-reporter/internal/sources"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency caps simultaneous company fetches.
const DefaultConcurrency = 4

// Fallback reasons recorded in metrics and logs.
const (
	reasonAPIEmpty     = "api_empty"
	reasonAPITruncated = "api_truncated"
	reasonNoHistory    = "history_empty"
	reasonNoGeneric    = "generic_empty"
)

// Sources holds one fetcher per tier. API and History are required;
// Generic and RSS are only used by the modes that allow them.
type Sources struct {
	API     sources.Fetcher
	History sources.Fetcher
	Generic sources.Fetcher
	RSS     sources.Fetcher
}

// Config holds orchestrator configuration.
type Config struct {
	Mode        Mode
	Concurrency int
}

// Attempt records one source call made for a company.
type Attempt struct {
	Source   string
	Window   domain.Timeframe
	Count    int
	Err      error
	Duration time.Duration
}

// Failed reports whether the source call returned an error.
func (a Attempt) Failed() bool {
	return a.Err != nil
}

// Outcome is the result of acquiring one company.
// Err is set only for hard failures: an invalid URL or cancellation. In
// that case Incidents is nil even if some tiers had already answered.
type Outcome struct {
	Company   domain.Company
	Incidents []domain.Incident
	Attempts  []Attempt
	Err       error
}

// Orchestrator runs the tiered acquisition for companies.
type Orchestrator struct {
	sources     Sources
	mode        Mode
	concurrency int
}

// New creates an orchestrator over the given fetchers.
func New(src Sources, config Config) *Orchestrator {
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		sources:     src,
		mode:        config.Mode,
		concurrency: config.Concurrency,
	}
}

// Mode returns the configured acquisition mode.
func (o *Orchestrator) Mode() Mode {
	return o.mode
}

// Close closes every fetcher, releasing their HTTP clients.
func (o *Orchestrator) Close() error {
	var errs []error
	for _, f := range []sources.Fetcher{o.sources.API, o.sources.History, o.sources.Generic, o.sources.RSS} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s fetcher: %w", f.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// FetchCompany acquires one company's incidents within tf.
//
// The API is asked first. When its oldest incident is after tf.Start the
// history scraper fills [tf.Start, oldest); when the API has nothing the
// history scraper covers the whole window. Weaker tiers run only when
// everything above them came back empty. A failing source counts as an
// empty one. The merged set is deduplicated by ID in first-seen order.
func (o *Orchestrator) FetchCompany(ctx context.Context, company domain.Company, tf domain.Timeframe) Outcome {
	outcome := Outcome{Company: company}

	if _, err := sources.NormalizeBaseURL(company.URL); err != nil {
		outcome.Err = err
		return outcome
	}
	if err := ctx.Err(); err != nil {
		outcome.Err = err
		return outcome
	}

	ctx = ctxlog.With(ctx, "company", company.Name)
	log := ctxlog.FromContext(ctx)

	run := func(f sources.Fetcher, window domain.Timeframe) []domain.Incident {
		if f == nil {
			return nil
		}
		incidents, attempt := o.runTier(ctx, f, company, window)
		outcome.Attempts = append(outcome.Attempts, attempt)
		return incidents
	}

	combined := run(o.sources.API, tf)

	if len(combined) > 0 {
		oldest := oldestStart(combined)
		if !tf.Start.IsZero() && oldest.After(domain.Naive(tf.Start)) {
			log.Info("api history does not reach window start, filling gap",
				"start", tf.Start, "oldest", oldest)
			metrics.RecordFallback(reasonAPITruncated)

			gap := domain.Timeframe{Start: tf.Start, End: oldest}
			combined = append(combined, before(run(o.sources.History, gap), oldest)...)
		}
	} else {
		log.Info("api returned nothing, falling back to history")
		metrics.RecordFallback(reasonAPIEmpty)
		combined = run(o.sources.History, tf)
	}

	if len(combined) == 0 && o.mode >= ModeScheduler && o.sources.Generic != nil {
		log.Info("history returned nothing, falling back to generic scraper")
		metrics.RecordFallback(reasonNoHistory)
		combined = run(o.sources.Generic, tf)
	}

	if len(combined) == 0 && o.mode >= ModeAdHoc && o.sources.RSS != nil {
		log.Info("generic scraper returned nothing, falling back to rss")
		metrics.RecordFallback(reasonNoGeneric)
		combined = run(o.sources.RSS, tf)
	}

	if err := ctx.Err(); err != nil {
		log.Warn("acquisition cancelled, discarding partial result", "error", err)
		outcome.Err = err
		return outcome
	}

	outcome.Incidents = Dedup(tf.Filter(combined))
	log.Info("acquired incidents", "count", len(outcome.Incidents), "sources", len(outcome.Attempts))
	return outcome
}

// FetchCompanies acquires several companies with at most Concurrency
// fetches in flight. Outcomes are returned in input order. One company's
// failure never affects the others; on cancellation, companies already
// finished keep their results.
func (o *Orchestrator) FetchCompanies(ctx context.Context, companies []domain.Company, tf domain.Timeframe) []Outcome {
	outcomes := make([]Outcome, len(companies))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i := range companies {
		g.Go(func() error {
			outcomes[i] = o.FetchCompany(ctx, companies[i], tf)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// DiscoverStatusPage asks each tier for page metadata, preferring the API.
func (o *Orchestrator) DiscoverStatusPage(ctx context.Context, baseURL string) domain.StatusPage {
	page := o.sources.API.FetchStatusPageInfo(ctx, baseURL)
	if !page.HasAPI && o.sources.History != nil {
		page = o.sources.History.FetchStatusPageInfo(ctx, baseURL)
	}
	if o.sources.RSS != nil && o.mode >= ModeAdHoc {
		page.HasRSS = o.sources.RSS.FetchStatusPageInfo(ctx, baseURL).HasRSS
	}
	return page
}

func (o *Orchestrator) runTier(ctx context.Context, f sources.Fetcher, company domain.Company, window domain.Timeframe) ([]domain.Incident, Attempt) {
	start := time.Now()
	incidents, err := f.FetchIncidents(ctx, company.URL, company.Name, window)
	attempt := Attempt{
		Source:   f.Name(),
		Window:   window,
		Count:    len(incidents),
		Err:      err,
		Duration: time.Since(start),
	}

	if err != nil {
		ctxlog.FromContext(ctx).Warn("source failed, treating as empty",
			"source", f.Name(), "error", err)
		attempt.Count = 0
		return nil, attempt
	}

	metrics.RecordTierIncidents(company.Name, f.Name(), len(incidents))
	return incidents, attempt
}

// Dedup keeps the first incident for each ID, preserving order.
func Dedup(incidents []domain.Incident) []domain.Incident {
	return sources.DedupByID(incidents)
}

// oldestStart returns the naive effective start of the earliest incident.
func oldestStart(incidents []domain.Incident) time.Time {
	var oldest time.Time
	for i := range incidents {
		t := domain.Naive(incidents[i].EffectiveStart())
		if oldest.IsZero() || t.Before(oldest) {
			oldest = t
		}
	}
	return oldest
}

// before keeps incidents starting strictly before limit, which makes the
// gap window half-open.
func before(incidents []domain.Incident, limit time.Time) []domain.Incident {
	kept := incidents[:0:0]
	for i := range incidents {
		if domain.Naive(incidents[i].EffectiveStart()).Before(limit) {
			kept = append(kept, incidents[i])
		}
	}
	return kept
}
