// Package statuspageapi fetches incidents from the Statuspage v2 JSON API.
package statuspageapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/normalize"
	"github.com/bissquit/reliability-reporter/internal/pkg/ctxlog"
	"github.com/bissquit/reliability-reporter/internal/sources"
	"github.com/bissquit/reliability-reporter/internal/transport"
)

const (
	incidentsPath  = "/api/v2/incidents.json"
	unresolvedPath = "/api/v2/incidents/unresolved.json"
	summaryPath    = "/api/v2/summary.json"
	statusPath     = "/api/v2/status.json"

	unknownIncidentName = "Unknown Incident"
	unknownCompany      = "Unknown"
)

// Fetcher reads the structured API. It is authoritative when present but
// only serves a rolling window of recent history.
type Fetcher struct {
	client *transport.Client
}

// New creates an API fetcher.
func New(config sources.Config) *Fetcher {
	return &Fetcher{
		client: sources.NewClient(sources.SourceAPI, config),
	}
}

// Name returns the source name.
func (f *Fetcher) Name() string {
	return sources.SourceAPI
}

// Close releases the fetcher's HTTP resources.
func (f *Fetcher) Close() error {
	return f.client.Close()
}

// FetchIncidents returns API incidents inside tf.
func (f *Fetcher) FetchIncidents(ctx context.Context, baseURL, company string, tf domain.Timeframe) ([]domain.Incident, error) {
	incidents, err := f.fetch(ctx, baseURL, company, incidentsPath)
	if err != nil {
		return nil, err
	}

	log := ctxlog.FromContext(ctx)
	log.Info("fetched incidents from api", "company", company, "count", len(incidents))

	filtered := tf.Filter(incidents)
	log.Debug("filtered api incidents", "company", company, "count", len(filtered))
	return filtered, nil
}

// FetchUnresolvedIncidents returns the currently active incidents.
func (f *Fetcher) FetchUnresolvedIncidents(ctx context.Context, baseURL, company string) ([]domain.Incident, error) {
	return f.fetch(ctx, baseURL, company, unresolvedPath)
}

// FetchStatusPageInfo reads the page name and components from the summary
// endpoint.
func (f *Fetcher) FetchStatusPageInfo(ctx context.Context, baseURL string) domain.StatusPage {
	normalized, err := sources.NormalizeBaseURL(baseURL)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("invalid status page url", "url", baseURL, "error", err)
		return sources.MinimalStatusPage(baseURL, unknownCompany)
	}

	var summary summaryResponse
	if err := f.client.GetJSON(ctx, normalized+summaryPath, &summary); err != nil {
		ctxlog.FromContext(ctx).Error("failed to fetch status page info", "url", normalized, "error", err)
		page := sources.MinimalStatusPage(normalized, unknownCompany)
		page.APIBaseURL = normalized
		return page
	}

	name := summary.Page.Name
	if name == "" {
		name = unknownCompany
	}

	return domain.StatusPage{
		CompanyName: name,
		BaseURL:     normalized,
		APIBaseURL:  normalized,
		HasAPI:      true,
		Components:  parseComponents(summary.Components),
	}
}

// CheckAPIAvailable reports whether the status endpoint answers.
func (f *Fetcher) CheckAPIAvailable(ctx context.Context, baseURL string) bool {
	normalized, err := sources.NormalizeBaseURL(baseURL)
	if err != nil {
		return false
	}

	var status map[string]any
	return f.client.GetJSON(ctx, normalized+statusPath, &status) == nil
}

func (f *Fetcher) fetch(ctx context.Context, baseURL, company, path string) ([]domain.Incident, error) {
	normalized, err := sources.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	var resp incidentsResponse
	if err := f.client.GetJSON(ctx, normalized+path, &resp); err != nil {
		return nil, fmt.Errorf("fetch api incidents for %s: %w", company, err)
	}

	now := sources.Now()
	log := ctxlog.FromContext(ctx)
	incidents := make([]domain.Incident, 0, len(resp.Incidents))
	for i, raw := range resp.Incidents {
		var item apiIncident
		if err := json.Unmarshal(raw, &item); err != nil {
			log.Warn("skipping malformed api incident", "company", company, "index", i, "error", err)
			continue
		}
		incidents = append(incidents, item.toDomain(company, baseURL, now))
	}
	return incidents, nil
}

// incidentsResponse keeps entries raw so one malformed record does not fail
// the whole response.
type incidentsResponse struct {
	Incidents []json.RawMessage `json:"incidents"`
}

type summaryResponse struct {
	Page struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"page"`
	Components []apiComponent `json:"components"`
}

type apiIncident struct {
	ID         string         `json:"id"`
	Name       *string        `json:"name"`
	Status     string         `json:"status"`
	Impact     string         `json:"impact"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
	ResolvedAt string         `json:"resolved_at"`
	StartedAt  string         `json:"started_at"`
	Shortlink  *string        `json:"shortlink"`
	Updates    []apiUpdate    `json:"incident_updates"`
	Components []apiComponent `json:"components"`
}

type apiUpdate struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type apiComponent struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Status *string `json:"status"`
}

func (a *apiIncident) toDomain(company, sourceURL string, now time.Time) domain.Incident {
	name := unknownIncidentName
	if a.Name != nil {
		name = *a.Name
	}

	updates := make([]domain.IncidentUpdate, 0, len(a.Updates))
	for _, u := range a.Updates {
		updates = append(updates, domain.IncidentUpdate{
			ID:        u.ID,
			Status:    normalize.ParseStatus(u.Status),
			Body:      u.Body,
			CreatedAt: timeOr(u.CreatedAt, now),
		})
	}

	return domain.Incident{
		ID:          a.ID,
		Name:        name,
		Status:      normalize.ParseStatus(a.Status),
		Impact:      normalize.ParseImpact(a.Impact),
		CreatedAt:   timeOr(a.CreatedAt, now),
		UpdatedAt:   timeOr(a.UpdatedAt, now),
		ResolvedAt:  optionalTime(a.ResolvedAt),
		StartedAt:   optionalTime(a.StartedAt),
		Updates:     updates,
		Components:  parseComponents(a.Components),
		SourceURL:   sourceURL,
		CompanyName: company,
		Shortlink:   a.Shortlink,
	}
}

func parseComponents(raw []apiComponent) []domain.AffectedComponent {
	components := make([]domain.AffectedComponent, 0, len(raw))
	for _, c := range raw {
		components = append(components, domain.AffectedComponent{
			ID:     c.ID,
			Name:   c.Name,
			Status: c.Status,
		})
	}
	return components
}

func timeOr(s string, fallback time.Time) time.Time {
	if t, ok := normalize.ParseISO(s); ok {
		return t
	}
	return fallback
}

func optionalTime(s string) *time.Time {
	t, ok := normalize.ParseISO(s)
	if !ok {
		return nil
	}
	return &t
}
