// Package rss reads incidents from a status page's RSS or Atom feed.
package rss

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/normalize"
	"github.com/bissquit/reliability-reporter/internal/pkg/ctxlog"
	"github.com/bissquit/reliability-reporter/internal/sources"
	"github.com/bissquit/reliability-reporter/internal/transport"
	"github.com/mmcdole/gofeed"
)

const unknownTitle = "Unknown"

// FeedPaths are the conventional feed locations, tried in order.
var FeedPaths = []string{"/history.rss", "/feed.rss", "/rss", "/feed", "/atom.xml", "/incidents.rss", "/status.rss"}

var titleSuffixes = []string{" Status", " System Status", " - Status", " | Status"}

// Fetcher maps feed entries to resolved incidents with a single update.
type Fetcher struct {
	client *transport.Client
	parser *gofeed.Parser
}

// New creates an RSS fetcher.
func New(config sources.Config) *Fetcher {
	return &Fetcher{
		client: sources.NewClient(sources.SourceRSS, config),
		parser: gofeed.NewParser(),
	}
}

// Name returns the source name.
func (f *Fetcher) Name() string {
	return sources.SourceRSS
}

// Close releases the fetcher's HTTP resources.
func (f *Fetcher) Close() error {
	return f.client.Close()
}

// FetchIncidents reads the first feed path that yields entries and returns
// the incidents inside tf.
func (f *Fetcher) FetchIncidents(ctx context.Context, baseURL, company string, tf domain.Timeframe) ([]domain.Incident, error) {
	normalized, err := sources.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	feed, err := f.findFeed(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if feed == nil {
		return nil, nil
	}

	now := sources.Now()
	incidents := make([]domain.Incident, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		incidents = append(incidents, toIncident(item, company, normalized, now))
	}

	filtered := tf.Filter(incidents)
	ctxlog.FromContext(ctx).Info("fetched incidents from feed", "company", company, "entries", len(incidents), "kept", len(filtered))
	return filtered, nil
}

// FetchStatusPageInfo reports whether a feed exists and takes the company
// name from its title, falling back to the host name.
func (f *Fetcher) FetchStatusPageInfo(ctx context.Context, baseURL string) domain.StatusPage {
	normalized, err := sources.NormalizeBaseURL(baseURL)
	if err != nil {
		return sources.MinimalStatusPage(baseURL, sources.Host(baseURL))
	}

	page := sources.MinimalStatusPage(normalized, sources.Host(normalized))
	feed, err := f.findFeed(ctx, normalized)
	if err != nil || feed == nil {
		return page
	}

	page.HasRSS = true
	if title := strings.TrimSpace(feed.Title); title != "" {
		page.CompanyName = normalize.TrimTitleSuffix(title, titleSuffixes)
	}
	return page
}

// findFeed returns the first feed with entries. A nil feed with a nil
// error means paths answered but none carried entries.
func (f *Fetcher) findFeed(ctx context.Context, baseURL string) (*gofeed.Feed, error) {
	log := ctxlog.FromContext(ctx)
	reached := false

	for _, path := range FeedPaths {
		url := baseURL + path
		body, err := f.client.Get(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debug("feed path failed", "url", url, "error", err)
			continue
		}
		reached = true

		feed, err := f.parser.ParseString(string(body))
		if err != nil {
			log.Debug("not a feed", "url", url, "error", err)
			continue
		}
		if len(feed.Items) > 0 {
			return feed, nil
		}
	}

	if !reached {
		return nil, fmt.Errorf("%w: no feed path reachable on %s", sources.ErrNoData, baseURL)
	}
	return nil, nil
}

func toIncident(item *gofeed.Item, company, sourceURL string, now time.Time) domain.Incident {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = unknownTitle
	}

	var date time.Time
	switch {
	case item.PublishedParsed != nil:
		date = item.PublishedParsed.UTC()
	case item.UpdatedParsed != nil:
		date = item.UpdatedParsed.UTC()
	}
	createdAt := date
	if createdAt.IsZero() {
		createdAt = now
	}

	id := strings.TrimSpace(item.GUID)
	if id == "" {
		id = normalize.SyntheticID(normalize.PrefixRSS, title, date)
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	updates := []domain.IncidentUpdate{}
	if summary != "" {
		updates = append(updates, domain.IncidentUpdate{
			ID:        id + "_update_0",
			Status:    domain.IncidentStatusResolved,
			Body:      summary,
			CreatedAt: createdAt,
		})
	}

	var shortlink *string
	if link := strings.TrimSpace(item.Link); link != "" {
		shortlink = &link
	}

	started, resolved := createdAt, createdAt
	return domain.Incident{
		ID:          id,
		Name:        title,
		Status:      domain.IncidentStatusResolved,
		Impact:      domain.ImpactNone,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		StartedAt:   &started,
		ResolvedAt:  &resolved,
		Updates:     updates,
		Components:  []domain.AffectedComponent{},
		SourceURL:   sourceURL,
		CompanyName: company,
		Shortlink:   shortlink,
	}
}
