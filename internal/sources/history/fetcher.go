// Package history scrapes the paginated HTML incident history of hosted
// status pages.
package history

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/normalize"
	"github.com/bissquit/reliability-reporter/internal/pkg/ctxlog"
	"github.com/bissquit/reliability-reporter/internal/sources"
	"github.com/bissquit/reliability-reporter/internal/transport"
)

// DefaultMaxPages bounds pagination when the config leaves it unset.
const DefaultMaxPages = 50

const unknownCompany = "Unknown"

const (
	containerSelector = ".incident-container, .incident, .status-day, [data-incident-id]"
	fallbackSelector  = ".month .incident, .incidents-list .incident"
	titleSelector     = ".incident-title, .incident-name, h3, .actual-title"
	linkSelector      = "a[href*='/incidents/']"
	dateSelector      = ".incident-date, .date, time, .timestamp, small"
	resolvedSelector  = ".resolved-date, .end-date"
	statusSelector    = ".incident-status, .status, .unresolved"
	updateSelector    = ".incident-update, .update, .message-wrapper"
	updateBody        = ".update-body, .message, p"
	updateStatus      = ".update-status, .status"
	updateDate        = ".update-date, .timestamp, small"
	pageTitleSelector = "title, .page-title, h1"
)

var (
	titleSuffixes = []string{" Status", " System Status", " - Status"}

	incidentIDRe = regexp.MustCompile(`/incidents/([a-zA-Z0-9]+)`)

	errMissingTitle = errors.New("incident element has no title")
)

// Fetcher walks /history?page=N until it runs out of pages, passes the
// start of the window, or hits MaxPages.
type Fetcher struct {
	client   *transport.Client
	maxPages int
}

// New creates a history scraper.
func New(config sources.Config) *Fetcher {
	maxPages := config.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Fetcher{
		client:   sources.NewClient(sources.SourceHistory, config),
		maxPages: maxPages,
	}
}

// Name returns the source name.
func (f *Fetcher) Name() string {
	return sources.SourceHistory
}

// Close releases the fetcher's HTTP resources.
func (f *Fetcher) Close() error {
	return f.client.Close()
}

// FetchIncidents scrapes history pages and returns unique incidents inside tf.
func (f *Fetcher) FetchIncidents(ctx context.Context, baseURL, company string, tf domain.Timeframe) ([]domain.Incident, error) {
	normalized, err := sources.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	log := ctxlog.FromContext(ctx)

	var all []domain.Incident
	for page := 1; page <= f.maxPages; page++ {
		incidents, err := f.FetchPage(ctx, normalized, company, page)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			log.Warn("stopping history pagination", "company", company, "page", page, "error", err)
			break
		}

		if len(incidents) == 0 {
			log.Info("no more incidents in history", "company", company, "page", page)
			break
		}
		all = append(all, incidents...)

		if !tf.Start.IsZero() && oldest(incidents).Before(domain.Naive(tf.Start)) {
			log.Info("reached incidents before window start", "company", company, "page", page)
			break
		}
	}

	unique := sources.DedupByID(tf.Filter(all))
	log.Info("fetched incidents from history", "company", company, "scraped", len(all), "kept", len(unique))
	return unique, nil
}

// FetchPage scrapes one history page. baseURL must already be normalized.
func (f *Fetcher) FetchPage(ctx context.Context, baseURL, company string, page int) ([]domain.Incident, error) {
	url := baseURL + "/history?page=" + strconv.Itoa(page)

	html, err := f.client.GetHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch history page %d: %w", page, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse history page %d: %w", page, err)
	}

	incidents := ParseDocument(ctx, doc, company, baseURL)
	ctxlog.FromContext(ctx).Debug("parsed history page", "company", company, "page", page, "count", len(incidents))
	return incidents, nil
}

// FetchStatusPageInfo derives the company name from the page title.
func (f *Fetcher) FetchStatusPageInfo(ctx context.Context, baseURL string) domain.StatusPage {
	normalized, err := sources.NormalizeBaseURL(baseURL)
	if err != nil {
		return sources.MinimalStatusPage(baseURL, unknownCompany)
	}

	html, err := f.client.GetHTML(ctx, normalized)
	if err != nil {
		ctxlog.FromContext(ctx).Error("failed to fetch status page info", "url", normalized, "error", err)
		return sources.MinimalStatusPage(normalized, unknownCompany)
	}

	name := unknownCompany
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		if title := normalize.Text(doc.Find(pageTitleSelector)); title != "" {
			name = normalize.TrimTitleSuffix(title, titleSuffixes)
		}
	}

	page := sources.MinimalStatusPage(normalized, name)
	page.HasHistoryPages = true
	return page
}

// ParseDocument extracts every parsable incident from a history page.
// Elements that fail to parse are logged and skipped.
func ParseDocument(ctx context.Context, doc *goquery.Document, company, baseURL string) []domain.Incident {
	elems := doc.Find(containerSelector)
	if elems.Length() == 0 {
		elems = doc.Find(fallbackSelector)
	}

	now := sources.Now()
	log := ctxlog.FromContext(ctx)

	incidents := make([]domain.Incident, 0, elems.Length())
	elems.Each(func(i int, elem *goquery.Selection) {
		incident, err := parseIncident(elem, company, baseURL, now)
		if err != nil {
			log.Warn("skipping history element", "company", company, "index", i, "error", err)
			return
		}
		incidents = append(incidents, incident)
	})
	return incidents
}

func parseIncident(elem *goquery.Selection, company, baseURL string, now time.Time) (domain.Incident, error) {
	title := normalize.Text(elem.Find(titleSelector))
	if title == "" {
		return domain.Incident{}, errMissingTitle
	}

	date, hasDate := normalize.ParseDate(normalize.Text(elem.Find(dateSelector)))
	createdAt := date
	if !hasDate {
		createdAt = now
	}

	var id string
	var shortlink *string
	if link := elem.Find(linkSelector).First(); link.Length() > 0 {
		href, _ := link.Attr("href")
		if m := incidentIDRe.FindStringSubmatch(href); m != nil {
			id = m[1]
		}
		if abs := normalize.ResolveURL(baseURL, href); abs != "" {
			shortlink = &abs
		}
	}
	if id == "" {
		id = normalize.SyntheticID(normalize.PrefixHTML, title, date)
	}

	var resolvedAt *time.Time
	if resolved := elem.Find(resolvedSelector); resolved.Length() > 0 {
		if t, ok := normalize.ParseDate(normalize.Text(resolved)); ok {
			resolvedAt = &t
		}
	}

	status := domain.IncidentStatusResolved
	if s := elem.Find(statusSelector); s.Length() > 0 {
		status = normalize.InferStatus(normalize.Text(s), domain.IncidentStatusResolved)
	}

	started := createdAt
	return domain.Incident{
		ID:          id,
		Name:        title,
		Status:      status,
		Impact:      normalize.ImpactFromClasses(normalize.Classes(elem)),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		StartedAt:   &started,
		ResolvedAt:  resolvedAt,
		Updates:     parseUpdates(elem, id, status, createdAt),
		Components:  []domain.AffectedComponent{},
		SourceURL:   baseURL,
		CompanyName: company,
		Shortlink:   shortlink,
	}, nil
}

func parseUpdates(elem *goquery.Selection, incidentID string, status domain.IncidentStatus, createdAt time.Time) []domain.IncidentUpdate {
	updates := []domain.IncidentUpdate{}
	elem.Find(updateSelector).Each(func(i int, u *goquery.Selection) {
		body := u.Find(updateBody)
		if body.Length() == 0 {
			return
		}

		updateStatusValue := status
		if s := u.Find(updateStatus); s.Length() > 0 {
			updateStatusValue = normalize.InferStatus(normalize.Text(s), status)
		}

		at := createdAt
		if d := u.Find(updateDate); d.Length() > 0 {
			if t, ok := normalize.ParseDate(normalize.Text(d)); ok {
				at = t
			}
		}

		updates = append(updates, domain.IncidentUpdate{
			ID:        fmt.Sprintf("%s_update_%d", incidentID, i),
			Status:    updateStatusValue,
			Body:      normalize.Text(body),
			CreatedAt: at,
		})
	})
	return updates
}

// oldest returns the naive effective start of the earliest incident.
func oldest(incidents []domain.Incident) time.Time {
	var earliest time.Time
	for i := range incidents {
		t := domain.Naive(incidents[i].EffectiveStart())
		if earliest.IsZero() || t.Before(earliest) {
			earliest = t
		}
	}
	return earliest
}
