// Package generic scrapes incidents from arbitrary status pages by trying
// well-known paths and selectors until something looks like an incident.
package generic

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/normalize"
	"github.com/bissquit/reliability-reporter/internal/pkg/ctxlog"
	"github.com/bissquit/reliability-reporter/internal/sources"
	"github.com/bissquit/reliability-reporter/internal/transport"
)

// DefaultMaxPages bounds pagination when the config leaves it unset.
const DefaultMaxPages = 10

const (
	minTitleLen       = 3
	maxTitleLen       = 200
	maxDescriptionLen = 500
)

// CandidatePaths are tried in order; the empty path is the page root.
var CandidatePaths = []string{"/history", "/incidents", "/status-history", "/past-incidents", "/updates", ""}

var (
	incidentSelectors = []string{
		".incident", ".incident-container", ".incident-item", ".status-incident",
		"[data-incident]", ".timeline-item", ".event", ".outage", ".disruption",
		"article.incident", ".incident-card", ".status-event",
	}
	titleSelectors = []string{
		".incident-title", ".incident-name", ".title", "h3", "h4",
		".event-title", ".summary", ".headline", "a.incident-link",
	}
	dateSelectors = []string{
		".incident-date", ".date", "time", ".timestamp", ".datetime",
		"[datetime]", ".published", ".created", "small.text-muted",
	}
	statusSelectors = []string{".incident-status", ".status", ".state", ".badge", ".label", ".tag"}
	bodySelectors   = []string{".incident-body", ".description", ".content", ".message", ".details", "p", ".update-body"}

	titleSuffixes = []string{" Status", " System Status", " - Status", " | Status"}

	errNoTitle = errors.New("incident element has no usable title")
)

// Fetcher is the lowest-confidence source. It works on any platform but
// has no native IDs and guesses every field.
type Fetcher struct {
	client   *transport.Client
	maxPages int
}

// New creates a generic scraper.
func New(config sources.Config) *Fetcher {
	maxPages := config.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Fetcher{
		client:   sources.NewClient(sources.SourceGeneric, config),
		maxPages: maxPages,
	}
}

// Name returns the source name.
func (f *Fetcher) Name() string {
	return sources.SourceGeneric
}

// Close releases the fetcher's HTTP resources.
func (f *Fetcher) Close() error {
	return f.client.Close()
}

// FetchIncidents finds the first candidate path with incident-like
// elements, follows ?page=N from there, and returns incidents inside tf
// with duplicate titles removed.
func (f *Fetcher) FetchIncidents(ctx context.Context, baseURL, company string, tf domain.Timeframe) ([]domain.Incident, error) {
	normalized, err := sources.NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	log := ctxlog.FromContext(ctx)

	var (
		found    []domain.Incident
		foundURL string
		reached  bool
	)
	for _, path := range CandidatePaths {
		url := normalized + path
		html, err := f.client.GetHTML(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debug("candidate path failed", "url", url, "error", err)
			continue
		}
		reached = true

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			log.Debug("candidate path is not html", "url", url, "error", err)
			continue
		}

		info := DetectPage(html, doc)
		log.Debug("detected status page", "url", url, "platform", info.Platform, "pagination", info.HasPagination)

		var elems *goquery.Selection
		if info.IncidentSelector != "" {
			elems = doc.Find(info.IncidentSelector)
		}
		if elems == nil || elems.Length() == 0 {
			elems = normalize.FindAll(doc.Selection, incidentSelectors)
		}
		if elems.Length() == 0 {
			continue
		}

		log.Info("found potential incidents", "url", url, "count", elems.Length())
		found = parseElements(ctx, elems, company, normalized)
		if len(found) > 0 {
			foundURL = url
			break
		}
	}

	if !reached {
		return nil, fmt.Errorf("%w: no candidate path reachable on %s", sources.ErrNoData, normalized)
	}

	if len(found) > 0 {
		found = append(found, f.paginate(ctx, foundURL, company, normalized, found)...)
	}

	unique := dedupByTitle(tf.Filter(found))
	log.Info("fetched incidents with generic scraper", "company", company, "scraped", len(found), "kept", len(unique))
	return unique, nil
}

// paginate follows ?page=N from the page where incidents were found. It
// stops at the first page that fails, is empty, or repeats known titles,
// which is what pages ignoring the query parameter look like.
func (f *Fetcher) paginate(ctx context.Context, pageURL, company, baseURL string, seen []domain.Incident) []domain.Incident {
	titles := make(map[string]struct{}, len(seen))
	for i := range seen {
		titles[seen[i].Name] = struct{}{}
	}

	var more []domain.Incident
	for page := 2; page <= f.maxPages; page++ {
		html, err := f.client.GetHTML(ctx, pageURL+"?page="+strconv.Itoa(page))
		if err != nil {
			break
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			break
		}

		elems := normalize.FindAll(doc.Selection, incidentSelectors)
		if elems.Length() == 0 {
			break
		}

		parsed := parseElements(ctx, elems, company, baseURL)
		fresh := 0
		for i := range parsed {
			if _, ok := titles[parsed[i].Name]; !ok {
				titles[parsed[i].Name] = struct{}{}
				fresh++
			}
		}
		if fresh == 0 {
			break
		}
		more = append(more, parsed...)
	}
	return more
}

// FetchStatusPageInfo derives the company name from the page title,
// falling back to the host name.
func (f *Fetcher) FetchStatusPageInfo(ctx context.Context, baseURL string) domain.StatusPage {
	normalized, err := sources.NormalizeBaseURL(baseURL)
	if err != nil {
		return sources.MinimalStatusPage(baseURL, sources.Host(baseURL))
	}
	host := sources.Host(normalized)

	html, err := f.client.GetHTML(ctx, normalized)
	if err != nil {
		ctxlog.FromContext(ctx).Error("failed to fetch status page info", "url", normalized, "error", err)
		return sources.MinimalStatusPage(normalized, host)
	}

	name := host
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		if title := normalize.Text(doc.Find("title, h1, .page-title")); title != "" {
			name = normalize.TrimTitleSuffix(title, titleSuffixes)
		}
	}

	page := sources.MinimalStatusPage(normalized, name)
	page.HasHistoryPages = true
	return page
}

func parseElements(ctx context.Context, elems *goquery.Selection, company, baseURL string) []domain.Incident {
	now := sources.Now()
	log := ctxlog.FromContext(ctx)

	incidents := make([]domain.Incident, 0, elems.Length())
	elems.Each(func(i int, elem *goquery.Selection) {
		incident, err := parseIncident(elem, company, baseURL, now)
		if err != nil {
			log.Debug("skipping element", "company", company, "index", i, "error", err)
			return
		}
		incidents = append(incidents, incident)
	})
	return incidents
}

func parseIncident(elem *goquery.Selection, company, baseURL string, now time.Time) (domain.Incident, error) {
	var title string
	if t := normalize.FindFirst(elem, titleSelectors); t.Length() > 0 {
		title = normalize.Text(t)
	} else {
		title = normalize.Truncate(normalize.CleanText(elem.Text()), maxTitleLen)
	}
	if utf8.RuneCountInString(title) < minTitleLen {
		return domain.Incident{}, errNoTitle
	}

	date, hasDate := elementDate(elem)
	createdAt := date
	if !hasDate {
		createdAt = now
	}

	status := domain.IncidentStatusResolved
	if s := normalize.FindFirst(elem, statusSelectors); s.Length() > 0 {
		status = normalize.InferStatus(normalize.Text(s), domain.IncidentStatusResolved)
	}

	hints := strings.Join(normalize.Classes(elem), " ") + " " + elem.Text()
	impact := normalize.InferImpact(hints)

	id := normalize.SyntheticID(normalize.PrefixGeneric, title, date)

	var shortlink *string
	if href, ok := elem.Find("a[href]").First().Attr("href"); ok && href != "" && !strings.HasPrefix(href, "#") {
		if abs := normalize.ResolveURL(baseURL, href); abs != "" {
			shortlink = &abs
		}
	}

	updates := []domain.IncidentUpdate{}
	if body := normalize.FindFirst(elem, bodySelectors); body.Length() > 0 {
		if description := normalize.Truncate(normalize.Text(body), maxDescriptionLen); description != "" {
			updates = append(updates, domain.IncidentUpdate{
				ID:        id + "_update_0",
				Status:    status,
				Body:      description,
				CreatedAt: createdAt,
			})
		}
	}

	var resolvedAt *time.Time
	if status == domain.IncidentStatusResolved {
		resolved := createdAt
		resolvedAt = &resolved
	}
	started := createdAt

	return domain.Incident{
		ID:          id,
		Name:        title,
		Status:      status,
		Impact:      impact,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
		StartedAt:   &started,
		ResolvedAt:  resolvedAt,
		Updates:     updates,
		Components:  []domain.AffectedComponent{},
		SourceURL:   baseURL,
		CompanyName: company,
		Shortlink:   shortlink,
	}, nil
}

// elementDate prefers a machine-readable datetime attribute over the
// element text.
func elementDate(elem *goquery.Selection) (time.Time, bool) {
	d := normalize.FindFirst(elem, dateSelectors)
	if d.Length() == 0 {
		return time.Time{}, false
	}
	if attr, ok := d.Attr("datetime"); ok {
		if t, ok := normalize.ParseDate(attr); ok {
			return t, true
		}
	}
	return normalize.ParseDate(normalize.Text(d))
}

func dedupByTitle(incidents []domain.Incident) []domain.Incident {
	seen := make(map[string]struct{}, len(incidents))
	unique := make([]domain.Incident, 0, len(incidents))
	for i := range incidents {
		if _, ok := seen[incidents[i].Name]; ok {
			continue
		}
		seen[incidents[i].Name] = struct{}{}
		unique = append(unique, incidents[i])
	}
	return unique
}
