// Package sources defines the contract shared by every incident source and
// the helpers they have in common.
package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/pkg/ratelimit"
	"github.com/bissquit/reliability-reporter/internal/transport"
)

// Source names, used as fetcher names, metric labels and outcome tiers.
const (
	SourceAPI     = "api"
	SourceHistory = "history"
	SourceGeneric = "generic"
	SourceRSS     = "rss"
)

// Fetcher acquires incidents from one kind of status page source.
//
// FetchIncidents returns incidents whose effective start lies inside tf,
// in source order. An empty result with a nil error means the source had
// nothing for the window. FetchStatusPageInfo never fails: on error it
// returns a minimal StatusPage with HasAPI unset.
type Fetcher interface {
	Name() string
	FetchIncidents(ctx context.Context, baseURL, company string, tf domain.Timeframe) ([]domain.Incident, error)
	FetchStatusPageInfo(ctx context.Context, baseURL string) domain.StatusPage
	Close() error
}

// Config holds settings shared by all fetchers.
type Config struct {
	RateLimit      float64
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	UserAgent      string
	MaxPages       int
}

// DefaultConfig returns default fetcher configuration.
func DefaultConfig() Config {
	tc := transport.DefaultConfig()
	return Config{
		RateLimit:      ratelimit.DefaultRate,
		Timeout:        tc.Timeout,
		MaxAttempts:    tc.MaxAttempts,
		InitialBackoff: tc.InitialBackoff,
		MaxBackoff:     tc.MaxBackoff,
		UserAgent:      tc.UserAgent,
	}
}

// NewClient builds the transport for a fetcher. Each fetcher owns its client
// and its limiter; nothing is shared between sources.
func NewClient(source string, config Config) *transport.Client {
	return transport.New(transport.Config{
		Source:         source,
		Timeout:        config.Timeout,
		MaxAttempts:    config.MaxAttempts,
		InitialBackoff: config.InitialBackoff,
		MaxBackoff:     config.MaxBackoff,
		UserAgent:      config.UserAgent,
	}, ratelimit.New(config.RateLimit))
}

// NormalizeBaseURL reduces a status page URL to scheme and host, so
// "https://status.example.com/history?page=2" becomes
// "https://status.example.com".
func NormalizeBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Host returns the host part of a status page URL, or the input when it
// cannot be parsed.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

// DedupByID keeps the first incident for every ID, preserving order.
func DedupByID(incidents []domain.Incident) []domain.Incident {
	seen := make(map[string]struct{}, len(incidents))
	unique := make([]domain.Incident, 0, len(incidents))
	for i := range incidents {
		if _, ok := seen[incidents[i].ID]; ok {
			continue
		}
		seen[incidents[i].ID] = struct{}{}
		unique = append(unique, incidents[i])
	}
	return unique
}

// MinimalStatusPage is the degraded result returned when page info cannot
// be fetched.
func MinimalStatusPage(baseURL, companyName string) domain.StatusPage {
	return domain.StatusPage{
		CompanyName: companyName,
		BaseURL:     baseURL,
		HasAPI:      false,
		Components:  []domain.AffectedComponent{},
	}
}

// Now returns the fetch time used when a record carries no usable date.
// Tests may replace it.
var Now = func() time.Time {
	return time.Now().UTC()
}
