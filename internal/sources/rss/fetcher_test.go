package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Acme Status</title>
  <link>https://status.acme.test</link>
  <item>
    <title>Elevated error rates</title>
    <description>We saw elevated errors on the API.</description>
    <pubDate>Tue, 05 Mar 2024 10:00:00 +0000</pubDate>
    <link>https://status.acme.test/incidents/xyz</link>
    <guid>https://status.acme.test/incidents/xyz</guid>
  </item>
  <item>
    <title>Old news</title>
    <pubDate>Mon, 01 Jan 2018 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>No guid here</title>
    <pubDate>Wed, 06 Mar 2024 08:30:00 +0000</pubDate>
  </item>
</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Acme</title>
  <id>urn:acme</id>
  <updated>2024-03-07T00:00:00Z</updated>
  <entry>
    <title>Queue backlog</title>
    <id>urn:acme:1</id>
    <updated>2024-03-07T00:00:00Z</updated>
    <summary>Jobs were delayed.</summary>
  </entry>
</feed>`

func newServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig() sources.Config {
	return sources.Config{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond}
}

func TestFetcher_FetchIncidents_RSS(t *testing.T) {
	server := newServer(t, map[string]string{"/feed.rss": rssFeed})
	f := New(testConfig())
	defer func() { _ = f.Close() }()

	tf := domain.Timeframe{Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	incidents, err := f.FetchIncidents(context.Background(), server.URL, "acme", tf)
	require.NoError(t, err)
	require.Len(t, incidents, 2)

	first := incidents[0]
	assert.Equal(t, "https://status.acme.test/incidents/xyz", first.ID)
	assert.Equal(t, "Elevated error rates", first.Name)
	assert.Equal(t, domain.IncidentStatusResolved, first.Status)
	assert.Equal(t, domain.ImpactNone, first.Impact)
	want := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, want, first.CreatedAt)
	require.NotNil(t, first.StartedAt)
	require.NotNil(t, first.ResolvedAt)
	assert.Equal(t, want, *first.StartedAt)
	assert.Equal(t, want, *first.ResolvedAt)
	require.Len(t, first.Updates, 1)
	assert.Equal(t, "We saw elevated errors on the API.", first.Updates[0].Body)
	require.NotNil(t, first.Shortlink)
	assert.Equal(t, server.URL, first.SourceURL)

	second := incidents[1]
	assert.Regexp(t, `^rss_[0-9a-f]{8}$`, second.ID)
	assert.Empty(t, second.Updates)
	assert.Nil(t, second.Shortlink)
}

func TestFetcher_FetchIncidents_Atom(t *testing.T) {
	server := newServer(t, map[string]string{"/atom.xml": atomFeed, "/rss": "<html>not a feed</html>"})
	f := New(testConfig())

	incidents, err := f.FetchIncidents(context.Background(), server.URL, "acme", domain.Timeframe{})
	require.NoError(t, err)
	require.Len(t, incidents, 1)
	assert.Equal(t, "urn:acme:1", incidents[0].ID)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), incidents[0].CreatedAt)
	require.Len(t, incidents[0].Updates, 1)
	assert.Equal(t, "Jobs were delayed.", incidents[0].Updates[0].Body)
}

func TestFetcher_FetchIncidents_NoFeed(t *testing.T) {
	server := newServer(t, map[string]string{})
	f := New(testConfig())

	incidents, err := f.FetchIncidents(context.Background(), server.URL, "acme", domain.Timeframe{})
	assert.ErrorIs(t, err, sources.ErrNoData)
	assert.Empty(t, incidents)

	_, err = f.FetchIncidents(context.Background(), "mailto:x", "acme", domain.Timeframe{})
	assert.ErrorIs(t, err, sources.ErrInvalidURL)
}

func TestFetcher_FetchIncidents_EmptyFeed(t *testing.T) {
	server := newServer(t, map[string]string{"/rss": `<rss version="2.0"><channel><title>x</title></channel></rss>`})
	f := New(testConfig())

	incidents, err := f.FetchIncidents(context.Background(), server.URL, "acme", domain.Timeframe{})
	assert.NoError(t, err)
	assert.Empty(t, incidents)
}

func TestFetcher_FetchStatusPageInfo(t *testing.T) {
	server := newServer(t, map[string]string{"/history.rss": rssFeed})
	f := New(testConfig())

	page := f.FetchStatusPageInfo(context.Background(), server.URL)
	assert.True(t, page.HasRSS)
	assert.Equal(t, "Acme", page.CompanyName)

	missing := newServer(t, map[string]string{})
	page = f.FetchStatusPageInfo(context.Background(), missing.URL)
	assert.False(t, page.HasRSS)
	assert.Equal(t, sources.Host(missing.URL), page.CompanyName)
}
