package acquisition

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/sources"
)

// fakeFetcher returns canned incidents filtered to the requested window,
// the same way real fetchers filter.
type fakeFetcher struct {
	name      string
	incidents []domain.Incident
	err       error
	block     bool
	delay     time.Duration
	closeErr  error

	mu     sync.Mutex
	calls  []domain.Timeframe
	closed bool

	inflight *atomic.Int32
	maxSeen  *atomic.Int32
}

var _ sources.Fetcher = (*fakeFetcher)(nil)

func newFake(name string, incidents ...domain.Incident) *fakeFetcher {
	return &fakeFetcher{name: name, incidents: incidents}
}

func (f *fakeFetcher) Name() string { return f.name }

func (f *fakeFetcher) FetchIncidents(ctx context.Context, _, _ string, tf domain.Timeframe) ([]domain.Incident, error) {
	f.mu.Lock()
	f.calls = append(f.calls, tf)
	f.mu.Unlock()

	if f.inflight != nil {
		n := f.inflight.Add(1)
		defer f.inflight.Add(-1)
		for {
			seen := f.maxSeen.Load()
			if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
				break
			}
		}
	}

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return tf.Filter(f.incidents), nil
}

func (f *fakeFetcher) FetchStatusPageInfo(_ context.Context, baseURL string) domain.StatusPage {
	return domain.StatusPage{CompanyName: f.name, BaseURL: baseURL, HasAPI: f.name == sources.SourceAPI && f.err == nil}
}

func (f *fakeFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

func (f *fakeFetcher) windows() []domain.Timeframe {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Timeframe(nil), f.calls...)
}

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return day0.AddDate(0, 0, n)
}

func incidentAt(id string, at time.Time) domain.Incident {
	return domain.Incident{
		ID:        id,
		Name:      "incident " + id,
		Status:    domain.IncidentStatusResolved,
		Impact:    domain.ImpactMinor,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

var acme = domain.Company{Name: "acme", URL: "https://status.acme.test"}
