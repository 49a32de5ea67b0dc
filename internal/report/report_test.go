package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bissquit/reliability-reporter/internal/analysis"
	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func resolvedIncident(id, name string, impact domain.Impact, start time.Time, hours float64) domain.Incident {
	resolved := start.Add(time.Duration(hours * float64(time.Hour)))
	link := "https://status.acme.com/incidents/" + id
	return domain.Incident{
		ID:          id,
		Name:        name,
		Status:      domain.IncidentStatusResolved,
		Impact:      impact,
		CreatedAt:   start,
		ResolvedAt:  &resolved,
		CompanyName: "Acme",
		Shortlink:   &link,
		Components:  []domain.AffectedComponent{{ID: "c1", Name: "API"}, {ID: "c2", Name: "Dashboard"}},
	}
}

func fixture() []domain.Incident {
	return []domain.Incident{
		resolvedIncident("a", "Database connection pool exhausted", domain.ImpactCritical, time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), 2),
		resolvedIncident("b", "DNS resolution errors in network", domain.ImpactMajor, time.Date(2024, 2, 3, 9, 30, 0, 0, time.UTC), 1),
		resolvedIncident("c", "Scheduled maintenance window", domain.ImpactMaintenance, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 4),
	}
}

func newTestBuilder() *Builder {
	b := NewBuilder(nil, analysis.PeriodMonth)
	b.now = func() time.Time { return generatedAt }
	return b
}

func buildFixture(t *testing.T) domain.Report {
	t.Helper()
	r, err := newTestBuilder().Build(context.Background(), Input{
		Company:   "Acme",
		Incidents: fixture(),
		Peers: map[string][]domain.Incident{
			"Globex": {resolvedIncident("g", "API outage", domain.ImpactCritical, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 1)},
		},
		Timeframe: domain.Timeframe{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	return r
}

func TestBuilder_Build(t *testing.T) {
	r := buildFixture(t)

	assert.Equal(t, "Acme", r.CompanyName)
	assert.Equal(t, generatedAt, r.GeneratedAt)
	assert.Equal(t, []string{"Globex"}, r.PeerCompanies)

	require.Len(t, r.Incidents, 3)
	assert.Equal(t, "c", r.Incidents[0].ID, "newest first")
	for _, inc := range r.Incidents {
		assert.NotNil(t, inc.Category)
	}

	assert.Equal(t, 3, r.Stats.TotalCount)
	assert.Len(t, r.Trends, 3)
	require.Len(t, r.PeerComparisons, 1)
	assert.Equal(t, 2, r.PeerComparisons[0].IncidentCountDiff)
	assert.Len(t, r.Categories, 10)
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, []domain.Incident, []domain.Category) ([]domain.Incident, error) {
	return nil, errors.New("model unavailable")
}

func TestBuilder_ClassifierError(t *testing.T) {
	_, err := NewBuilder(failingClassifier{}, "").Build(context.Background(), Input{Company: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classify Acme")
}

func TestWriteMarkdown(t *testing.T) {
	r := buildFixture(t)

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, &r))
	out := buf.String()

	assert.Contains(t, out, "# Reliability Report: Acme")
	assert.Contains(t, out, "**Analysis Period:** January 01, 2024 - March 31, 2024 (90 days)")
	assert.Contains(t, out, "**Generated:** 2024-04-01 12:00:00")
	assert.Contains(t, out, "**Peer Companies Analyzed:** Globex")
	assert.Contains(t, out, "- **Total Incidents:** 3")
	assert.Contains(t, out, "- **Severity Level:** Critical")
	assert.Contains(t, out, "| Critical | 1 | 33.3% |")
	assert.Contains(t, out, "| Average Duration | 2.33 hours |")
	assert.Contains(t, out, "| Database/Storage Issues | 1 | 33.3% |")
	assert.Contains(t, out, "| 2024-01 | 1 | 1 | 0 | 2.0h | 2.0h |")
	assert.Contains(t, out, "| Globex | 1 | +2 | 1.0h (+1.3h) | 1 |")
	assert.Contains(t, out, "### Scheduled Maintenance")
	assert.Contains(t, out, "| 2024-03-01 | Scheduled maintenance window | maintenance | resolved | 4.0h |")
	assert.NotContains(t, out, "<no value>")
}

func TestWriteMarkdown_Empty(t *testing.T) {
	r := domain.Report{CompanyName: "Acme", GeneratedAt: generatedAt}

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, &r))
	out := buf.String()

	assert.Contains(t, out, "No incidents recorded during the analysis period.")
	assert.Contains(t, out, "**Peer Companies Analyzed:** None")
	assert.NotContains(t, out, "Analysis Period")
	assert.NotContains(t, out, "## Trends")
}

func TestWriteCSV(t *testing.T) {
	r := buildFixture(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &r))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"2024-03-01", "00:00:00", "Acme", "Scheduled maintenance window", "maintenance", "resolved",
		"Scheduled Maintenance", "4.00", "", "", "API, Dashboard", "https://status.acme.com/incidents/c",
	}, records[1])
	assert.Equal(t, "2024-01-10", records[3][0])
}

func TestWriteCSV_Uncategorized(t *testing.T) {
	r := domain.Report{Incidents: []domain.Incident{{ID: "x", Name: "Unknown", CreatedAt: generatedAt}}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &r))
	assert.True(t, strings.Contains(buf.String(), ",Uncategorized,"))
}

func TestSave(t *testing.T) {
	r := buildFixture(t)
	dir := filepath.Join(t.TempDir(), "out")

	path, err := Save(dir, &r, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "acme-2024-04-01.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Date,Time,Company"))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"markdown", FormatMarkdown, false},
		{"MD", FormatMarkdown, false},
		{" csv ", FormatCSV, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "acme-corp", slug("Acme Corp."))
	assert.Equal(t, "a-b", slug("  A // B  "))
}
