package normalize

import (
	"testing"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestInferImpact(t *testing.T) {
	tests := []struct {
		text string
		want domain.Impact
	}{
		{"Major outage in EU region", domain.ImpactCritical},
		{"API is down", domain.ImpactCritical},
		{"Severe latency", domain.ImpactCritical},
		{"Significant delays", domain.ImpactMajor},
		{"Degraded performance", domain.ImpactMajor},
		{"Partial disruption", domain.ImpactMinor},
		{"Intermittent errors", domain.ImpactMinor},
		{"Scheduled database upgrade", domain.ImpactMaintenance},
		{"Planned work", domain.ImpactMaintenance},
		{"Elevated error rates", domain.ImpactNone},
		{"", domain.ImpactNone},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, InferImpact(tt.text))
		})
	}
}

func TestImpactFromClasses(t *testing.T) {
	tests := []struct {
		name    string
		classes []string
		want    domain.Impact
	}{
		{"critical", []string{"incident", "impact-critical"}, domain.ImpactCritical},
		{"red", []string{"color-red"}, domain.ImpactCritical},
		{"orange", []string{"orange"}, domain.ImpactMajor},
		{"minor", []string{"impact-minor"}, domain.ImpactMinor},
		{"yellow", []string{"yellow"}, domain.ImpactMinor},
		{"blue", []string{"blue"}, domain.ImpactMaintenance},
		{"first class wins", []string{"yellow", "red"}, domain.ImpactMinor},
		{"none", []string{"incident-container"}, domain.ImpactNone},
		{"empty", nil, domain.ImpactNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImpactFromClasses(tt.classes))
		})
	}
}

func TestParseImpact(t *testing.T) {
	assert.Equal(t, domain.ImpactMajor, ParseImpact("major"))
	assert.Equal(t, domain.ImpactCritical, ParseImpact(" Critical "))
	assert.Equal(t, domain.ImpactNone, ParseImpact(""))
	assert.Equal(t, domain.ImpactNone, ParseImpact("catastrophic"))
}

func TestInferStatus(t *testing.T) {
	tests := []struct {
		text     string
		fallback domain.IncidentStatus
		want     domain.IncidentStatus
	}{
		{"Investigating - we are looking into it", domain.IncidentStatusResolved, domain.IncidentStatusInvestigating},
		{"Identified", domain.IncidentStatusResolved, domain.IncidentStatusIdentified},
		{"MONITORING", domain.IncidentStatusResolved, domain.IncidentStatusMonitoring},
		{"Resolved", domain.IncidentStatusUnknown, domain.IncidentStatusResolved},
		{"Completed", domain.IncidentStatusUnknown, domain.IncidentStatusResolved},
		{"Postmortem", domain.IncidentStatusUnknown, domain.IncidentStatusPostmortem},
		{"Planned", domain.IncidentStatusUnknown, domain.IncidentStatusScheduled},
		{"", domain.IncidentStatusResolved, domain.IncidentStatusResolved},
		{"something else", domain.IncidentStatusUnknown, domain.IncidentStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, InferStatus(tt.text, tt.fallback))
		})
	}
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, domain.IncidentStatusResolved, ParseStatus("resolved"))
	assert.Equal(t, domain.IncidentStatusUnknown, ParseStatus(""))
	assert.Equal(t, domain.IncidentStatusUnknown, ParseStatus("in_progress"))
}

func TestSyntheticID(t *testing.T) {
	date := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	id := SyntheticID(PrefixGeneric, "API outage", date)
	assert.Regexp(t, `^generic_[0-9a-f]{8}$`, id)
	assert.Equal(t, id, SyntheticID(PrefixGeneric, "API outage", date), "must be deterministic")
	assert.NotEqual(t, id, SyntheticID(PrefixGeneric, "API outage", date.Add(24*time.Hour)))
	assert.NotEqual(t, id, SyntheticID(PrefixGeneric, "DNS outage", date))

	// same instant in another zone is the same incident
	assert.Equal(t, id, SyntheticID(PrefixGeneric, "API outage", date.In(time.FixedZone("X", 3600))))

	assert.Regexp(t, `^rss_[0-9a-f]{8}$`, SyntheticID(PrefixRSS, "t", time.Time{}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo wörld", 5))
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "", Truncate("x", 0))
}

func TestTrimTitleSuffix(t *testing.T) {
	suffixes := []string{" Status", " System Status", " - Status", " | Status"}
	assert.Equal(t, "Acme", TrimTitleSuffix("Acme Status", suffixes))
	assert.Equal(t, "Acme", TrimTitleSuffix("Acme - Status", suffixes))
	assert.Equal(t, "Acme", TrimTitleSuffix("Acme | Status", suffixes))
	assert.Equal(t, "Acme", TrimTitleSuffix("Acme System Status", suffixes))
	assert.Equal(t, "Acme", TrimTitleSuffix("Acme", suffixes))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", CleanText("  a\n\tb   c "))
}
