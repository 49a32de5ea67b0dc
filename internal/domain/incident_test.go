package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestIncident_Duration(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		incident    Incident
		wantMinutes *float64
		wantHours   *float64
	}{
		{
			name: "started and resolved",
			incident: Incident{
				CreatedAt:  t0.Add(-time.Hour),
				StartedAt:  ptr(t0),
				ResolvedAt: ptr(t0.Add(90 * time.Minute)),
			},
			wantMinutes: ptr(90.0),
			wantHours:   ptr(1.5),
		},
		{
			name: "falls back to created_at",
			incident: Incident{
				CreatedAt:  t0,
				ResolvedAt: ptr(t0.Add(30 * time.Minute)),
			},
			wantMinutes: ptr(30.0),
			wantHours:   ptr(0.5),
		},
		{
			name:     "unresolved",
			incident: Incident{CreatedAt: t0, StartedAt: ptr(t0)},
		},
		{
			name: "inverted pair is passed through",
			incident: Incident{
				CreatedAt:  t0,
				ResolvedAt: ptr(t0.Add(-15 * time.Minute)),
			},
			wantMinutes: ptr(-15.0),
			wantHours:   ptr(-0.25),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMinutes, tt.incident.DurationMinutes())
			assert.Equal(t, tt.wantHours, tt.incident.DurationHours())
		})
	}
}

func TestIncident_IsResolved(t *testing.T) {
	now := time.Now()

	assert.True(t, (&Incident{Status: IncidentStatusResolved}).IsResolved())
	assert.True(t, (&Incident{Status: IncidentStatusPostmortem}).IsResolved())
	assert.True(t, (&Incident{Status: IncidentStatusMonitoring, ResolvedAt: &now}).IsResolved())
	assert.False(t, (&Incident{Status: IncidentStatusInvestigating}).IsResolved())
}

func TestIncident_MarshalJSON_IncludesDerivedFields(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	inc := Incident{
		ID:         "abc",
		Name:       "API errors",
		Status:     IncidentStatusResolved,
		Impact:     ImpactMajor,
		CreatedAt:  t0,
		UpdatedAt:  t0,
		ResolvedAt: ptr(t0.Add(2 * time.Hour)),
	}

	data, err := json.Marshal(inc)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "abc", decoded["id"])
	assert.Equal(t, 120.0, decoded["duration_minutes"])
	assert.Equal(t, 2.0, decoded["duration_hours"])
	assert.Equal(t, true, decoded["is_resolved"])
}

func TestStatusAndImpactVocabulary(t *testing.T) {
	assert.True(t, IncidentStatusScheduled.IsValid())
	assert.False(t, IncidentStatus("degraded").IsValid())
	assert.True(t, ImpactMaintenance.IsValid())
	assert.False(t, Impact("severe").IsValid())
}

func TestComparison_Holds(t *testing.T) {
	assert.True(t, ComparisonGT.Holds(3, 2))
	assert.False(t, ComparisonGT.Holds(2, 2))
	assert.True(t, ComparisonGTE.Holds(2, 2))
	assert.True(t, ComparisonLT.Holds(1, 2))
	assert.True(t, ComparisonLTE.Holds(2, 2))
	assert.True(t, ComparisonEQ.Holds(2, 2))
	assert.False(t, Comparison("ne").Holds(1, 2))
}
