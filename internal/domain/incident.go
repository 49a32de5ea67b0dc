package domain

import (
	"encoding/json"
	"time"
)

// IncidentStatus represents the lifecycle state reported for an incident.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusIdentified    IncidentStatus = "identified"
	IncidentStatusMonitoring    IncidentStatus = "monitoring"
	IncidentStatusResolved      IncidentStatus = "resolved"
	IncidentStatusPostmortem    IncidentStatus = "postmortem"
	IncidentStatusScheduled     IncidentStatus = "scheduled"
	IncidentStatusUnknown       IncidentStatus = "unknown"
)

// IsValid checks if the status belongs to the closed vocabulary.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusInvestigating, IncidentStatusIdentified,
		IncidentStatusMonitoring, IncidentStatusResolved,
		IncidentStatusPostmortem, IncidentStatusScheduled,
		IncidentStatusUnknown:
		return true
	}
	return false
}

// IsTerminal reports whether the status means the incident concluded.
func (s IncidentStatus) IsTerminal() bool {
	return s == IncidentStatusResolved || s == IncidentStatusPostmortem
}

// Impact represents the severity classification of an incident.
type Impact string

// Impact levels.
const (
	ImpactNone        Impact = "none"
	ImpactMinor       Impact = "minor"
	ImpactMajor       Impact = "major"
	ImpactCritical    Impact = "critical"
	ImpactMaintenance Impact = "maintenance"
)

// IsValid checks if the impact belongs to the closed vocabulary.
func (i Impact) IsValid() bool {
	switch i {
	case ImpactNone, ImpactMinor, ImpactMajor, ImpactCritical, ImpactMaintenance:
		return true
	}
	return false
}

// IncidentUpdate is a single timeline entry of an incident.
type IncidentUpdate struct {
	ID        string         `json:"id"`
	Status    IncidentStatus `json:"status"`
	Body      string         `json:"body"`
	CreatedAt time.Time      `json:"created_at"`
}

// AffectedComponent is a status page component touched by an incident.
type AffectedComponent struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Status *string `json:"status,omitempty"`
}

// Incident is one reliability event reported by a company.
// Incidents are built by source parsers and treated as values afterwards.
type Incident struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Status     IncidentStatus `json:"status"`
	Impact     Impact         `json:"impact"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`

	Updates    []IncidentUpdate    `json:"incident_updates"`
	Components []AffectedComponent `json:"affected_components"`

	SourceURL   string  `json:"source_url"`
	CompanyName string  `json:"company_name"`
	Shortlink   *string `json:"shortlink,omitempty"`

	// Populated by the classification step, never by acquisition.
	Category           *string  `json:"category,omitempty"`
	CategoryConfidence *float64 `json:"category_confidence,omitempty"`
	Summary            *string  `json:"summary,omitempty"`
	RootCause          *string  `json:"root_cause,omitempty"`
}

// EffectiveStart returns started_at, falling back to created_at.
func (i *Incident) EffectiveStart() time.Time {
	if i.StartedAt != nil {
		return *i.StartedAt
	}
	return i.CreatedAt
}

// Duration returns resolved_at minus the effective start.
// The value is not clamped and can be negative for inconsistent source data.
func (i *Incident) Duration() (time.Duration, bool) {
	if i.ResolvedAt == nil {
		return 0, false
	}
	return i.ResolvedAt.Sub(i.EffectiveStart()), true
}

// DurationMinutes returns the duration in minutes, or nil if unresolved.
func (i *Incident) DurationMinutes() *float64 {
	d, ok := i.Duration()
	if !ok {
		return nil
	}
	m := d.Minutes()
	return &m
}

// DurationHours returns the duration in hours, or nil if unresolved.
func (i *Incident) DurationHours() *float64 {
	d, ok := i.Duration()
	if !ok {
		return nil
	}
	h := d.Hours()
	return &h
}

// IsResolved returns true if the incident has a resolution time or a terminal status.
func (i *Incident) IsResolved() bool {
	return i.ResolvedAt != nil || i.Status.IsTerminal()
}

// MarshalJSON adds the derived fields to the encoded incident.
func (i Incident) MarshalJSON() ([]byte, error) {
	type plain Incident
	return json.Marshal(struct {
		plain
		DurationMinutes *float64 `json:"duration_minutes"`
		DurationHours   *float64 `json:"duration_hours"`
		IsResolved      bool     `json:"is_resolved"`
	}{
		plain:           plain(i),
		DurationMinutes: i.DurationMinutes(),
		DurationHours:   i.DurationHours(),
		IsResolved:      i.IsResolved(),
	})
}
