package domain

import "time"

// Category is a root-cause class in the classification taxonomy.
type Category struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`

	IncidentCount    int      `json:"incident_count"`
	ExampleIncidents []string `json:"example_incidents"`
}

// IncidentStats is a statistical summary of an incident collection.
type IncidentStats struct {
	TotalCount      int `json:"total_count"`
	ResolvedCount   int `json:"resolved_count"`
	UnresolvedCount int `json:"unresolved_count"`

	CriticalCount int `json:"critical_count"`
	MajorCount    int `json:"major_count"`
	MinorCount    int `json:"minor_count"`
	NoneCount     int `json:"none_count"`

	ByCategory map[string]int `json:"by_category"`

	AvgDurationHours    *float64 `json:"avg_duration_hours,omitempty"`
	MedianDurationHours *float64 `json:"median_duration_hours,omitempty"`
	MinDurationHours    *float64 `json:"min_duration_hours,omitempty"`
	MaxDurationHours    *float64 `json:"max_duration_hours,omitempty"`
	MTTRHours           *float64 `json:"mttr_hours,omitempty"`
}

// TrendPoint aggregates incidents for a single period (month or quarter).
type TrendPoint struct {
	Period      string    `json:"period"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	IncidentCount int `json:"incident_count"`
	CriticalCount int `json:"critical_count"`
	MajorCount    int `json:"major_count"`

	AvgDurationHours   *float64 `json:"avg_duration_hours,omitempty"`
	TotalDowntimeHours float64  `json:"total_downtime_hours"`
}

// PeerComparison compares the target company against one peer.
type PeerComparison struct {
	PeerName          string   `json:"peer_name"`
	PeerIncidentCount int      `json:"peer_incident_count"`
	PeerMTTRHours     *float64 `json:"peer_mttr_hours,omitempty"`
	PeerCriticalCount int      `json:"peer_critical_count"`

	// Positive values mean the target has more incidents / is slower.
	IncidentCountDiff int      `json:"incident_count_diff"`
	MTTRDiffHours     *float64 `json:"mttr_diff_hours,omitempty"`
}

// Report is the full reliability report for one company.
type Report struct {
	CompanyName     string           `json:"company_name"`
	PeerCompanies   []string         `json:"peer_companies"`
	Timeframe       Timeframe        `json:"-"`
	GeneratedAt     time.Time        `json:"generated_at"`
	Incidents       []Incident       `json:"incidents"`
	Categories      []Category       `json:"categories"`
	Stats           IncidentStats    `json:"stats"`
	Trends          []TrendPoint     `json:"trends"`
	PeerComparisons []PeerComparison `json:"peer_comparisons"`
}
