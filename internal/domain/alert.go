package domain

import "time"

// AlertType identifies the metric an alert rule watches.
type AlertType string

// Alert types.
const (
	AlertTypeIncidentCountDaily  AlertType = "incident_count_daily"
	AlertTypeIncidentCountWeekly AlertType = "incident_count_weekly"
	AlertTypeCriticalIncident    AlertType = "critical_incident"
	AlertTypeMTTRThreshold       AlertType = "mttr_threshold"
	AlertTypeDowntimeDaily       AlertType = "downtime_daily"
)

// IsValid checks if the alert type is known.
func (t AlertType) IsValid() bool {
	switch t {
	case AlertTypeIncidentCountDaily, AlertTypeIncidentCountWeekly,
		AlertTypeCriticalIncident, AlertTypeMTTRThreshold, AlertTypeDowntimeDaily:
		return true
	}
	return false
}

// Comparison is the operator applied between a measured value and a threshold.
type Comparison string

// Comparisons.
const (
	ComparisonGT  Comparison = "gt"
	ComparisonLT  Comparison = "lt"
	ComparisonEQ  Comparison = "eq"
	ComparisonGTE Comparison = "gte"
	ComparisonLTE Comparison = "lte"
)

// Holds reports whether value compared against threshold satisfies c.
func (c Comparison) Holds(value, threshold float64) bool {
	switch c {
	case ComparisonGT:
		return value > threshold
	case ComparisonLT:
		return value < threshold
	case ComparisonEQ:
		return value == threshold
	case ComparisonGTE:
		return value >= threshold
	case ComparisonLTE:
		return value <= threshold
	}
	return false
}

// AlertRule is a threshold rule evaluated after each scheduled acquisition.
type AlertRule struct {
	ID          string     `json:"id"`
	CompanyName string     `json:"company_name" koanf:"company_name" validate:"required"`
	Type        AlertType  `json:"alert_type" koanf:"type" validate:"required,oneof=incident_count_daily incident_count_weekly critical_incident mttr_threshold downtime_daily"`
	Threshold   float64    `json:"threshold_value" koanf:"threshold"`
	Comparison  Comparison `json:"comparison" koanf:"comparison" validate:"required,oneof=gt lt eq gte lte"`
	Enabled     bool       `json:"enabled" koanf:"enabled"`
}

// AlertTrigger records a rule that fired.
type AlertTrigger struct {
	ID          string    `json:"id"`
	RuleID      string    `json:"alert_id"`
	CompanyName string    `json:"company_name"`
	Type        AlertType `json:"alert_type"`
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold"`
	Message     string    `json:"message"`
	TriggeredAt time.Time `json:"triggered_at"`
}
