package scheduler

import (
	"fmt"
	"time"

	"github.com/bissquit/reliability-reporter/internal/analysis"
	"github.com/bissquit/reliability-reporter/internal/domain"
)

// Evaluate measures rule against the company's incidents at now. It returns
// a trigger when the measured value satisfies the rule's comparison. Rules
// with nothing to measure, such as MTTR without resolved incidents, never fire.
func Evaluate(rule domain.AlertRule, incidents []domain.Incident, now time.Time) (*domain.AlertTrigger, bool) {
	if !rule.Enabled {
		return nil, false
	}

	value, message, ok := measure(rule.Type, incidents, domain.Naive(now))
	if !ok || !rule.Comparison.Holds(value, rule.Threshold) {
		return nil, false
	}

	return &domain.AlertTrigger{
		RuleID:      rule.ID,
		CompanyName: rule.CompanyName,
		Type:        rule.Type,
		Value:       value,
		Threshold:   rule.Threshold,
		Message:     message,
		TriggeredAt: now,
	}, true
}

func measure(alertType domain.AlertType, incidents []domain.Incident, now time.Time) (float64, string, bool) {
	switch alertType {
	case domain.AlertTypeIncidentCountDaily:
		var n int
		for i := range incidents {
			if sameDay(domain.Naive(incidents[i].CreatedAt), now) {
				n++
			}
		}
		return float64(n), fmt.Sprintf("Daily incident count: %d", n), true

	case domain.AlertTypeIncidentCountWeekly:
		weekAgo := now.AddDate(0, 0, -7)
		var n int
		for i := range incidents {
			if !domain.Naive(incidents[i].CreatedAt).Before(weekAgo) {
				n++
			}
		}
		return float64(n), fmt.Sprintf("Weekly incident count: %d", n), true

	case domain.AlertTypeCriticalIncident:
		var n int
		for i := range incidents {
			if incidents[i].Impact == domain.ImpactCritical && !incidents[i].IsResolved() {
				n++
			}
		}
		if n == 0 {
			return 0, "", false
		}
		return float64(n), fmt.Sprintf("Active critical incidents: %d", n), true

	case domain.AlertTypeMTTRThreshold:
		stats := analysis.Stats(incidents)
		if stats.MTTRHours == nil {
			return 0, "", false
		}
		return *stats.MTTRHours, fmt.Sprintf("Current MTTR: %.1f hours", *stats.MTTRHours), true

	case domain.AlertTypeDowntimeDaily:
		var total float64
		for i := range incidents {
			if !sameDay(domain.Naive(incidents[i].CreatedAt), now) {
				continue
			}
			if h := incidents[i].DurationHours(); h != nil {
				total += *h
			}
		}
		return total, fmt.Sprintf("Daily downtime: %.1f hours", total), true
	}
	return 0, "", false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
