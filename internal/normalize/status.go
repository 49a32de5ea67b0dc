package normalize

import (
	"strings"

	"github.com/bissquit/reliability-reporter/internal/domain"
)

var statusKeywords = []keywordRule[domain.IncidentStatus]{
	{domain.IncidentStatusInvestigating, []string{"investigating"}},
	{domain.IncidentStatusIdentified, []string{"identified"}},
	{domain.IncidentStatusMonitoring, []string{"monitoring"}},
	{domain.IncidentStatusResolved, []string{"resolved", "completed"}},
	{domain.IncidentStatusPostmortem, []string{"postmortem"}},
	{domain.IncidentStatusScheduled, []string{"scheduled", "planned"}},
}

// ParseStatus constrains an explicit status field to the closed vocabulary.
// Empty or unrecognized values become unknown.
func ParseStatus(s string) domain.IncidentStatus {
	status := domain.IncidentStatus(strings.ToLower(strings.TrimSpace(s)))
	if status.IsValid() {
		return status
	}
	return domain.IncidentStatusUnknown
}

// InferStatus guesses a status from free text, returning fallback when no
// keyword matches. Historical scrapers pass resolved as the fallback: a
// past record without an explicit status is assumed to have concluded.
func InferStatus(text string, fallback domain.IncidentStatus) domain.IncidentStatus {
	text = strings.ToLower(text)
	for _, rule := range statusKeywords {
		if containsAny(text, rule.keywords) {
			return rule.value
		}
	}
	return fallback
}
