package normalize

import (
	"strings"

	"github.com/bissquit/reliability-reporter/internal/domain"
)

type keywordRule[T any] struct {
	value    T
	keywords []string
}

// impactKeywords are checked in severity order; the first hit wins.
var impactKeywords = []keywordRule[domain.Impact]{
	{domain.ImpactCritical, []string{"critical", "outage", "down", "severe"}},
	{domain.ImpactMajor, []string{"major", "significant", "degraded"}},
	{domain.ImpactMinor, []string{"minor", "partial", "intermittent"}},
	{domain.ImpactMaintenance, []string{"maintenance", "scheduled", "planned"}},
}

// classImpact maps status page CSS class fragments to impact levels.
var classImpact = []keywordRule[domain.Impact]{
	{domain.ImpactCritical, []string{"critical", "red"}},
	{domain.ImpactMajor, []string{"major", "orange"}},
	{domain.ImpactMinor, []string{"minor", "yellow"}},
	{domain.ImpactMaintenance, []string{"maintenance", "blue"}},
}

// ParseImpact constrains an explicit impact field to the closed vocabulary.
// Empty or unrecognized values become none.
func ParseImpact(s string) domain.Impact {
	impact := domain.Impact(strings.ToLower(strings.TrimSpace(s)))
	if impact.IsValid() {
		return impact
	}
	return domain.ImpactNone
}

// InferImpact guesses the impact from free text by keyword matching.
func InferImpact(text string) domain.Impact {
	text = strings.ToLower(text)
	for _, rule := range impactKeywords {
		if containsAny(text, rule.keywords) {
			return rule.value
		}
	}
	return domain.ImpactNone
}

// ImpactFromClasses guesses the impact from an element's CSS classes.
// Classes are inspected in order and the first one carrying a hint decides.
func ImpactFromClasses(classes []string) domain.Impact {
	for _, class := range classes {
		class = strings.ToLower(class)
		for _, rule := range classImpact {
			if containsAny(class, rule.keywords) {
				return rule.value
			}
		}
	}
	return domain.ImpactNone
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
