// Package classify assigns taxonomy categories to acquired incidents.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/normalize"
)

const (
	summaryMaxLen  = 300
	maxExamples    = 3
	fullConfidence = 3
)

// Classifier labels incidents with a category from the taxonomy. It
// returns copies; acquisition fields are never modified.
type Classifier interface {
	Classify(ctx context.Context, incidents []domain.Incident, taxonomy []domain.Category) ([]domain.Incident, error)
}

// KeywordClassifier scores each category by the number of its keywords
// found in the incident name and update bodies.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a KeywordClassifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify sets category, category_confidence and summary on every incident.
// Incidents without any keyword hit fall into "other" with zero confidence.
func (c *KeywordClassifier) Classify(ctx context.Context, incidents []domain.Incident, taxonomy []domain.Category) ([]domain.Incident, error) {
	if len(taxonomy) == 0 {
		taxonomy = DefaultTaxonomy()
	}

	out := make([]domain.Incident, len(incidents))
	for i := range incidents {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("classify incidents: %w", err)
		}

		inc := incidents[i]
		id, score := bestCategory(FullText(&inc), taxonomy)
		confidence := min(float64(score)/fullConfidence, 1)

		inc.Category = &id
		inc.CategoryConfidence = &confidence
		if summary := summarize(&inc); summary != "" {
			inc.Summary = &summary
		}
		out[i] = inc
	}

	slog.Debug("classified incidents", "count", len(out), "categories", len(taxonomy))
	return out, nil
}

func bestCategory(text string, taxonomy []domain.Category) (string, int) {
	text = strings.ToLower(text)
	best, bestScore := OtherID, 0
	for _, category := range taxonomy {
		if category.ID == OtherID {
			continue
		}
		score := 0
		for _, kw := range category.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = category.ID, score
		}
	}
	return best, bestScore
}

// FullText joins the incident name with its update bodies in timeline order.
func FullText(inc *domain.Incident) string {
	updates := slices.Clone(inc.Updates)
	slices.SortStableFunc(updates, func(a, b domain.IncidentUpdate) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	parts := []string{inc.Name}
	for _, u := range updates {
		if u.Body != "" {
			parts = append(parts, fmt.Sprintf("[%s] %s", u.Status, u.Body))
		}
	}
	return strings.Join(parts, "\n")
}

// summarize uses the earliest update body.
func summarize(inc *domain.Incident) string {
	var first *domain.IncidentUpdate
	for i := range inc.Updates {
		u := &inc.Updates[i]
		if u.Body == "" {
			continue
		}
		if first == nil || u.CreatedAt.Before(first.CreatedAt) {
			first = u
		}
	}
	if first == nil {
		return ""
	}
	return normalize.Truncate(normalize.CleanText(first.Body), summaryMaxLen)
}

// Tally returns a copy of taxonomy with incident counts and up to three
// example incident names per category. Categories unknown to the taxonomy
// are counted under "other".
func Tally(incidents []domain.Incident, taxonomy []domain.Category) []domain.Category {
	out := make([]domain.Category, len(taxonomy))
	index := make(map[string]int, len(taxonomy))
	for i, category := range taxonomy {
		category.IncidentCount = 0
		category.ExampleIncidents = nil
		out[i] = category
		index[category.ID] = i
	}

	for i := range incidents {
		id := OtherID
		if incidents[i].Category != nil {
			id = *incidents[i].Category
		}
		pos, ok := index[id]
		if !ok {
			if pos, ok = index[OtherID]; !ok {
				continue
			}
		}
		out[pos].IncidentCount++
		if len(out[pos].ExampleIncidents) < maxExamples {
			out[pos].ExampleIncidents = append(out[pos].ExampleIncidents, incidents[i].Name)
		}
	}
	return out
}
