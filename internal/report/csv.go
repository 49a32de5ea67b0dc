package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/bissquit/reliability-reporter/internal/domain"
)

var csvHeader = []string{
	"Date",
	"Time",
	"Company",
	"Title",
	"Impact",
	"Status",
	"Category",
	"Duration (hours)",
	"Summary",
	"Root Cause",
	"Affected Components",
	"Incident URL",
}

// WriteCSV writes one row per incident, newest first.
func WriteCSV(w io.Writer, r *domain.Report) error {
	names := make(map[string]string, len(r.Categories))
	for _, c := range r.Categories {
		names[c.ID] = c.Name
	}

	incidents := slices.Clone(r.Incidents)
	slices.SortStableFunc(incidents, func(a, b domain.Incident) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i := range incidents {
		if err := cw.Write(csvRow(&incidents[i], names)); err != nil {
			return fmt.Errorf("write csv row %s: %w", incidents[i].ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvRow(inc *domain.Incident, categoryNames map[string]string) []string {
	category := "Uncategorized"
	if inc.Category != nil {
		category = *inc.Category
		if name, ok := categoryNames[category]; ok {
			category = name
		}
	}

	duration := ""
	if h := inc.DurationHours(); h != nil {
		duration = fmt.Sprintf("%.2f", *h)
	}

	components := make([]string, 0, len(inc.Components))
	for _, c := range inc.Components {
		components = append(components, c.Name)
	}

	return []string{
		inc.CreatedAt.Format("2006-01-02"),
		inc.CreatedAt.Format("15:04:05"),
		inc.CompanyName,
		inc.Name,
		string(inc.Impact),
		string(inc.Status),
		category,
		duration,
		deref(inc.Summary),
		deref(inc.RootCause),
		strings.Join(components, ", "),
		deref(inc.Shortlink),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
