package report

import (
	"embed"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var markdownTmpl = template.Must(
	template.New("report.md.tmpl").Funcs(template.FuncMap{
		"date":        func(t time.Time) string { return t.Format("January 02, 2006") },
		"datetime":    func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
		"pct":         pct,
		"hours":       hours,
		"fixed":       fixed,
		"signed":      signed,
		"signedHours": signedHours,
		"title":       title,
		"join":        strings.Join,
		"shorten":     shorten,
	}).ParseFS(templateFS, "templates/report.md.tmpl"),
)

type categoryRow struct {
	Name  string
	Count int
}

type markdownView struct {
	*domain.Report
	Days              int
	Severity          string
	IncidentsPerMonth float64
	CategoryRows      []categoryRow
	Definitions       []domain.Category
}

// WriteMarkdown renders r as a markdown document.
func WriteMarkdown(w io.Writer, r *domain.Report) error {
	if err := markdownTmpl.Execute(w, newMarkdownView(r)); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	return nil
}

func newMarkdownView(r *domain.Report) markdownView {
	v := markdownView{Report: r, Days: r.Timeframe.Days()}

	switch {
	case r.Stats.CriticalCount > 0:
		v.Severity = "critical"
	case r.Stats.MajorCount > 3:
		v.Severity = "elevated"
	default:
		v.Severity = "normal"
	}

	if v.Days > 0 {
		v.IncidentsPerMonth = float64(r.Stats.TotalCount) / (float64(v.Days) / 30)
	}

	names := make(map[string]string, len(r.Categories))
	for _, c := range r.Categories {
		names[c.ID] = c.Name
		if c.IncidentCount > 0 {
			v.Definitions = append(v.Definitions, c)
		}
	}
	for id, count := range r.Stats.ByCategory {
		name, ok := names[id]
		if !ok {
			name = title(strings.ReplaceAll(id, "-", " "))
		}
		v.CategoryRows = append(v.CategoryRows, categoryRow{Name: name, Count: count})
	}
	slices.SortFunc(v.CategoryRows, func(a, b categoryRow) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Name, b.Name)
	})
	return v
}

var titleCaser = cases.Title(language.English)

func title(s string) string {
	return titleCaser.String(s)
}

func pct(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}

func hours(h *float64) string {
	if h == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1fh", *h)
}

func fixed(h *float64) string {
	if h == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f hours", *h)
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

func signedHours(h *float64) string {
	if h == nil {
		return ""
	}
	if *h > 0 {
		return fmt.Sprintf(" (+%.1fh)", *h)
	}
	return fmt.Sprintf(" (%.1fh)", *h)
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
