// Package report assembles reliability reports and renders them as
// markdown documents or CSV incident exports.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bissquit/reliability-reporter/internal/analysis"
	"github.com/bissquit/reliability-reporter/internal/classify"
	"github.com/bissquit/reliability-reporter/internal/domain"
)

// Format is an output format.
type Format string

// Formats.
const (
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
)

// ErrUnknownFormat is returned for formats other than markdown and csv.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMarkdown, FormatCSV:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	if f == FormatCSV {
		return ".csv"
	}
	return ".md"
}

// Input is everything a report is built from.
type Input struct {
	Company   string
	Incidents []domain.Incident
	// Peers maps peer company names to their incidents.
	Peers     map[string][]domain.Incident
	Timeframe domain.Timeframe
	Taxonomy  []domain.Category
}

// Builder classifies incidents and computes the analysis sections.
type Builder struct {
	classifier classify.Classifier
	period     analysis.Period
	now        func() time.Time
}

// NewBuilder creates a Builder. A nil classifier uses the keyword classifier.
func NewBuilder(classifier classify.Classifier, period analysis.Period) *Builder {
	if classifier == nil {
		classifier = classify.NewKeywordClassifier()
	}
	if period == "" {
		period = analysis.PeriodMonth
	}
	return &Builder{
		classifier: classifier,
		period:     period,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Build produces a report for in.Company.
func (b *Builder) Build(ctx context.Context, in Input) (domain.Report, error) {
	taxonomy := in.Taxonomy
	if len(taxonomy) == 0 {
		taxonomy = classify.DefaultTaxonomy()
	}

	incidents, err := b.classifier.Classify(ctx, in.Incidents, taxonomy)
	if err != nil {
		return domain.Report{}, fmt.Errorf("classify %s: %w", in.Company, err)
	}
	analysis.SortByStart(incidents)

	comparisons := analysis.ComparePeers(incidents, in.Peers)
	peers := make([]string, len(comparisons))
	for i := range comparisons {
		peers[i] = comparisons[i].PeerName
	}

	return domain.Report{
		CompanyName:     in.Company,
		PeerCompanies:   peers,
		Timeframe:       in.Timeframe,
		GeneratedAt:     b.now(),
		Incidents:       incidents,
		Categories:      classify.Tally(incidents, taxonomy),
		Stats:           analysis.Stats(incidents),
		Trends:          analysis.Trends(incidents, b.period),
		PeerComparisons: comparisons,
	}, nil
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *domain.Report, format Format) error {
	switch format {
	case FormatMarkdown:
		return WriteMarkdown(w, r)
	case FormatCSV:
		return WriteCSV(w, r)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Save renders r into dir and returns the written path. The file name is
// derived from the company name and the generation date.
func Save(dir string, r *domain.Report, format Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", slug(r.CompanyName), r.GeneratedAt.Format("2006-01-02"), format.Ext())
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}

	if err := Render(f, r, format); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}

	slog.Info("report saved", "company", r.CompanyName, "format", format, "path", path)
	return path, nil
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
