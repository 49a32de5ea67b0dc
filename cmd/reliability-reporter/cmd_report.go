package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bissquit/reliability-reporter/internal/acquisition"
	"github.com/bissquit/reliability-reporter/internal/analysis"
	"github.com/bissquit/reliability-reporter/internal/app"
	"github.com/bissquit/reliability-reporter/internal/config"
	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/report"
	storepostgres "github.com/bissquit/reliability-reporter/internal/store/postgres"
	"github.com/spf13/cobra"
)

var reportFlags struct {
	company   string
	url       string
	peersFile string
	startDate string
	endDate   string
	outputDir string
	formats   []string
	period    string
	mode      string
	save      bool
}

var reportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"generate"},
	Short:   "Acquire incidents for a company and its peers and write a report",
	RunE:    runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVarP(&reportFlags.company, "company", "c", "", "Target company name (required)")
	f.StringVarP(&reportFlags.url, "url", "u", "", "Target company status page URL (required)")
	f.StringVarP(&reportFlags.peersFile, "peers", "p", "", "JSON file with peer companies [{name, url}, ...]")
	f.StringVarP(&reportFlags.startDate, "start-date", "s", "", "Start date (YYYY-MM-DD, required)")
	f.StringVarP(&reportFlags.endDate, "end-date", "e", "", "End date (YYYY-MM-DD), defaults to today")
	f.StringVarP(&reportFlags.outputDir, "output-dir", "o", "", "Output directory (default report.output_dir)")
	f.StringSliceVar(&reportFlags.formats, "format", nil, "Report formats: markdown, csv (default report.format)")
	f.StringVar(&reportFlags.period, "period", string(analysis.PeriodMonth), "Trend period: month or quarter")
	f.StringVar(&reportFlags.mode, "mode", "", "Acquisition mode: report, scheduler, adhoc (default acquisition.mode)")
	f.BoolVar(&reportFlags.save, "save", false, "Persist acquired incidents to the database")

	_ = reportCmd.MarkFlagRequired("company")
	_ = reportCmd.MarkFlagRequired("url")
	_ = reportCmd.MarkFlagRequired("start-date")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tf, err := resolveWindow(reportFlags.startDate, reportFlags.endDate, 0, time.Now().UTC())
	if err != nil {
		return err
	}

	formats, err := reportFormats(reportFlags.formats, cfg.Report.Format)
	if err != nil {
		return err
	}

	period := analysis.Period(reportFlags.period)
	if period != analysis.PeriodMonth && period != analysis.PeriodQuarter {
		return fmt.Errorf("unknown trend period %q", reportFlags.period)
	}

	mode, err := acquisition.ParseMode(firstNonEmpty(reportFlags.mode, cfg.Acquisition.Mode))
	if err != nil {
		return err
	}

	peers, err := loadPeers(reportFlags.peersFile)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	target := domain.Company{Name: reportFlags.company, URL: reportFlags.url, IsTarget: true}
	companies := append([]domain.Company{target}, peers...)

	orchestrator := app.NewOrchestrator(cfg, mode)
	defer func() { _ = orchestrator.Close() }()

	slog.Info("acquiring incidents",
		"company", target.Name,
		"peers", len(peers),
		"start", tf.Start.Format(dateLayout),
		"end", tf.End.Format(dateLayout),
		"mode", mode,
	)
	outcomes := orchestrator.FetchCompanies(ctx, companies, tf)

	if outcomes[0].Err != nil {
		return fmt.Errorf("acquire %s: %w", target.Name, outcomes[0].Err)
	}

	in := report.Input{
		Company:   target.Name,
		Incidents: outcomes[0].Incidents,
		Peers:     make(map[string][]domain.Incident, len(peers)),
		Timeframe: tf,
	}
	for _, out := range outcomes[1:] {
		if out.Err != nil {
			slog.Warn("skipping peer", "company", out.Company.Name, "error", out.Err)
			continue
		}
		in.Peers[out.Company.Name] = out.Incidents
	}

	if reportFlags.save {
		if err := saveOutcomes(ctx, cfg, outcomes); err != nil {
			return err
		}
	}

	rep, err := report.NewBuilder(nil, period).Build(ctx, in)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	dir := firstNonEmpty(reportFlags.outputDir, cfg.Report.OutputDir)
	out := cmd.OutOrStdout()
	for _, format := range formats {
		path, err := report.Save(dir, &rep, format)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, path)
	}

	fmt.Fprintf(out, "%s: %d incidents, %d peers compared\n", rep.CompanyName, len(rep.Incidents), len(rep.PeerComparisons))
	return nil
}

// saveOutcomes persists every successful outcome.
func saveOutcomes(ctx context.Context, cfg *config.Config, outcomes []acquisition.Outcome) error {
	db, err := app.ConnectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := storepostgres.NewRepository(db)
	for _, out := range outcomes {
		if out.Err != nil {
			continue
		}
		if err := repo.SaveIncidents(ctx, out.Company, out.Incidents); err != nil {
			return fmt.Errorf("save incidents for %s: %w", out.Company.Name, err)
		}
	}
	return nil
}

func reportFormats(raw []string, fallback string) ([]report.Format, error) {
	if len(raw) == 0 {
		raw = []string{fallback}
	}

	formats := make([]report.Format, 0, len(raw))
	for _, s := range raw {
		f, err := report.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
