package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bissquit/reliability-reporter/internal/acquisition"
	"github.com/bissquit/reliability-reporter/internal/app"
	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/normalize"
	"github.com/bissquit/reliability-reporter/internal/sources"
	"github.com/spf13/cobra"
)

const previewCount = 5

var fetchFlags struct {
	company   string
	url       string
	days      int
	startDate string
	endDate   string
	mode      string
	json      bool
	save      bool
}

var fetchCmd = &cobra.Command{
	Use:     "fetch",
	Aliases: []string{"test-fetch"},
	Short:   "Acquire incidents from one status page",
	RunE:    runFetch,
}

func init() {
	f := fetchCmd.Flags()
	f.StringVarP(&fetchFlags.url, "url", "u", "", "Status page URL (required)")
	f.StringVarP(&fetchFlags.company, "company", "c", "", "Company name (default: status page host)")
	f.IntVar(&fetchFlags.days, "days", 30, "Days back from the end date; 0 means no lower bound")
	f.StringVarP(&fetchFlags.startDate, "start-date", "s", "", "Start date (YYYY-MM-DD), overrides --days")
	f.StringVarP(&fetchFlags.endDate, "end-date", "e", "", "End date (YYYY-MM-DD), defaults to today")
	f.StringVar(&fetchFlags.mode, "mode", "adhoc", "Acquisition mode: report, scheduler, adhoc")
	f.BoolVar(&fetchFlags.json, "json", false, "Print incidents as JSON")
	f.BoolVar(&fetchFlags.save, "save", false, "Persist acquired incidents to the database")

	_ = fetchCmd.MarkFlagRequired("url")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tf, err := resolveWindow(fetchFlags.startDate, fetchFlags.endDate, fetchFlags.days, time.Now().UTC())
	if err != nil {
		return err
	}

	mode, err := acquisition.ParseMode(fetchFlags.mode)
	if err != nil {
		return err
	}

	name := fetchFlags.company
	if name == "" {
		name = sources.Host(fetchFlags.url)
	}
	company := domain.Company{Name: name, URL: fetchFlags.url, IsTarget: true}

	ctx, cancel := signalContext()
	defer cancel()

	orchestrator := app.NewOrchestrator(cfg, mode)
	defer func() { _ = orchestrator.Close() }()

	outcome := orchestrator.FetchCompany(ctx, company, tf)
	if outcome.Err != nil {
		return fmt.Errorf("acquire %s: %w", company.Name, outcome.Err)
	}

	if fetchFlags.save {
		if err := saveOutcomes(ctx, cfg, []acquisition.Outcome{outcome}); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if fetchFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome.Incidents)
	}

	fmt.Fprintf(out, "Company:   %s\n", company.Name)
	for _, a := range outcome.Attempts {
		status := "ok"
		if a.Err != nil {
			status = a.Err.Error()
		}
		fmt.Fprintf(out, "Source:    %-8s %4d incidents in %s (%s)\n", a.Source, a.Count, a.Duration.Round(time.Millisecond), status)
	}
	fmt.Fprintf(out, "Incidents: %d\n", len(outcome.Incidents))
	for _, inc := range outcome.Incidents[:min(previewCount, len(outcome.Incidents))] {
		fmt.Fprintf(out, "  - [%s] %s %s\n", inc.Impact, inc.EffectiveStart().Format(dateLayout), normalize.Truncate(inc.Name, 60))
	}
	return nil
}
