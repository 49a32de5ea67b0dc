package main

import (
	"encoding/json"
	"fmt"

	"github.com/bissquit/reliability-reporter/internal/acquisition"
	"github.com/bissquit/reliability-reporter/internal/app"
	"github.com/bissquit/reliability-reporter/internal/sources"
	"github.com/spf13/cobra"
)

var infoFlags struct {
	url  string
	json bool
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show which sources a status page offers",
	RunE:  runInfo,
}

func init() {
	f := infoCmd.Flags()
	f.StringVarP(&infoFlags.url, "url", "u", "", "Status page URL (required)")
	f.BoolVar(&infoFlags.json, "json", false, "Print as JSON")

	_ = infoCmd.MarkFlagRequired("url")
}

func runInfo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	baseURL, err := sources.NormalizeBaseURL(infoFlags.url)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	orchestrator := app.NewOrchestrator(cfg, acquisition.ModeAdHoc)
	defer func() { _ = orchestrator.Close() }()

	page := orchestrator.DiscoverStatusPage(ctx, baseURL)

	out := cmd.OutOrStdout()
	if infoFlags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	fmt.Fprintf(out, "Company:       %s\n", page.CompanyName)
	fmt.Fprintf(out, "Base URL:      %s\n", page.BaseURL)
	fmt.Fprintf(out, "API available: %t\n", page.HasAPI)
	fmt.Fprintf(out, "History pages: %t\n", page.HasHistoryPages)
	fmt.Fprintf(out, "RSS feed:      %t\n", page.HasRSS)
	fmt.Fprintf(out, "Components:    %d\n", len(page.Components))
	return nil
}
