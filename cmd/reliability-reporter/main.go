// reliability-reporter acquires incident history from public status pages
// and turns it into reliability reports.
//
// Usage:
//
//	reliability-reporter report -c <company> -u <url> -s <YYYY-MM-DD> [--peers peers.json]
//	reliability-reporter fetch -u <url> [--days 30] [--json] [--save]
//	reliability-reporter info -u <url>
//	reliability-reporter serve
//	reliability-reporter schedule
//	reliability-reporter migrate up|down
package main

import (
	"fmt"
	"os"

	"github.com/bissquit/reliability-reporter/internal/version"
	"github.com/spf13/cobra"
)

var rootFlags struct {
	configPath string
	verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "reliability-reporter",
	Short: "Reliability reports from public status pages",
	Long: "reliability-reporter collects incident history from status pages\n" +
		"(Statuspage API, history pages, generic scraping, RSS) and renders\n" +
		"reliability reports with peer comparison.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", os.Getenv("RR_CONFIG"), "Path to YAML config file")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version.String()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
