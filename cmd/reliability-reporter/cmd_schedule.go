package main

import (
	"context"
	"fmt"

	"github.com/bissquit/reliability-reporter/internal/app"
	"github.com/spf13/cobra"
)

var scheduleFlags struct {
	runOnStart bool
}

var scheduleCmd = &cobra.Command{
	Use:     "schedule",
	Aliases: []string{"scheduler"},
	Short:   "Re-acquire configured companies on an interval and evaluate alert rules",
	RunE:    runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleFlags.runOnStart, "run-on-start", false, "Run once immediately (overrides scheduler.run_on_start)")
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("run-on-start") {
		cfg.Scheduler.RunOnStart = scheduleFlags.runOnStart
	}

	ctx, cancel := signalContext()
	defer cancel()

	d, err := app.NewDaemon(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	runErr := d.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := d.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown scheduler: %w", err)
	}
	return runErr
}
