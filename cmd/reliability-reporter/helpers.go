package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bissquit/reliability-reporter/internal/app"
	"github.com/bissquit/reliability-reporter/internal/config"
	"github.com/bissquit/reliability-reporter/internal/domain"
)

const dateLayout = "2006-01-02"

var errInvalidWindow = errors.New("end date is before start date")

// loadConfig loads configuration and installs the logger. --verbose wins
// over log.level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, err
	}
	if rootFlags.verbose {
		cfg.Log.Level = "debug"
	}
	app.InitLogger(cfg.Log)
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// resolveWindow turns date flags into a timeframe. An explicit start wins
// over days; the end date covers its whole day and defaults to now.
func resolveWindow(start, end string, days int, now time.Time) (domain.Timeframe, error) {
	tf := domain.Timeframe{End: now}

	if end != "" {
		t, err := time.Parse(dateLayout, end)
		if err != nil {
			return tf, fmt.Errorf("parse end date: %w", err)
		}
		tf.End = t.Add(24*time.Hour - time.Nanosecond)
	}

	switch {
	case start != "":
		t, err := time.Parse(dateLayout, start)
		if err != nil {
			return tf, fmt.Errorf("parse start date: %w", err)
		}
		tf.Start = t
	case days > 0:
		tf.Start = tf.End.AddDate(0, 0, -days)
	}

	if !tf.Start.IsZero() && tf.End.Before(tf.Start) {
		return tf, errInvalidWindow
	}
	return tf, nil
}

// loadPeers reads a JSON file of [{"name": ..., "url": ...}].
func loadPeers(path string) ([]domain.Company, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read peers file: %w", err)
	}

	var peers []domain.Company
	if err := json.Unmarshal(data, &peers); err != nil {
		return nil, fmt.Errorf("parse peers file %s: %w", path, err)
	}
	for i := range peers {
		if peers[i].Name == "" || peers[i].URL == "" {
			return nil, fmt.Errorf("parse peers file %s: entry %d needs name and url", path, i)
		}
		peers[i].IsTarget = false
	}
	return peers, nil
}
