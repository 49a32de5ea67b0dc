// Package store defines persistence for companies, incidents and alerts.
package store

import (
	"context"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
)

// IncidentFilter selects stored incidents of one company.
type IncidentFilter struct {
	Company string
	// Start and End bound the effective start; zero values are unbounded.
	Start time.Time
	End   time.Time
	Limit int
}

// Repository defines the interface for stored data operations.
type Repository interface {
	UpsertCompany(ctx context.Context, company domain.Company) error
	GetCompany(ctx context.Context, name string) (*domain.Company, error)
	ListCompanies(ctx context.Context) ([]domain.Company, error)

	// SaveIncidents upserts the company and its incidents by (company, id).
	SaveIncidents(ctx context.Context, company domain.Company, incidents []domain.Incident) error
	ListIncidents(ctx context.Context, filter IncidentFilter) ([]domain.Incident, error)

	// ReplaceAlertRules swaps the stored rule set and returns it with ids.
	ReplaceAlertRules(ctx context.Context, rules []domain.AlertRule) ([]domain.AlertRule, error)
	RecordAlertTrigger(ctx context.Context, trigger *domain.AlertTrigger) error
	ListAlertTriggers(ctx context.Context, company string, since time.Time) ([]domain.AlertTrigger, error)

	Ping(ctx context.Context) error
}
