// Package postgres provides PostgreSQL implementation of the store repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	"github.com/bissquit/reliability-reporter/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the store.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

var _ store.Repository = (*Repository)(nil)

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

const upsertCompanyQuery = `
	INSERT INTO companies (name, url, is_target)
	VALUES ($1, $2, $3)
	ON CONFLICT (name) DO UPDATE
	SET url = EXCLUDED.url, is_target = EXCLUDED.is_target, updated_at = NOW()
`

// UpsertCompany inserts or updates a company by name.
func (r *Repository) UpsertCompany(ctx context.Context, company domain.Company) error {
	if _, err := r.db.Exec(ctx, upsertCompanyQuery, company.Name, company.URL, company.IsTarget); err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}
	return nil
}

// GetCompany retrieves a company by name.
func (r *Repository) GetCompany(ctx context.Context, name string) (*domain.Company, error) {
	query := `SELECT name, url, is_target FROM companies WHERE name = $1`

	var c domain.Company
	err := r.db.QueryRow(ctx, query, name).Scan(&c.Name, &c.URL, &c.IsTarget)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return &c, nil
}

// ListCompanies retrieves all companies ordered by name.
func (r *Repository) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.db.Query(ctx, `SELECT name, url, is_target FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	companies := make([]domain.Company, 0)
	for rows.Next() {
		var c domain.Company
		if err := rows.Scan(&c.Name, &c.URL, &c.IsTarget); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

// SaveIncidents upserts the company and its incidents in one transaction.
// Classification fields already stored are kept when the new value is null.
func (r *Repository) SaveIncidents(ctx context.Context, company domain.Company, incidents []domain.Incident) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, upsertCompanyQuery, company.Name, company.URL, company.IsTarget); err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}

	query := `
		INSERT INTO incidents (
			company_name, id, name, status, impact, created_at, updated_at, started_at, resolved_at,
			source_url, shortlink, category, category_confidence, summary, root_cause, updates, components
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (company_name, id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			impact = EXCLUDED.impact,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			started_at = EXCLUDED.started_at,
			resolved_at = EXCLUDED.resolved_at,
			source_url = EXCLUDED.source_url,
			shortlink = EXCLUDED.shortlink,
			category = COALESCE(EXCLUDED.category, incidents.category),
			category_confidence = COALESCE(EXCLUDED.category_confidence, incidents.category_confidence),
			summary = COALESCE(EXCLUDED.summary, incidents.summary),
			root_cause = COALESCE(EXCLUDED.root_cause, incidents.root_cause),
			updates = EXCLUDED.updates,
			components = EXCLUDED.components,
			fetched_at = NOW()
	`

	batch := &pgx.Batch{}
	for i := range incidents {
		inc := &incidents[i]
		updates := inc.Updates
		if updates == nil {
			updates = []domain.IncidentUpdate{}
		}
		components := inc.Components
		if components == nil {
			components = []domain.AffectedComponent{}
		}
		batch.Queue(query,
			company.Name, inc.ID, inc.Name, string(inc.Status), string(inc.Impact),
			inc.CreatedAt, inc.UpdatedAt, inc.StartedAt, inc.ResolvedAt,
			inc.SourceURL, inc.Shortlink, inc.Category, inc.CategoryConfidence, inc.Summary, inc.RootCause,
			updates, components,
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert incidents: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.Debug("incidents saved", "company", company.Name, "count", len(incidents))
	return nil
}

// ListIncidents retrieves incidents of a company, newest first.
func (r *Repository) ListIncidents(ctx context.Context, filter store.IncidentFilter) ([]domain.Incident, error) {
	if _, err := r.GetCompany(ctx, filter.Company); err != nil {
		return nil, err
	}

	var (
		conditions = []string{"company_name = $1"}
		args       = []any{filter.Company}
	)
	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		conditions = append(conditions, fmt.Sprintf("COALESCE(started_at, created_at) >= $%d", len(args)))
	}
	if !filter.End.IsZero() {
		args = append(args, filter.End)
		conditions = append(conditions, fmt.Sprintf("COALESCE(started_at, created_at) <= $%d", len(args)))
	}

	query := `
		SELECT company_name, id, name, status, impact, created_at, updated_at, started_at, resolved_at,
			source_url, shortlink, category, category_confidence, summary, root_cause, updates, components
		FROM incidents
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY COALESCE(started_at, created_at) DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]domain.Incident, 0)
	for rows.Next() {
		var (
			inc            domain.Incident
			status, impact string
		)
		err := rows.Scan(
			&inc.CompanyName, &inc.ID, &inc.Name, &status, &impact,
			&inc.CreatedAt, &inc.UpdatedAt, &inc.StartedAt, &inc.ResolvedAt,
			&inc.SourceURL, &inc.Shortlink, &inc.Category, &inc.CategoryConfidence, &inc.Summary, &inc.RootCause,
			&inc.Updates, &inc.Components,
		)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		inc.Status = domain.IncidentStatus(status)
		inc.Impact = domain.Impact(impact)
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return incidents, nil
}

// ReplaceAlertRules deletes stored rules and inserts the given set. Past
// triggers keep their rows with a null rule reference.
func (r *Repository) ReplaceAlertRules(ctx context.Context, rules []domain.AlertRule) ([]domain.AlertRule, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM alerts`); err != nil {
		return nil, fmt.Errorf("delete alert rules: %w", err)
	}

	query := `
		INSERT INTO alerts (id, company_name, alert_type, threshold_value, comparison, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	stored := make([]domain.AlertRule, len(rules))
	for i, rule := range rules {
		rule.ID = uuid.NewString()
		if _, err := tx.Exec(ctx, query,
			rule.ID, rule.CompanyName, string(rule.Type), rule.Threshold, string(rule.Comparison), rule.Enabled,
		); err != nil {
			return nil, fmt.Errorf("insert alert rule: %w", err)
		}
		stored[i] = rule
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return stored, nil
}

// RecordAlertTrigger stores a fired alert, assigning its id.
func (r *Repository) RecordAlertTrigger(ctx context.Context, trigger *domain.AlertTrigger) error {
	if trigger.ID == "" {
		trigger.ID = uuid.NewString()
	}

	var ruleID *string
	if trigger.RuleID != "" {
		ruleID = &trigger.RuleID
	}

	query := `
		INSERT INTO alert_history (id, alert_id, company_name, alert_type, value, threshold, message, triggered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		trigger.ID, ruleID, trigger.CompanyName, string(trigger.Type),
		trigger.Value, trigger.Threshold, trigger.Message, trigger.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("record alert trigger: %w", err)
	}
	return nil
}

// ListAlertTriggers retrieves alerts fired for a company since the given
// time, newest first. An empty company lists all companies.
func (r *Repository) ListAlertTriggers(ctx context.Context, company string, since time.Time) ([]domain.AlertTrigger, error) {
	query := `
		SELECT id, COALESCE(alert_id::text, ''), company_name, alert_type, value, threshold, message, triggered_at
		FROM alert_history
		WHERE ($1 = '' OR company_name = $1) AND triggered_at >= $2
		ORDER BY triggered_at DESC
	`
	rows, err := r.db.Query(ctx, query, company, since)
	if err != nil {
		return nil, fmt.Errorf("list alert triggers: %w", err)
	}
	defer rows.Close()

	triggers := make([]domain.AlertTrigger, 0)
	for rows.Next() {
		var (
			tr        domain.AlertTrigger
			alertType string
		)
		if err := rows.Scan(&tr.ID, &tr.RuleID, &tr.CompanyName, &alertType,
			&tr.Value, &tr.Threshold, &tr.Message, &tr.TriggeredAt); err != nil {
			return nil, fmt.Errorf("scan alert trigger: %w", err)
		}
		tr.Type = domain.AlertType(alertType)
		triggers = append(triggers, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert triggers: %w", err)
	}
	return triggers, nil
}
