//go:build integration

package postgres

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/bissquit/reliability-reporter/internal/domain"
	pgpool "github.com/bissquit/reliability-reporter/internal/pkg/postgres"
	"github.com/bissquit/reliability-reporter/internal/store"
	"github.com/bissquit/reliability-reporter/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}

	if err := Migrate(pgContainer.ConnectionString); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	testDB, err = pgpool.Connect(ctx, pgpool.Config{
		URL:             pgContainer.ConnectionString,
		MaxOpenConns:    5,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnectAttempts: 3,
	})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}

	code := m.Run()

	testDB.Close()
	if err := pgContainer.Terminate(ctx); err != nil {
		log.Printf("terminate postgres: %v", err)
	}
	os.Exit(code)
}

func cleanup(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), `TRUNCATE alert_history, alerts, incidents, companies CASCADE`)
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }

func TestRepository_SaveAndListIncidents(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewRepository(testDB)
	acme := domain.Company{Name: "Acme", URL: "https://status.acme.com", IsTarget: true}

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	resolved := base.Add(2 * time.Hour)
	incidents := []domain.Incident{
		{
			ID: "a", Name: "API errors", Status: domain.IncidentStatusResolved, Impact: domain.ImpactMajor,
			CreatedAt: base, UpdatedAt: resolved, ResolvedAt: &resolved,
			Shortlink: ptr("https://stspg.io/a"),
			Updates:   []domain.IncidentUpdate{{ID: "u1", Status: domain.IncidentStatusResolved, Body: "fixed", CreatedAt: resolved}},
			Components: []domain.AffectedComponent{{ID: "c1", Name: "API"}},
		},
		{
			ID: "b", Name: "Older", Status: domain.IncidentStatusInvestigating, Impact: domain.ImpactMinor,
			CreatedAt: base.AddDate(0, 0, -10), UpdatedAt: base.AddDate(0, 0, -10),
		},
	}

	require.NoError(t, repo.SaveIncidents(ctx, acme, incidents))

	got, err := repo.ListIncidents(ctx, store.IncidentFilter{Company: "Acme"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID, "newest first")
	assert.Equal(t, "Acme", got[0].CompanyName)
	assert.Equal(t, domain.IncidentStatusResolved, got[0].Status)
	require.NotNil(t, got[0].ResolvedAt)
	assert.True(t, resolved.Equal(*got[0].ResolvedAt))
	require.Len(t, got[0].Updates, 1)
	assert.Equal(t, "fixed", got[0].Updates[0].Body)
	assert.Equal(t, "API", got[0].Components[0].Name)
	assert.Empty(t, got[1].Updates)

	windowed, err := repo.ListIncidents(ctx, store.IncidentFilter{Company: "Acme", Start: base.AddDate(0, 0, -1)})
	require.NoError(t, err)
	require.Len(t, windowed, 1)
	assert.Equal(t, "a", windowed[0].ID)

	limited, err := repo.ListIncidents(ctx, store.IncidentFilter{Company: "Acme", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRepository_UpsertKeepsClassification(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewRepository(testDB)
	acme := domain.Company{Name: "Acme", URL: "https://status.acme.com"}
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	first := domain.Incident{ID: "a", Name: "Outage", Status: domain.IncidentStatusInvestigating, Impact: domain.ImpactMajor,
		CreatedAt: at, UpdatedAt: at, Category: ptr("database-storage")}
	require.NoError(t, repo.SaveIncidents(ctx, acme, []domain.Incident{first}))

	second := first
	second.Status = domain.IncidentStatusResolved
	second.Category = nil
	require.NoError(t, repo.SaveIncidents(ctx, acme, []domain.Incident{second}))

	got, err := repo.ListIncidents(ctx, store.IncidentFilter{Company: "Acme"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.IncidentStatusResolved, got[0].Status)
	require.NotNil(t, got[0].Category)
	assert.Equal(t, "database-storage", *got[0].Category)
}

func TestRepository_Companies(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewRepository(testDB)

	require.NoError(t, repo.UpsertCompany(ctx, domain.Company{Name: "Globex", URL: "https://status.globex.com"}))
	require.NoError(t, repo.UpsertCompany(ctx, domain.Company{Name: "Acme", URL: "https://old.acme.com"}))
	require.NoError(t, repo.UpsertCompany(ctx, domain.Company{Name: "Acme", URL: "https://status.acme.com", IsTarget: true}))

	companies, err := repo.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "Acme", companies[0].Name)
	assert.Equal(t, "https://status.acme.com", companies[0].URL)
	assert.True(t, companies[0].IsTarget)

	_, err = repo.GetCompany(ctx, "Initech")
	assert.ErrorIs(t, err, store.ErrCompanyNotFound)

	_, err = repo.ListIncidents(ctx, store.IncidentFilter{Company: "Initech"})
	assert.ErrorIs(t, err, store.ErrCompanyNotFound)
}

func TestRepository_Alerts(t *testing.T) {
	cleanup(t)
	ctx := context.Background()
	repo := NewRepository(testDB)

	rules, err := repo.ReplaceAlertRules(ctx, []domain.AlertRule{{
		CompanyName: "Acme", Type: domain.AlertTypeCriticalIncident, Threshold: 0,
		Comparison: domain.ComparisonGT, Enabled: true,
	}})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	require.NotEmpty(t, rules[0].ID)

	triggeredAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	trigger := &domain.AlertTrigger{
		RuleID: rules[0].ID, CompanyName: "Acme", Type: domain.AlertTypeCriticalIncident,
		Value: 1, Threshold: 0, Message: "1 unresolved critical incident", TriggeredAt: triggeredAt,
	}
	require.NoError(t, repo.RecordAlertTrigger(ctx, trigger))
	require.NotEmpty(t, trigger.ID)

	_, err = repo.ReplaceAlertRules(ctx, nil)
	require.NoError(t, err)

	triggers, err := repo.ListAlertTriggers(ctx, "Acme", triggeredAt.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, triggers, 1)
	assert.Equal(t, trigger.ID, triggers[0].ID)
	assert.Empty(t, triggers[0].RuleID, "rule reference is cleared when rules are replaced")
	assert.Equal(t, domain.AlertTypeCriticalIncident, triggers[0].Type)

	all, err := repo.ListAlertTriggers(ctx, "", time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
