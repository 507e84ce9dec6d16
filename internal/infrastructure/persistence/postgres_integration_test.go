//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/migration"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/migrations"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
)

// newPostgresDatabase starts a disposable PostgreSQL container and applies the
// embedded migrations
func newPostgresDatabase(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("bfse_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(postgres.Open(dsn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	m, err := migration.New(sqlDB, migrations.FS, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

func TestPostgres_ReportRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newPostgresDatabase(t)
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	records := NewGormRecordStore(db.DB)
	saved := NewGormSavedReportRepository(db.DB)
	runs := NewGormScheduleRunRepository(db.DB)

	t.Run("records round trip through jsonb", func(t *testing.T) {
		sale := report.NewRecord("S-100", now.Add(-time.Hour)).
			WithAmount("total_amount", decimal.RequireFromString("1250000.50")).
			WithLabel("payment_method", "mobile_money")
		_, err := records.Import(ctx, tenantID, report.EntitySale, []report.Record{sale})
		require.NoError(t, err)

		got, err := records.Records(ctx, tenantID, report.EntitySale, report.ResolveRange("today", now))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "1250000.5", got[0].Amount("total_amount").String())
		assert.Equal(t, "mobile_money", got[0].Label("payment_method"))
	})

	t.Run("due schedule lifecycle", func(t *testing.T) {
		r := newSavedReport(tenantID, "Daily Sales", dailySchedule(now.Add(-time.Minute)))
		require.NoError(t, saved.Create(ctx, r))

		due, err := saved.FindDue(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, due, 1)

		run := report.NewScheduleRun(due[0], report.TriggerScheduler, now)
		run.Finish(now.Add(time.Second), []report.RecipientResult{{Email: "owner@example.sl", Success: true}}, nil)
		require.NoError(t, runs.Save(ctx, run))

		next := now.Add(24 * time.Hour)
		due[0].Schedule.NextRun = &next
		require.NoError(t, saved.SaveSchedule(ctx, due[0]))

		due, err = saved.FindDue(ctx, now, 10)
		require.NoError(t, err)
		assert.Empty(t, due)

		logged, err := runs.ListRecent(ctx, tenantID, r.ID, 5)
		require.NoError(t, err)
		require.Len(t, logged, 1)
		assert.Equal(t, report.RunSuccess, logged[0].Status)
	})
}
