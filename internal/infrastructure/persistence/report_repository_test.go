package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newSavedReport(tenantID uuid.UUID, name string, schedule *report.Schedule) *report.SavedReport {
	return &report.SavedReport{
		TenantEntity: shared.NewTenantEntity(tenantID, repoNow),
		Name:         name,
		ReportType:   report.ReportSales,
		Filters: report.ReportFilters{
			RangeFilter: report.RangeFilter{DateRange: "this_month"},
			GroupBy:     "payment_method",
		},
		Schedule: schedule,
	}
}

func dailySchedule(next time.Time) *report.Schedule {
	return &report.Schedule{
		Enabled:    true,
		Recipients: []string{"owner@example.sl"},
		Format:     report.DeliveryCSV,
		Frequency:  report.FrequencyDaily,
		Time:       "09:00",
		NextRun:    &next,
	}
}

func TestGormRecordStore_RecordsAndImport(t *testing.T) {
	db := newSQLiteDatabase(t)
	store := NewGormRecordStore(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	inRange := report.NewRecord("S-100", time.Date(2026, 10, 5, 10, 0, 0, 0, time.UTC)).
		WithAmount("total_amount", decimal.NewFromInt(10)).
		WithLabel("payment_method", "cash")
	outOfRange := report.NewRecord("S-101", time.Date(2026, 9, 30, 10, 0, 0, 0, time.UTC)).
		WithAmount("total_amount", decimal.NewFromInt(99))
	expense := report.NewRecord("E-1", time.Date(2026, 10, 6, 10, 0, 0, 0, time.UTC)).
		WithAmount("amount", decimal.NewFromInt(5))

	n, err := store.Import(ctx, tenantID, report.EntitySale, []report.Record{inRange, outOfRange})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = store.Import(ctx, tenantID, report.EntityExpense, []report.Record{expense})
	require.NoError(t, err)
	_, err = store.Import(ctx, uuid.New(), report.EntitySale, []report.Record{inRange})
	require.NoError(t, err)

	rng := report.ResolveRange("this_month", time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC))
	records, err := store.Records(ctx, tenantID, report.EntitySale, rng)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "S-100", records[0].ID)
	assert.True(t, decimal.NewFromInt(10).Equal(records[0].Amount("total_amount")))
	assert.Equal(t, "cash", records[0].Label("payment_method"))
}

func TestGormRecordStore_ImportEmpty(t *testing.T) {
	db := newSQLiteDatabase(t)

	n, err := NewGormRecordStore(db.DB).Import(context.Background(), uuid.New(), report.EntitySale, nil)

	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGormSavedReportRepository_FindByID(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormSavedReportRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	saved := newSavedReport(tenantID, "Daily Sales", dailySchedule(repoNow))
	require.NoError(t, repo.Create(ctx, saved))

	t.Run("returns report with schedule", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, saved.ID)
		require.NoError(t, err)

		assert.Equal(t, "Daily Sales", found.Name)
		assert.Equal(t, report.ReportSales, found.ReportType)
		assert.Equal(t, "this_month", found.Filters.DateRange)
		assert.Equal(t, "payment_method", found.Filters.GroupBy)
		require.NotNil(t, found.Schedule)
		assert.Equal(t, []string{"owner@example.sl"}, found.Schedule.Recipients)
		require.NotNil(t, found.Schedule.NextRun)
		assert.True(t, repoNow.Equal(*found.Schedule.NextRun))
	})

	t.Run("other tenant cannot see it", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New(), saved.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, ErrSavedReportNotFound)
	})
}

func TestGormSavedReportRepository_List(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormSavedReportRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, repo.Create(ctx, newSavedReport(tenantID, "Weekly Expenses", nil)))
	require.NoError(t, repo.Create(ctx, newSavedReport(tenantID, "Daily Sales", nil)))
	require.NoError(t, repo.Create(ctx, newSavedReport(uuid.New(), "Someone Else", nil)))

	list, err := repo.List(ctx, tenantID)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Daily Sales", list[0].Name)
	assert.Equal(t, "Weekly Expenses", list[1].Name)
	assert.Nil(t, list[0].Schedule)
}

func TestGormSavedReportRepository_FindDue(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormSavedReportRepository(db.DB)
	ctx := context.Background()

	due := newSavedReport(uuid.New(), "Due", dailySchedule(repoNow.Add(-time.Hour)))
	dueOther := newSavedReport(uuid.New(), "Due Other Tenant", dailySchedule(repoNow.Add(-2*time.Hour)))
	future := newSavedReport(uuid.New(), "Future", dailySchedule(repoNow.Add(time.Hour)))
	disabledSchedule := dailySchedule(repoNow.Add(-time.Hour))
	disabledSchedule.Enabled = false
	disabled := newSavedReport(uuid.New(), "Disabled", disabledSchedule)
	unscheduled := newSavedReport(uuid.New(), "Unscheduled", nil)
	for _, r := range []*report.SavedReport{due, dueOther, future, disabled, unscheduled} {
		require.NoError(t, repo.Create(ctx, r))
	}

	found, err := repo.FindDue(ctx, repoNow, 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, dueOther.ID, found[0].ID)
	assert.Equal(t, due.ID, found[1].ID)

	limited, err := repo.FindDue(ctx, repoNow, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormSavedReportRepository_SaveSchedule(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormSavedReportRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()

	saved := newSavedReport(tenantID, "Daily Sales", dailySchedule(repoNow.Add(-time.Minute)))
	require.NoError(t, repo.Create(ctx, saved))

	t.Run("persists run outcome and moves next run", func(t *testing.T) {
		next := repoNow.Add(24 * time.Hour)
		sent := repoNow
		saved.Schedule.LastSent = &sent
		saved.Schedule.NextRun = &next
		saved.Schedule.LastStatus = report.RunFailed
		saved.Schedule.LastError = "owner@example.sl: rejected"
		saved.Name = "renamed locally"

		require.NoError(t, repo.SaveSchedule(ctx, saved))

		found, err := repo.FindByID(ctx, tenantID, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, "Daily Sales", found.Name)
		assert.Equal(t, report.RunFailed, found.Schedule.LastStatus)
		assert.Equal(t, "owner@example.sl: rejected", found.Schedule.LastError)
		assert.True(t, next.Equal(*found.Schedule.NextRun))

		due, err := repo.FindDue(ctx, repoNow, 10)
		require.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("disabling clears due index", func(t *testing.T) {
		past := repoNow.Add(-time.Hour)
		saved.Schedule.Enabled = false
		saved.Schedule.NextRun = &past

		require.NoError(t, repo.SaveSchedule(ctx, saved))

		due, err := repo.FindDue(ctx, repoNow, 10)
		require.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("wrong tenant is not found", func(t *testing.T) {
		other := *saved
		other.TenantID = uuid.New()

		assert.ErrorIs(t, repo.SaveSchedule(ctx, &other), ErrSavedReportNotFound)
	})
}

func TestGormScheduleRunRepository(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormScheduleRunRepository(db.DB)
	ctx := context.Background()
	tenantID := uuid.New()
	saved := newSavedReport(tenantID, "Daily Sales", dailySchedule(repoNow))

	for i := 0; i < 3; i++ {
		run := report.NewScheduleRun(saved, report.TriggerScheduler, repoNow.Add(time.Duration(i)*time.Hour))
		results := []report.RecipientResult{{Email: "owner@example.sl", Success: i != 1}}
		run.Finish(repoNow.Add(time.Duration(i)*time.Hour+time.Second), results, nil)
		require.NoError(t, repo.Save(ctx, run))
	}

	runs, err := repo.ListRecent(ctx, tenantID, saved.ID, 2)

	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, repoNow.Add(2*time.Hour).Equal(runs[0].StartedAt))
	assert.Equal(t, report.RunSuccess, runs[0].Status)
	assert.Equal(t, report.RunFailed, runs[1].Status)
	assert.Equal(t, 1, runs[1].Failed)
	assert.Equal(t, report.DeliveryCSV, runs[1].Format)
	assert.Equal(t, report.TriggerScheduler, runs[1].Trigger)

	other, err := repo.ListRecent(ctx, uuid.New(), saved.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}
