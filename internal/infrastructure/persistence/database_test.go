package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()

	db, err := Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}))
	require.NoError(t, err)

	return db, mock, mockDB
}

// newSQLiteDatabase opens an in-memory sqlite database with the report tables
func newSQLiteDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	// every pooled connection would otherwise get its own empty database
	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.DB.AutoMigrate(&BusinessRecordModel{}, &SavedReportModel{}, &ScheduleRunModel{}))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDatabase_WithTenant(t *testing.T) {
	t.Run("adds tenant filter", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		type TestModel struct {
			ID       uint
			TenantID uuid.UUID
		}

		mock.ExpectQuery(`SELECT \* FROM "test_models" WHERE tenant_id = \$1`).
			WithArgs(tenantID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}).AddRow(1, tenantID))

		var results []TestModel
		require.NoError(t, db.WithTenant(context.Background(), tenantID).Find(&results).Error)
		assert.Len(t, results, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("does not modify original DB", func(t *testing.T) {
		db, _, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		original := db.DB
		scoped := db.WithTenant(context.Background(), uuid.New())

		assert.NotEqual(t, original, scoped)
		assert.Equal(t, original, db.DB)
	})

	t.Run("nil tenant panics", func(t *testing.T) {
		db, _, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		assert.Panics(t, func() { db.WithTenant(context.Background(), uuid.Nil) })
	})
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("successful ping", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing()

		assert.NoError(t, db.Ping(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed ping", func(t *testing.T) {
		db, mock, mockDB := newMockDatabase(t)
		defer mockDB.Close()

		mock.ExpectPing().WillReturnError(errors.New("connection reset"))

		err := db.Ping(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestDatabase_Stats(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	stats, err := db.Stats()

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 0)
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)
	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_NowFuncOption(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	db, err := Open(sqlite.Open(":memory:"), WithNowFunc(func() time.Time { return fixed }))
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, fixed, db.DB.NowFunc())
}
