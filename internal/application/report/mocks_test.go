package report

import (
	"context"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/document"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/notification"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/rendering"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC)

// MockSavedReportRepository is a mock implementation of report.SavedReportRepository
type MockSavedReportRepository struct {
	mock.Mock
}

func (m *MockSavedReportRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*report.SavedReport, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.SavedReport), args.Error(1)
}

func (m *MockSavedReportRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*report.SavedReport, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*report.SavedReport), args.Error(1)
}

func (m *MockSavedReportRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*report.SavedReport, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*report.SavedReport), args.Error(1)
}

func (m *MockSavedReportRepository) SaveSchedule(ctx context.Context, r *report.SavedReport) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// MockScheduleRunRepository is a mock implementation of report.ScheduleRunRepository
type MockScheduleRunRepository struct {
	mock.Mock
}

func (m *MockScheduleRunRepository) Save(ctx context.Context, run *report.ScheduleRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockScheduleRunRepository) ListRecent(ctx context.Context, tenantID, savedReportID uuid.UUID, limit int) ([]*report.ScheduleRun, error) {
	args := m.Called(ctx, tenantID, savedReportID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*report.ScheduleRun), args.Error(1)
}

// MockRecordSource is a mock implementation of report.RecordSource
type MockRecordSource struct {
	mock.Mock
}

func (m *MockRecordSource) Records(ctx context.Context, tenantID uuid.UUID, kind report.EntityKind, rng report.DateRange) ([]report.Record, error) {
	args := m.Called(ctx, tenantID, kind, rng)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]report.Record), args.Error(1)
}

// MockSender is a mock implementation of notification.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, email notification.Email) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

// MockSummaryCache is a mock implementation of SummaryCache
type MockSummaryCache struct {
	mock.Mock
}

func (m *MockSummaryCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockSummaryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// MockDocumentArchive is a mock implementation of DocumentArchive
type MockDocumentArchive struct {
	mock.Mock
}

func (m *MockDocumentArchive) Put(ctx context.Context, key, contentType string, data []byte) error {
	args := m.Called(ctx, key, contentType, data)
	return args.Error(0)
}

func (m *MockDocumentArchive) PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func expenseRecords() []report.Record {
	return []report.Record{
		report.NewRecord("e1", day(2026, 10, 2)).
			WithAmount("amount", dec("1250000")).
			WithLabel("category", "Fuel").
			WithLabel("description", "Diesel").
			WithLabel("vendor", "NP"),
		report.NewRecord("e2", day(2026, 10, 5)).
			WithAmount("amount", dec("2500000")).
			WithLabel("category", "Rent").
			WithLabel("description", "Office, Wilberforce").
			WithLabel("vendor", "Landlord"),
		report.NewRecord("e3", day(2026, 9, 30)).
			WithAmount("amount", dec("999")).
			WithLabel("category", "Fuel"),
	}
}

func testRegistry() *rendering.Registry {
	theme := rendering.DefaultTheme()
	return rendering.NewRegistry(
		rendering.NewPDFRenderer(theme),
		rendering.NewHTMLRenderer(theme),
		rendering.NewCSVRenderer(),
		rendering.NewXLSXRenderer(theme),
	)
}

func testDocumentBuilder() *DocumentBuilder {
	return NewDocumentBuilder(
		document.Organisation{Name: "Freetown Traders", Email: "info@example.sl"},
		document.NewFormatter("SLE"),
		"",
	)
}

func newTestSummaryService(source report.RecordSource, opts ...SummaryOption) *SummaryService {
	return NewSummaryService(source, testDocumentBuilder(), testRegistry(), shared.FixedClock(testNow), zap.NewNop(), opts...)
}
