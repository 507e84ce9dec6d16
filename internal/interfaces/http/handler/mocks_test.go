package handler

import (
	"context"

	documentapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/document"
	integrationapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/integration"
	reportapp "github.com/Bri-fat-sen/bfse-management-system-sub006/internal/application/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/integration"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/auth"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/rendering"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/infrastructure/scheduler"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	testTenantID = uuid.MustParse("7b0c3f4e-1111-4c2a-9a51-000000000001")
	testUserID   = uuid.MustParse("7b0c3f4e-2222-4c2a-9a51-000000000002")
)

// withPrincipal stands in for JWTAuth
func withPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.PrincipalKey, &auth.Principal{TenantID: testTenantID, UserID: testUserID})
		c.Next()
	}
}

// MockDocumentGenerator implements DocumentGenerator for testing
type MockDocumentGenerator struct {
	mock.Mock
}

func (m *MockDocumentGenerator) Generate(ctx context.Context, tenantID uuid.UUID, req documentapp.GenerateRequest) (*documentapp.GenerateResult, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*documentapp.GenerateResult), args.Error(1)
}

// MockGitHubProxy implements GitHubProxy for testing
type MockGitHubProxy struct {
	mock.Mock
}

func (m *MockGitHubProxy) Execute(ctx context.Context, req integrationapp.ActionRequest) (*integration.UpstreamResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.UpstreamResponse), args.Error(1)
}

// MockScheduledReportSender implements ScheduledReportSender for testing
type MockScheduledReportSender struct {
	mock.Mock
}

func (m *MockScheduledReportSender) SendScheduledReport(ctx context.Context, tenantID uuid.UUID, in reportapp.SendScheduledReportInput) (*reportapp.SendScheduledReportResult, error) {
	args := m.Called(ctx, tenantID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapp.SendScheduledReportResult), args.Error(1)
}

// MockSummaryReader implements SummaryReader for testing
type MockSummaryReader struct {
	mock.Mock
}

func (m *MockSummaryReader) Summary(ctx context.Context, tenantID uuid.UUID, q reportapp.SummaryQuery) (*report.Summary, error) {
	args := m.Called(ctx, tenantID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Summary), args.Error(1)
}

func (m *MockSummaryReader) Consolidated(ctx context.Context, tenantID uuid.UUID, f report.RangeFilter) (*report.ConsolidatedSummary, error) {
	args := m.Called(ctx, tenantID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.ConsolidatedSummary), args.Error(1)
}

func (m *MockSummaryReader) Export(ctx context.Context, tenantID uuid.UUID, q reportapp.SummaryQuery, f rendering.Format) (*rendering.Artifact, error) {
	args := m.Called(ctx, tenantID, q, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rendering.Artifact), args.Error(1)
}

// MockSavedReportManager implements SavedReportManager for testing
type MockSavedReportManager struct {
	mock.Mock
}

func (m *MockSavedReportManager) List(ctx context.Context, tenantID uuid.UUID) ([]reportapp.SavedReportResponse, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reportapp.SavedReportResponse), args.Error(1)
}

func (m *MockSavedReportManager) Get(ctx context.Context, tenantID, id uuid.UUID) (*reportapp.SavedReportResponse, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapp.SavedReportResponse), args.Error(1)
}

func (m *MockSavedReportManager) UpdateSchedule(ctx context.Context, tenantID, id uuid.UUID, req reportapp.UpdateScheduleRequest) (*reportapp.SavedReportResponse, error) {
	args := m.Called(ctx, tenantID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reportapp.SavedReportResponse), args.Error(1)
}

func (m *MockSavedReportManager) RecentRuns(ctx context.Context, tenantID, id uuid.UUID, limit int) ([]reportapp.ScheduleRunResponse, error) {
	args := m.Called(ctx, tenantID, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reportapp.ScheduleRunResponse), args.Error(1)
}

type fixedStatus scheduler.DispatcherStatus

func (s fixedStatus) Status() scheduler.DispatcherStatus {
	return scheduler.DispatcherStatus(s)
}
