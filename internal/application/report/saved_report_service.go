package report

import (
	"context"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultRecentRuns = 20

// SavedReportResponse is a saved report with its schedule
type SavedReportResponse struct {
	ID         uuid.UUID            `json:"id"`
	Name       string               `json:"name"`
	ReportType report.ReportType    `json:"report_type"`
	Filters    report.ReportFilters `json:"filters"`
	Schedule   *report.Schedule     `json:"schedule,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// ScheduleRunResponse is one entry of the delivery run log
type ScheduleRunResponse struct {
	ID         uuid.UUID             `json:"id"`
	Trigger    report.RunTrigger     `json:"trigger"`
	Format     report.DeliveryFormat `json:"format"`
	Status     report.RunStatus      `json:"status"`
	Recipients int                   `json:"recipients"`
	Failed     int                   `json:"failed"`
	Error      string                `json:"error,omitempty"`
	StartedAt  time.Time             `json:"started_at"`
	DurationMs int64                 `json:"duration_ms"`
}

// UpdateScheduleRequest replaces the configurable part of a schedule
type UpdateScheduleRequest struct {
	Enabled    bool     `json:"enabled"`
	Recipients []string `json:"recipients" binding:"omitempty,dive,email"`
	Format     string   `json:"format" binding:"omitempty,oneof=pdf csv xlsx"`
	Subject    string   `json:"subject" binding:"max=200"`
	Message    string   `json:"message" binding:"max=2000"`
	Frequency  string   `json:"frequency" binding:"required,oneof=daily weekly monthly"`
	Time       string   `json:"time"`
	DayOfWeek  string   `json:"day_of_week"`
	DayOfMonth int      `json:"day_of_month" binding:"omitempty,min=1,max=31"`
	AttachPDF  bool     `json:"attach_pdf"`
}

// SavedReportService reads saved reports and edits their schedules
type SavedReportService struct {
	repo   report.SavedReportRepository
	runs   report.ScheduleRunRepository
	clock  shared.Clock
	logger *zap.Logger
}

// NewSavedReportService creates a new SavedReportService
func NewSavedReportService(
	repo report.SavedReportRepository,
	runs report.ScheduleRunRepository,
	clock shared.Clock,
	logger *zap.Logger,
) *SavedReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = shared.SystemClock(nil)
	}
	return &SavedReportService{repo: repo, runs: runs, clock: clock, logger: logger}
}

// List returns the tenant's saved reports
func (s *SavedReportService) List(ctx context.Context, tenantID uuid.UUID) ([]SavedReportResponse, error) {
	reports, err := s.repo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]SavedReportResponse, len(reports))
	for i, r := range reports {
		out[i] = toSavedReportResponse(r)
	}
	return out, nil
}

// Get returns one saved report
func (s *SavedReportService) Get(ctx context.Context, tenantID, id uuid.UUID) (*SavedReportResponse, error) {
	r, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := toSavedReportResponse(r)
	return &resp, nil
}

// UpdateSchedule stores a new schedule and recomputes its next run. The
// delivery history fields are kept.
func (s *SavedReportService) UpdateSchedule(ctx context.Context, tenantID, id uuid.UUID, req UpdateScheduleRequest) (*SavedReportResponse, error) {
	r, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	schedule := report.Schedule{
		Enabled:    req.Enabled,
		Recipients: req.Recipients,
		Format:     report.DeliveryFormat(req.Format),
		Subject:    req.Subject,
		Message:    req.Message,
		Frequency:  report.Frequency(req.Frequency),
		Time:       req.Time,
		DayOfWeek:  req.DayOfWeek,
		DayOfMonth: req.DayOfMonth,
		AttachPDF:  req.AttachPDF,
	}
	if err := r.UpdateSchedule(schedule, s.clock.Now()); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSchedule(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("report schedule updated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("saved_report_id", id.String()),
		zap.Bool("enabled", schedule.Enabled),
		zap.Timep("next_run", r.Schedule.NextRun))

	resp := toSavedReportResponse(r)
	return &resp, nil
}

// RecentRuns returns the latest delivery runs of a saved report
func (s *SavedReportService) RecentRuns(ctx context.Context, tenantID, id uuid.UUID, limit int) ([]ScheduleRunResponse, error) {
	if _, err := s.repo.FindByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = defaultRecentRuns
	}
	runs, err := s.runs.ListRecent(ctx, tenantID, id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ScheduleRunResponse, len(runs))
	for i, run := range runs {
		out[i] = ScheduleRunResponse{
			ID:         run.ID,
			Trigger:    run.Trigger,
			Format:     run.Format,
			Status:     run.Status,
			Recipients: run.Recipients,
			Failed:     run.Failed,
			Error:      run.Error,
			StartedAt:  run.StartedAt,
			DurationMs: run.Duration().Milliseconds(),
		}
	}
	return out, nil
}

func toSavedReportResponse(r *report.SavedReport) SavedReportResponse {
	return SavedReportResponse{
		ID:         r.ID,
		Name:       r.Name,
		ReportType: r.ReportType,
		Filters:    r.Filters,
		Schedule:   r.Schedule,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
