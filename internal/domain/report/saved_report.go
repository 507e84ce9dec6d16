package report

import (
	"context"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/google/uuid"
)

// ReportFilters are the stored query parameters of a saved report
type ReportFilters struct {
	RangeFilter
	GroupBy string `json:"group_by,omitempty"`
}

// SavedReport is a named report configuration with an optional delivery schedule
type SavedReport struct {
	shared.TenantEntity
	Name       string
	ReportType ReportType
	Filters    ReportFilters
	Schedule   *Schedule
}

// ScheduleOrEmpty returns the schedule, or a disabled zero schedule
func (r *SavedReport) ScheduleOrEmpty() Schedule {
	if r.Schedule == nil {
		return Schedule{}
	}
	return *r.Schedule
}

// UpdateSchedule validates s, recomputes its next run and stores it
func (r *SavedReport) UpdateSchedule(s Schedule, now time.Time) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Enabled {
		next, err := s.ComputeNextRun(now)
		if err != nil {
			return err
		}
		s.NextRun = &next
	} else {
		s.NextRun = nil
	}
	if r.Schedule != nil {
		s.LastSent = r.Schedule.LastSent
		s.LastStatus = r.Schedule.LastStatus
		s.LastError = r.Schedule.LastError
	}
	r.Schedule = &s
	r.UpdatedAt = now
	return nil
}

// SavedReportRepository persists saved reports. Only the schedule is written
// by this service.
type SavedReportRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SavedReport, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*SavedReport, error)
	FindDue(ctx context.Context, now time.Time, limit int) ([]*SavedReport, error)
	SaveSchedule(ctx context.Context, r *SavedReport) error
}

// RecordSource reads externally owned business records for one tenant.
// Implementations may pre-filter by rng; Aggregate filters again.
type RecordSource interface {
	Records(ctx context.Context, tenantID uuid.UUID, kind EntityKind, rng DateRange) ([]Record, error)
}
