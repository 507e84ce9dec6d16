package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSavedReportNotFound is returned when a saved report does not exist for the tenant
var ErrSavedReportNotFound = shared.NotFound("Saved report not found")

// SavedReportModel is the GORM model for saved reports. schedule_enabled and
// next_run_at mirror the JSON schedule so due lookups can use an index.
type SavedReportModel struct {
	ID              uuid.UUID            `gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID            `gorm:"type:uuid;not null;index"`
	Name            string               `gorm:"type:varchar(200);not null"`
	ReportType      string               `gorm:"type:varchar(32);not null"`
	Filters         report.ReportFilters `gorm:"type:jsonb;serializer:json"`
	Schedule        *report.Schedule     `gorm:"type:jsonb;serializer:json"`
	ScheduleEnabled bool                 `gorm:"not null;default:false;index:idx_saved_reports_due,priority:1"`
	NextRunAt       *time.Time           `gorm:"index:idx_saved_reports_due,priority:2"`
	CreatedAt       time.Time            `gorm:"not null"`
	UpdatedAt       time.Time            `gorm:"not null"`
}

// TableName returns the table name for the model
func (SavedReportModel) TableName() string {
	return "saved_reports"
}

// ToEntity converts the model to a domain entity
func (m *SavedReportModel) ToEntity() *report.SavedReport {
	return &report.SavedReport{
		TenantEntity: shared.TenantEntity{
			ID:        m.ID,
			TenantID:  m.TenantID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name:       m.Name,
		ReportType: report.ReportType(m.ReportType),
		Filters:    m.Filters,
		Schedule:   m.Schedule,
	}
}

// SavedReportModelFromEntity creates a model from a domain entity
func SavedReportModelFromEntity(e *report.SavedReport) *SavedReportModel {
	m := &SavedReportModel{
		ID:         e.ID,
		TenantID:   e.TenantID,
		Name:       e.Name,
		ReportType: string(e.ReportType),
		Filters:    e.Filters,
		Schedule:   e.Schedule,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	m.syncScheduleColumns()
	return m
}

func (m *SavedReportModel) syncScheduleColumns() {
	m.ScheduleEnabled = m.Schedule != nil && m.Schedule.Enabled
	m.NextRunAt = nil
	if m.ScheduleEnabled && m.Schedule.NextRun != nil {
		next := m.Schedule.NextRun.UTC()
		m.NextRunAt = &next
	}
}

// GormSavedReportRepository implements report.SavedReportRepository using GORM
type GormSavedReportRepository struct {
	db *gorm.DB
}

// NewGormSavedReportRepository creates a new GormSavedReportRepository
func NewGormSavedReportRepository(db *gorm.DB) *GormSavedReportRepository {
	return &GormSavedReportRepository{db: db}
}

// FindByID loads one saved report of the tenant
func (r *GormSavedReportRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*report.SavedReport, error) {
	var model SavedReportModel
	err := scopeTenant(r.db.WithContext(ctx), tenantID).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSavedReportNotFound
		}
		return nil, fmt.Errorf("find saved report: %w", err)
	}
	return model.ToEntity(), nil
}

// List returns the tenant's saved reports ordered by name
func (r *GormSavedReportRepository) List(ctx context.Context, tenantID uuid.UUID) ([]*report.SavedReport, error) {
	var models []SavedReportModel
	if err := scopeTenant(r.db.WithContext(ctx), tenantID).Order("name ASC, id ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list saved reports: %w", err)
	}
	out := make([]*report.SavedReport, len(models))
	for i := range models {
		out[i] = models[i].ToEntity()
	}
	return out, nil
}

// FindDue returns enabled schedules whose next run is at or before now, across
// all tenants, oldest first
func (r *GormSavedReportRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*report.SavedReport, error) {
	var models []SavedReportModel
	err := r.db.WithContext(ctx).
		Where("schedule_enabled = ?", true).
		Where("next_run_at IS NOT NULL AND next_run_at <= ?", now.UTC()).
		Order("next_run_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("find due schedules: %w", err)
	}
	out := make([]*report.SavedReport, len(models))
	for i := range models {
		out[i] = models[i].ToEntity()
	}
	return out, nil
}

// SaveSchedule writes only the schedule of an existing saved report
func (r *GormSavedReportRepository) SaveSchedule(ctx context.Context, e *report.SavedReport) error {
	m := SavedReportModelFromEntity(e)
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = r.db.NowFunc()
	}
	result := scopeTenant(r.db.WithContext(ctx).Model(&SavedReportModel{}), e.TenantID).
		Where("id = ?", e.ID).
		Select("schedule", "schedule_enabled", "next_run_at", "updated_at").
		Updates(m)
	if result.Error != nil {
		return fmt.Errorf("save schedule: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSavedReportNotFound
	}
	return nil
}

// Create inserts a saved report. Saved reports are owned by the entity store;
// this exists for seeding and tests.
func (r *GormSavedReportRepository) Create(ctx context.Context, e *report.SavedReport) error {
	if err := r.db.WithContext(ctx).Create(SavedReportModelFromEntity(e)).Error; err != nil {
		return fmt.Errorf("create saved report: %w", err)
	}
	return nil
}
