package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScheduleRunModel is the GORM model for the scheduled delivery run log
type ScheduleRunModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index:idx_scheduler_runs_report,priority:1"`
	SavedReportID uuid.UUID `gorm:"type:uuid;not null;index:idx_scheduler_runs_report,priority:2"`
	Trigger       string    `gorm:"type:varchar(20);not null"`
	Format        string    `gorm:"type:varchar(10);not null"`
	Status        string    `gorm:"type:varchar(20);not null"`
	Recipients    int       `gorm:"not null;default:0"`
	Failed        int       `gorm:"not null;default:0"`
	Error         string    `gorm:"type:text"`
	StartedAt     time.Time `gorm:"not null;index:idx_scheduler_runs_report,priority:3"`
	FinishedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for the model
func (ScheduleRunModel) TableName() string {
	return "report_scheduler_runs"
}

// ToEntity converts the model to a domain entity
func (m *ScheduleRunModel) ToEntity() *report.ScheduleRun {
	return &report.ScheduleRun{
		ID:            m.ID,
		TenantID:      m.TenantID,
		SavedReportID: m.SavedReportID,
		Trigger:       report.RunTrigger(m.Trigger),
		Format:        report.DeliveryFormat(m.Format),
		Status:        report.RunStatus(m.Status),
		Recipients:    m.Recipients,
		Failed:        m.Failed,
		Error:         m.Error,
		StartedAt:     m.StartedAt,
		FinishedAt:    m.FinishedAt,
	}
}

// GormScheduleRunRepository implements report.ScheduleRunRepository using GORM
type GormScheduleRunRepository struct {
	db *gorm.DB
}

// NewGormScheduleRunRepository creates a new GormScheduleRunRepository
func NewGormScheduleRunRepository(db *gorm.DB) *GormScheduleRunRepository {
	return &GormScheduleRunRepository{db: db}
}

// Save appends a run to the log
func (r *GormScheduleRunRepository) Save(ctx context.Context, run *report.ScheduleRun) error {
	m := &ScheduleRunModel{
		ID:            run.ID,
		TenantID:      run.TenantID,
		SavedReportID: run.SavedReportID,
		Trigger:       string(run.Trigger),
		Format:        string(run.Format),
		Status:        string(run.Status),
		Recipients:    run.Recipients,
		Failed:        run.Failed,
		Error:         run.Error,
		StartedAt:     run.StartedAt.UTC(),
		FinishedAt:    run.FinishedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("save schedule run: %w", err)
	}
	return nil
}

// ListRecent returns the latest runs of a saved report, newest first
func (r *GormScheduleRunRepository) ListRecent(ctx context.Context, tenantID, savedReportID uuid.UUID, limit int) ([]*report.ScheduleRun, error) {
	var models []ScheduleRunModel
	err := scopeTenant(r.db.WithContext(ctx), tenantID).
		Where("saved_report_id = ?", savedReportID).
		Order("started_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list schedule runs: %w", err)
	}
	out := make([]*report.ScheduleRun, len(models))
	for i := range models {
		out[i] = models[i].ToEntity()
	}
	return out, nil
}
