package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunTrigger says what started a scheduled delivery
type RunTrigger string

const (
	TriggerScheduler RunTrigger = "scheduler"
	TriggerManual    RunTrigger = "manual"
	TriggerAPI       RunTrigger = "api"
)

// ScheduleRun is one entry of the delivery run log
type ScheduleRun struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	SavedReportID uuid.UUID
	Trigger       RunTrigger
	Format        DeliveryFormat
	Status        RunStatus
	Recipients    int
	Failed        int
	Error         string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// NewScheduleRun starts a run log entry
func NewScheduleRun(r *SavedReport, trigger RunTrigger, now time.Time) *ScheduleRun {
	s := r.ScheduleOrEmpty()
	return &ScheduleRun{
		ID:            uuid.New(),
		TenantID:      r.TenantID,
		SavedReportID: r.ID,
		Trigger:       trigger,
		Format:        s.EffectiveFormat(),
		Recipients:    len(s.Recipients),
		StartedAt:     now,
	}
}

// Finish records the outcome of the run
func (r *ScheduleRun) Finish(now time.Time, results []RecipientResult, cause error) {
	r.FinishedAt = now
	r.Status = RunSuccess
	for _, res := range results {
		if !res.Success {
			r.Failed++
		}
	}
	switch {
	case cause != nil:
		r.Status = RunFailed
		r.Error = cause.Error()
	case r.Failed > 0:
		r.Status = RunFailed
	}
}

// Duration is the wall time the run took
func (r *ScheduleRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// ScheduleRunRepository stores the delivery run log
type ScheduleRunRepository interface {
	Save(ctx context.Context, run *ScheduleRun) error
	ListRecent(ctx context.Context, tenantID uuid.UUID, savedReportID uuid.UUID, limit int) ([]*ScheduleRun, error)
}
