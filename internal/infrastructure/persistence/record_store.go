package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/Bri-fat-sen/bfse-management-system-sub006/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// recordBatchSize bounds a single INSERT when importing records
const recordBatchSize = 200

// BusinessRecordModel is the read model of an externally owned business record
type BusinessRecordModel struct {
	ID         uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID                  `gorm:"type:uuid;not null;index:idx_business_records_lookup,priority:1"`
	Entity     string                     `gorm:"type:varchar(32);not null;index:idx_business_records_lookup,priority:2"`
	ExternalID string                     `gorm:"type:varchar(100)"`
	OccurredAt time.Time                  `gorm:"not null;index:idx_business_records_lookup,priority:3"`
	Amounts    map[string]decimal.Decimal `gorm:"type:jsonb;serializer:json"`
	Labels     map[string]string          `gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time                  `gorm:"autoCreateTime"`
}

// TableName returns the table name for the model
func (BusinessRecordModel) TableName() string {
	return "business_records"
}

// ToRecord converts the model to the aggregator's record view
func (m *BusinessRecordModel) ToRecord() report.Record {
	id := m.ExternalID
	if id == "" {
		id = m.ID.String()
	}
	r := report.NewRecord(id, m.OccurredAt)
	for k, v := range m.Amounts {
		r.Amounts[k] = v
	}
	for k, v := range m.Labels {
		r.Labels[k] = v
	}
	return r
}

// GormRecordStore reads business records and imports them for demo tenants
type GormRecordStore struct {
	db *gorm.DB
}

// NewGormRecordStore creates a new GormRecordStore
func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{db: db}
}

// Records implements report.RecordSource
func (s *GormRecordStore) Records(ctx context.Context, tenantID uuid.UUID, kind report.EntityKind, rng report.DateRange) ([]report.Record, error) {
	var models []BusinessRecordModel
	err := scopeTenant(s.db.WithContext(ctx), tenantID).
		Where("entity = ?", string(kind)).
		Where("occurred_at BETWEEN ? AND ?", rng.Start.UTC(), rng.End.UTC()).
		Order("occurred_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("load %s records: %w", kind, err)
	}

	records := make([]report.Record, len(models))
	for i := range models {
		records[i] = models[i].ToRecord()
	}
	return records, nil
}

// Import inserts records of one entity kind for a tenant
func (s *GormRecordStore) Import(ctx context.Context, tenantID uuid.UUID, kind report.EntityKind, records []report.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	models := make([]BusinessRecordModel, len(records))
	for i, r := range records {
		models[i] = BusinessRecordModel{
			ID:         uuid.New(),
			TenantID:   tenantID,
			Entity:     string(kind),
			ExternalID: r.ID,
			OccurredAt: r.Date.UTC(),
			Amounts:    r.Amounts,
			Labels:     r.Labels,
		}
	}
	if err := s.db.WithContext(ctx).CreateInBatches(models, recordBatchSize).Error; err != nil {
		return 0, fmt.Errorf("import %s records: %w", kind, err)
	}
	return len(models), nil
}
