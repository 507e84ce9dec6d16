package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is the base interface for entities owned by this service
type Entity interface {
	GetID() uuid.UUID
	GetTenantID() uuid.UUID
}

// TenantEntity carries the identity and tenant scope of a stored entity
type TenantEntity struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *TenantEntity) GetID() uuid.UUID {
	return e.ID
}

// GetTenantID returns the owning tenant
func (e *TenantEntity) GetTenantID() uuid.UUID {
	return e.TenantID
}

// NewTenantEntity creates a tenant-scoped entity with a generated ID
func NewTenantEntity(tenantID uuid.UUID, now time.Time) TenantEntity {
	return TenantEntity{
		ID:        uuid.New(),
		TenantID:  tenantID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
