package entitlement

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByTenantAndModule(ctx context.Context, tenantID, moduleID uuid.UUID) (*Entitlement, error)
	ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]*Entitlement, error)
	// Save upserts on the (tenant, module) key, preserving the
	// one-row-per-pair invariant.
	Save(ctx context.Context, e *Entitlement) (*Entitlement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
