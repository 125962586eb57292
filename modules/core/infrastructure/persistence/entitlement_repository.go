package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/entitlement"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence/models"
	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/mapping"
)

var (
	ErrEntitlementNotFound = fmt.Errorf("entitlement not found")
)

const (
	entitlementFindQuery = `
		SELECT id, tenant_id, module_id, status, expires_at, created_at, updated_at
		FROM tenant_module_entitlements`
)

type EntitlementRepository struct{}

func NewEntitlementRepository() entitlement.Repository {
	return &EntitlementRepository{}
}

func (r *EntitlementRepository) GetByTenantAndModule(ctx context.Context, tenantID, moduleID uuid.UUID) (*entitlement.Entitlement, error) {
	query := entitlementFindQuery + " WHERE tenant_id = $1 AND module_id = $2"
	ents, err := r.queryEntitlements(ctx, query, tenantID.String(), moduleID.String())
	if err != nil {
		return nil, err
	}
	if len(ents) == 0 {
		return nil, ErrEntitlementNotFound
	}
	return ents[0], nil
}

func (r *EntitlementRepository) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]*entitlement.Entitlement, error) {
	return r.queryEntitlements(ctx, entitlementFindQuery+" WHERE tenant_id = $1 ORDER BY created_at", tenantID.String())
}

// Save upserts on (tenant_id, module_id), which is the schema-level unique
// key keeping at most one entitlement row per pair.
func (r *EntitlementRepository) Save(ctx context.Context, e *entitlement.Entitlement) (*entitlement.Entitlement, error) {
	query := `
		INSERT INTO tenant_module_entitlements (id, tenant_id, module_id, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, module_id) DO UPDATE
		SET status = EXCLUDED.status, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var idStr string
	if err := tx.QueryRow(
		ctx,
		query,
		e.ID().String(),
		e.TenantID().String(),
		e.ModuleID().String(),
		string(e.Status()),
		mapping.PointerToSQLNullTime(e.ExpiresAt()),
		e.CreatedAt(),
		e.UpdatedAt(),
	).Scan(&idStr); err != nil {
		return nil, err
	}

	return r.GetByTenantAndModule(ctx, e.TenantID(), e.ModuleID())
}

func (r *EntitlementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "DELETE FROM tenant_module_entitlements WHERE id = $1", id.String())
	return err
}

func (r *EntitlementRepository) queryEntitlements(ctx context.Context, query string, args ...interface{}) ([]*entitlement.Entitlement, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var ents []*entitlement.Entitlement
	for rows.Next() {
		var e models.Entitlement
		if err := rows.Scan(
			&e.ID,
			&e.TenantID,
			&e.ModuleID,
			&e.Status,
			&e.ExpiresAt,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan entitlement row")
		}
		domainEntitlement, err := toDomainEntitlement(&e)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map entitlement row")
		}
		ents = append(ents, domainEntitlement)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return ents, nil
}
