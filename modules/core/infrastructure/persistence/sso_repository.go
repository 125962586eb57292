package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/sso"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence/models"
	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/mapping"
)

var (
	ErrSSOProviderNotFound = fmt.Errorf("sso provider not found")
	ErrSSOMappingNotFound  = fmt.Errorf("sso mapping not found")
	// ErrSSOMappingConflict signals that the (provider, external id) pair is
	// already bound to a different principal. The existing mapping is left
	// untouched.
	ErrSSOMappingConflict = fmt.Errorf("sso mapping already bound to another user")
)

const (
	ssoProviderFindQuery = `
		SELECT id, tenant_id, provider_type, client_id, client_secret, redirect_url, metadata_url, is_enabled, created_at, updated_at
		FROM sso_providers`

	ssoMappingFindQuery = `
		SELECT id, provider_id, user_id, external_id, attributes, login_count, last_login_at, created_at, updated_at
		FROM sso_user_mappings`
)

type SSOProviderRepository struct{}

func NewSSOProviderRepository() sso.ProviderRepository {
	return &SSOProviderRepository{}
}

func (r *SSOProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*sso.Provider, error) {
	providers, err := r.queryProviders(ctx, ssoProviderFindQuery+" WHERE id = $1", id.String())
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, ErrSSOProviderNotFound
	}
	return providers[0], nil
}

func (r *SSOProviderRepository) GetByTenantAndType(ctx context.Context, tenantID *uuid.UUID, providerType sso.ProviderType) (*sso.Provider, error) {
	if tenantID != nil {
		providers, err := r.queryProviders(
			ctx,
			ssoProviderFindQuery+" WHERE tenant_id = $1 AND provider_type = $2",
			tenantID.String(),
			string(providerType),
		)
		if err != nil {
			return nil, err
		}
		if len(providers) > 0 {
			return providers[0], nil
		}
	}

	// Fall back to the system-wide configuration.
	providers, err := r.queryProviders(
		ctx,
		ssoProviderFindQuery+" WHERE tenant_id IS NULL AND provider_type = $1",
		string(providerType),
	)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, ErrSSOProviderNotFound
	}
	return providers[0], nil
}

func (r *SSOProviderRepository) List(ctx context.Context) ([]*sso.Provider, error) {
	return r.queryProviders(ctx, ssoProviderFindQuery+" ORDER BY created_at")
}

// Save upserts on the (tenant_id, provider_type) key, keeping at most one
// configuration per pair. The backing unique index is declared NULLS NOT
// DISTINCT, so repeated system-wide saves hit the conflict clause and update
// the single NULL-tenant row instead of inserting duplicates.
func (r *SSOProviderRepository) Save(ctx context.Context, p *sso.Provider) (*sso.Provider, error) {
	query := `
		INSERT INTO sso_providers (id, tenant_id, provider_type, client_id, client_secret, redirect_url, metadata_url, is_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, provider_type) DO UPDATE
		SET client_id = EXCLUDED.client_id,
			client_secret = EXCLUDED.client_secret,
			redirect_url = EXCLUDED.redirect_url,
			metadata_url = EXCLUDED.metadata_url,
			is_enabled = EXCLUDED.is_enabled,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var tenantValue interface{}
	if p.TenantID() != nil {
		tenantValue = p.TenantID().String()
	}

	var idStr string
	if err := tx.QueryRow(
		ctx,
		query,
		p.ID().String(),
		tenantValue,
		string(p.Type()),
		mapping.ValueToSQLNullString(p.ClientID()),
		mapping.ValueToSQLNullString(p.ClientSecret()),
		mapping.ValueToSQLNullString(p.RedirectURL()),
		mapping.ValueToSQLNullString(p.MetadataURL()),
		p.IsEnabled(),
		p.CreatedAt(),
		p.UpdatedAt(),
	).Scan(&idStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *SSOProviderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "DELETE FROM sso_providers WHERE id = $1", id.String())
	return err
}

func (r *SSOProviderRepository) queryProviders(ctx context.Context, query string, args ...interface{}) ([]*sso.Provider, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var providers []*sso.Provider
	for rows.Next() {
		var p models.SSOProvider
		if err := rows.Scan(
			&p.ID,
			&p.TenantID,
			&p.ProviderType,
			&p.ClientID,
			&p.ClientSecret,
			&p.RedirectURL,
			&p.MetadataURL,
			&p.IsEnabled,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan sso provider row")
		}
		domainProvider, err := toDomainSSOProvider(&p)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map sso provider row")
		}
		providers = append(providers, domainProvider)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return providers, nil
}

type SSOMappingRepository struct{}

func NewSSOMappingRepository() sso.MappingRepository {
	return &SSOMappingRepository{}
}

func (r *SSOMappingRepository) GetByProviderAndExternalID(ctx context.Context, providerID uuid.UUID, externalID string) (*sso.Mapping, error) {
	mappings, err := r.queryMappings(
		ctx,
		ssoMappingFindQuery+" WHERE provider_id = $1 AND external_id = $2",
		providerID.String(),
		externalID,
	)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return nil, ErrSSOMappingNotFound
	}
	return mappings[0], nil
}

func (r *SSOMappingRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*sso.Mapping, error) {
	return r.queryMappings(ctx, ssoMappingFindQuery+" WHERE user_id = $1 ORDER BY created_at", userID.String())
}

// Create inserts a new mapping. On a (provider_id, external_id) collision the
// insert is a no-op and the existing binding decides the outcome: same
// principal returns the existing mapping, a different principal is a
// conflict. The existing row is never altered either way.
func (r *SSOMappingRepository) Create(ctx context.Context, m *sso.Mapping) (*sso.Mapping, error) {
	query := `
		INSERT INTO sso_user_mappings (id, provider_id, user_id, external_id, attributes, login_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (provider_id, external_id) DO NOTHING
		RETURNING id
	`
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	attributes, err := json.Marshal(m.Attributes())
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode mapping attributes")
	}

	var idStr string
	err = tx.QueryRow(
		ctx,
		query,
		m.ID().String(),
		m.ProviderID().String(),
		m.UserID().String(),
		m.ExternalID(),
		attributes,
		m.LoginCount(),
		m.CreatedAt(),
		m.UpdatedAt(),
	).Scan(&idStr)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, getErr := r.GetByProviderAndExternalID(ctx, m.ProviderID(), m.ExternalID())
		if getErr != nil {
			return nil, getErr
		}
		if existing.UserID() == m.UserID() {
			return existing, nil
		}
		return nil, ErrSSOMappingConflict
	}
	if err != nil {
		return nil, err
	}

	return r.GetByProviderAndExternalID(ctx, m.ProviderID(), m.ExternalID())
}

// RecordLogin bumps the login counter and timestamp in one statement, so
// concurrent logins from the same identity never lose an increment.
func (r *SSOMappingRepository) RecordLogin(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE sso_user_mappings
		SET login_count = login_count + 1, last_login_at = now(), updated_at = now()
		WHERE id = $1
	`, id.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSSOMappingNotFound
	}
	return nil
}

func (r *SSOMappingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, "DELETE FROM sso_user_mappings WHERE id = $1", id.String())
	return err
}

func (r *SSOMappingRepository) queryMappings(ctx context.Context, query string, args ...interface{}) ([]*sso.Mapping, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	var mappings []*sso.Mapping
	for rows.Next() {
		var m models.SSOUserMapping
		if err := rows.Scan(
			&m.ID,
			&m.ProviderID,
			&m.UserID,
			&m.ExternalID,
			&m.Attributes,
			&m.LoginCount,
			&m.LastLoginAt,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan sso mapping row")
		}
		domainMapping, err := toDomainSSOMapping(&m)
		if err != nil {
			return nil, errors.Wrap(err, "failed to map sso mapping row")
		}
		mappings = append(mappings, domainMapping)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "row iteration error")
	}

	return mappings, nil
}
