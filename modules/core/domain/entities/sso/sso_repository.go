package sso

import (
	"context"

	"github.com/google/uuid"
)

type ProviderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	// GetByTenantAndType resolves the provider configuration for a tenant,
	// falling back to the system-wide (nil tenant) configuration.
	GetByTenantAndType(ctx context.Context, tenantID *uuid.UUID, providerType ProviderType) (*Provider, error)
	List(ctx context.Context) ([]*Provider, error)
	// Save upserts on the (tenant, provider type) key.
	Save(ctx context.Context, p *Provider) (*Provider, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type MappingRepository interface {
	GetByProviderAndExternalID(ctx context.Context, providerID uuid.UUID, externalID string) (*Mapping, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Mapping, error)
	// Create fails if the (provider, external id) pair is already bound to a
	// different principal; existing mappings are never re-pointed.
	Create(ctx context.Context, m *Mapping) (*Mapping, error)
	// RecordLogin sets last_login_at and increments the login counter by
	// exactly one in a single atomic statement.
	RecordLogin(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}
