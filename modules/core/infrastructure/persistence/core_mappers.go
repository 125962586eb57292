package persistence

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/modules/core/domain/aggregates/user"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/appmodule"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/entitlement"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/sso"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/tenant"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/verification"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence/models"
	"github.com/meridian-hq/meridian/pkg/mapping"
)

func toDomainTenant(t *models.Tenant) (*tenant.Tenant, error) {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return nil, err
	}
	return tenant.New(
		t.Name,
		tenant.WithID(id),
		tenant.WithSlug(t.Slug),
		tenant.WithDomain(mapping.SQLNullStringToValue(t.Domain)),
		tenant.WithIsActive(t.IsActive),
		tenant.WithCreatedAt(t.CreatedAt),
		tenant.WithUpdatedAt(t.UpdatedAt),
	), nil
}

func toDomainUser(u *models.User) (user.User, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, err
	}
	role, err := user.NewRole(u.Role)
	if err != nil {
		return nil, err
	}
	tenantID := uuid.Nil
	if u.TenantID.Valid {
		tenantID, err = uuid.Parse(u.TenantID.String)
		if err != nil {
			return nil, err
		}
	}
	return user.New(
		u.Email,
		user.WithID(id),
		user.WithTenantID(tenantID),
		user.WithRole(role),
		user.WithDisplayName(mapping.SQLNullStringToValue(u.DisplayName)),
		user.WithPasswordDigest(mapping.SQLNullStringToValue(u.PasswordDigest)),
		user.WithEmailVerified(u.EmailVerified),
		user.WithLastLoginAt(mapping.SQLNullTimeToPointer(u.LastLoginAt)),
		user.WithCreatedAt(u.CreatedAt),
		user.WithUpdatedAt(u.UpdatedAt),
	), nil
}

func toDomainModule(m *models.Module) (*appmodule.Module, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	return appmodule.New(
		m.Code,
		m.Name,
		appmodule.WithID(id),
		appmodule.WithCreatedAt(m.CreatedAt),
		appmodule.WithUpdatedAt(m.UpdatedAt),
	), nil
}

func toDomainEntitlement(e *models.Entitlement) (*entitlement.Entitlement, error) {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := uuid.Parse(e.TenantID)
	if err != nil {
		return nil, err
	}
	moduleID, err := uuid.Parse(e.ModuleID)
	if err != nil {
		return nil, err
	}
	status, err := entitlement.NewStatus(e.Status)
	if err != nil {
		return nil, err
	}
	return entitlement.New(
		tenantID,
		moduleID,
		entitlement.WithID(id),
		entitlement.WithStatus(status),
		entitlement.WithExpiresAt(mapping.SQLNullTimeToPointer(e.ExpiresAt)),
		entitlement.WithCreatedAt(e.CreatedAt),
		entitlement.WithUpdatedAt(e.UpdatedAt),
	), nil
}

func toDomainSSOProvider(p *models.SSOProvider) (*sso.Provider, error) {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, err
	}
	providerType, err := sso.NewProviderType(p.ProviderType)
	if err != nil {
		return nil, err
	}
	var tenantID *uuid.UUID
	if p.TenantID.Valid {
		parsed, err := uuid.Parse(p.TenantID.String)
		if err != nil {
			return nil, err
		}
		tenantID = &parsed
	}
	return sso.NewProvider(
		providerType,
		sso.WithProviderID(id),
		sso.WithTenantID(tenantID),
		sso.WithCredentials(
			mapping.SQLNullStringToValue(p.ClientID),
			mapping.SQLNullStringToValue(p.ClientSecret),
		),
		sso.WithRedirectURL(mapping.SQLNullStringToValue(p.RedirectURL)),
		sso.WithMetadataURL(mapping.SQLNullStringToValue(p.MetadataURL)),
		sso.WithIsEnabled(p.IsEnabled),
		sso.WithProviderCreatedAt(p.CreatedAt),
		sso.WithProviderUpdatedAt(p.UpdatedAt),
	), nil
}

func toDomainSSOMapping(m *models.SSOUserMapping) (*sso.Mapping, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	providerID, err := uuid.Parse(m.ProviderID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(m.UserID)
	if err != nil {
		return nil, err
	}
	var attributes map[string]any
	if len(m.Attributes) > 0 {
		if err := json.Unmarshal(m.Attributes, &attributes); err != nil {
			return nil, err
		}
	}
	return sso.NewMapping(
		providerID,
		userID,
		m.ExternalID,
		sso.WithMappingID(id),
		sso.WithAttributes(attributes),
		sso.WithLoginCount(m.LoginCount),
		sso.WithLastLoginAt(mapping.SQLNullTimeToPointer(m.LastLoginAt)),
		sso.WithMappingCreatedAt(m.CreatedAt),
		sso.WithMappingUpdatedAt(m.UpdatedAt),
	), nil
}

func toDomainVerificationToken(t *models.EmailVerificationToken) (*verification.Token, error) {
	id, err := uuid.Parse(t.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(t.UserID)
	if err != nil {
		return nil, err
	}
	return verification.New(
		userID,
		verification.WithID(id),
		verification.WithValue(t.Token),
		verification.WithUsed(t.Used),
		verification.WithVerifiedAt(mapping.SQLNullTimeToPointer(t.VerifiedAt)),
		verification.WithCreatedAt(t.CreatedAt),
		verification.WithExpiresAt(t.ExpiresAt),
	)
}
