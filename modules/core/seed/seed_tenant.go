package seed

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/tenant"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence"
	"github.com/meridian-hq/meridian/pkg/configuration"
)

// DefaultTenantID is stable across environments so fixtures and local tools
// can reference it.
var DefaultTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

const defaultTenantDomain = "default.localhost"

func CreateDefaultTenant(ctx context.Context) error {
	conf := configuration.Use()
	logger := conf.Logger()
	tenantRepository := persistence.NewTenantRepository()

	defaultTenant := tenant.New(
		"Default",
		tenant.WithID(DefaultTenantID),
		tenant.WithDomain(defaultTenantDomain),
	)

	existing, err := tenantRepository.GetByID(ctx, DefaultTenantID)
	if err == nil && existing != nil {
		if conf.GoAppEnvironment != configuration.Production {
			current := strings.ToLower(strings.TrimSpace(existing.Domain()))
			if current != defaultTenantDomain {
				existing.SetDomain(defaultTenantDomain)
				if _, err := tenantRepository.Update(ctx, existing); err != nil {
					logger.Errorf("Failed to update default tenant domain: %v", err)
					return err
				}
				logger.Infof("Updated default tenant domain to %s", defaultTenantDomain)
			}
		}
		logger.Infof("Default tenant already exists")
		return nil
	}

	logger.Infof("Creating default tenant")
	if _, err := tenantRepository.Create(ctx, defaultTenant); err != nil {
		logger.Errorf("Failed to create default tenant: %v", err)
		return err
	}
	return nil
}
