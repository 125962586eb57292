package core

import (
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence"
	"github.com/meridian-hq/meridian/modules/core/presentation/controllers"
	"github.com/meridian-hq/meridian/modules/core/services"
	"github.com/meridian-hq/meridian/pkg/application"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Name() string {
	return "core"
}

func (m *Module) Register(app application.Application) error {
	tenantRepo := persistence.NewTenantRepository()
	userRepo := persistence.NewUserRepository()
	moduleRepo := persistence.NewModuleRepository()
	entitlementRepo := persistence.NewEntitlementRepository()
	providerRepo := persistence.NewSSOProviderRepository()
	mappingRepo := persistence.NewSSOMappingRepository()
	tokenRepo := persistence.NewVerificationTokenRepository()

	app.RegisterServices(
		services.NewTenantService(tenantRepo, app.EventPublisher()),
		services.NewUserService(userRepo, app.EventPublisher()),
		services.NewModuleService(moduleRepo),
		services.NewEntitlementService(moduleRepo, entitlementRepo, app.EventPublisher(), app.Logger()),
		services.NewSSOService(providerRepo, mappingRepo, userRepo, app.EventPublisher(), app.Logger()),
		services.NewVerificationService(tokenRepo, userRepo),
	)

	app.RegisterControllers(
		controllers.NewEntitlementsController(app),
		controllers.NewSSOController(app),
		controllers.NewVerificationController(app),
		controllers.NewWebSocketController(app),
	)
	return nil
}
