package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/appmodule"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/entitlement"
	"github.com/meridian-hq/meridian/modules/core/domain/entities/tenant"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence"
	"github.com/meridian-hq/meridian/modules/core/services"
	"github.com/meridian-hq/meridian/pkg/application"
	"github.com/meridian-hq/meridian/pkg/constants"
	"github.com/meridian-hq/meridian/pkg/eventbus"
)

// hostTenantRepo recognizes exactly one tenant by its domain.
type hostTenantRepo struct {
	t *tenant.Tenant
}

func (r hostTenantRepo) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	if r.t.ID() == id {
		return r.t, nil
	}
	return nil, persistence.ErrTenantNotFound
}

func (r hostTenantRepo) GetByDomain(_ context.Context, domain string) (*tenant.Tenant, error) {
	if r.t.Domain() == domain {
		return r.t, nil
	}
	return nil, persistence.ErrTenantNotFound
}

func (r hostTenantRepo) GetBySlug(_ context.Context, slug string) (*tenant.Tenant, error) {
	if r.t.Slug() == slug {
		return r.t, nil
	}
	return nil, persistence.ErrTenantNotFound
}

func (r hostTenantRepo) List(_ context.Context) ([]*tenant.Tenant, error) {
	return []*tenant.Tenant{r.t}, nil
}

func (r hostTenantRepo) Create(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	return t, nil
}

func (r hostTenantRepo) Update(_ context.Context, t *tenant.Tenant) (*tenant.Tenant, error) {
	return t, nil
}

func (r hostTenantRepo) Delete(context.Context, uuid.UUID) error {
	return nil
}

type catalogStub struct {
	modules []*appmodule.Module
}

func (r catalogStub) GetByID(_ context.Context, id uuid.UUID) (*appmodule.Module, error) {
	for _, m := range r.modules {
		if m.ID() == id {
			return m, nil
		}
	}
	return nil, persistence.ErrModuleNotFound
}

func (r catalogStub) GetByCode(_ context.Context, code string) (*appmodule.Module, error) {
	for _, m := range r.modules {
		if m.Code() == code {
			return m, nil
		}
	}
	return nil, persistence.ErrModuleNotFound
}

func (r catalogStub) List(_ context.Context) ([]*appmodule.Module, error) {
	return r.modules, nil
}

func (r catalogStub) Create(_ context.Context, m *appmodule.Module) (*appmodule.Module, error) {
	return m, nil
}

func (r catalogStub) Update(_ context.Context, m *appmodule.Module) (*appmodule.Module, error) {
	return m, nil
}

func (r catalogStub) Delete(context.Context, uuid.UUID) error {
	return nil
}

type entitlementStub struct{}

func (entitlementStub) GetByTenantAndModule(context.Context, uuid.UUID, uuid.UUID) (*entitlement.Entitlement, error) {
	return nil, persistence.ErrEntitlementNotFound
}

func (entitlementStub) ListForTenant(context.Context, uuid.UUID) ([]*entitlement.Entitlement, error) {
	return nil, nil
}

func (entitlementStub) Save(_ context.Context, e *entitlement.Entitlement) (*entitlement.Entitlement, error) {
	return e, nil
}

func (entitlementStub) Delete(context.Context, uuid.UUID) error {
	return nil
}

func newControllerTestApp(t *testing.T, tn *tenant.Tenant, mods ...*appmodule.Module) application.Application {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	app.RegisterServices(
		services.NewTenantService(hostTenantRepo{tn}, app.EventPublisher()),
		services.NewModuleService(catalogStub{modules: mods}),
		services.NewEntitlementService(catalogStub{modules: mods}, entitlementStub{}, app.EventPublisher(), logger),
	)
	return app
}

func silentRequestContext() context.Context {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return context.WithValue(context.Background(), constants.LoggerKey, logrus.NewEntry(logger))
}

func TestEntitlementsBoundToRequestHost(t *testing.T) {
	tn := tenant.New("Acme", tenant.WithDomain("shop.acme.com"))
	router := mux.NewRouter()
	NewEntitlementsController(newControllerTestApp(t, tn)).Register(router)

	req := httptest.NewRequest(http.MethodGet, "http://shop.acme.com/core/api/entitlements", nil).
		WithContext(silentRequestContext())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string][]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Empty(t, body["data"])
}

func TestEntitlementsUnknownHostIsNotFound(t *testing.T) {
	tn := tenant.New("Acme", tenant.WithDomain("shop.acme.com"))
	router := mux.NewRouter()
	NewEntitlementsController(newControllerTestApp(t, tn)).Register(router)

	req := httptest.NewRequest(http.MethodGet, "http://unknown.example.com/core/api/entitlements", nil).
		WithContext(silentRequestContext())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEntitlementsDeactivatedTenantIsNotFound(t *testing.T) {
	tn := tenant.New("Acme", tenant.WithDomain("shop.acme.com"), tenant.WithIsActive(false))
	router := mux.NewRouter()
	NewEntitlementsController(newControllerTestApp(t, tn)).Register(router)

	req := httptest.NewRequest(http.MethodGet, "http://shop.acme.com/core/api/entitlements", nil).
		WithContext(silentRequestContext())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
