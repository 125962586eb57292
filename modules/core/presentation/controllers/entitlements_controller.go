package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/entitlement"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence"
	"github.com/meridian-hq/meridian/modules/core/services"
	"github.com/meridian-hq/meridian/pkg/application"
	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/middleware"
)

type entitlementResponse struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	ModuleID        string     `json:"module_id"`
	Status          string     `json:"status"`
	EffectiveStatus string     `json:"effective_status"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func toEntitlementResponse(e *entitlement.Entitlement, now time.Time) entitlementResponse {
	return entitlementResponse{
		ID:              e.ID().String(),
		TenantID:        e.TenantID().String(),
		ModuleID:        e.ModuleID().String(),
		Status:          string(e.Status()),
		EffectiveStatus: string(e.EffectiveStatus(now)),
		ExpiresAt:       e.ExpiresAt(),
		CreatedAt:       e.CreatedAt(),
		UpdatedAt:       e.UpdatedAt(),
	}
}

// EntitlementsController exposes the module activation admin API for the
// tenant bound to the request.
type EntitlementsController struct {
	app      application.Application
	basePath string
}

func NewEntitlementsController(app application.Application) application.Controller {
	return &EntitlementsController{
		app:      app,
		basePath: "/core/api/entitlements",
	}
}

func (c *EntitlementsController) Key() string {
	return c.basePath
}

func (c *EntitlementsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireTenantFromHost(c.app))

	router.HandleFunc("", c.list).Methods(http.MethodGet)
	router.HandleFunc("/check", c.check).Methods(http.MethodGet)
	router.HandleFunc("/{module}/grant", c.grant).Methods(http.MethodPost)
	router.HandleFunc("/{module}/trial", c.startTrial).Methods(http.MethodPost)
	router.HandleFunc("/{module}/suspend", c.suspend).Methods(http.MethodPost)
	router.HandleFunc("/{module}", c.revoke).Methods(http.MethodDelete)
}

func (c *EntitlementsController) evaluator() *services.EntitlementService {
	return c.app.Service(services.EntitlementService{}).(*services.EntitlementService)
}

func (c *EntitlementsController) modules() *services.ModuleService {
	return c.app.Service(services.ModuleService{}).(*services.ModuleService)
}

func (c *EntitlementsController) list(w http.ResponseWriter, r *http.Request) {
	tenantID, err := composables.UseTenantID(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "NO_TENANT", string(services.DenyNoTenant))
		return
	}

	entitlements, err := c.evaluator().ListForTenant(r.Context(), tenantID)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to list entitlements")
		writeJSONError(w, http.StatusInternalServerError, "ENTITLEMENTS_ERROR", "failed to list entitlements")
		return
	}

	now := time.Now()
	data := make([]entitlementResponse, 0, len(entitlements))
	for _, e := range entitlements {
		data = append(data, toEntitlementResponse(e, now))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

func (c *EntitlementsController) check(w http.ResponseWriter, r *http.Request) {
	capability := r.URL.Query().Get("capability")
	usr, err := composables.UseUser(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	decision := c.evaluator().Check(r.Context(), usr, capability)
	writeJSON(w, http.StatusOK, map[string]any{
		"allowed": decision.Allowed,
		"reason":  string(decision.Reason),
	})
}

// moduleFromPath resolves the {module} path segment against the catalog.
func (c *EntitlementsController) moduleFromPath(w http.ResponseWriter, r *http.Request) (moduleID, tenantID uuid.UUID, ok bool) {
	tid, err := composables.UseTenantID(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "NO_TENANT", string(services.DenyNoTenant))
		return uuid.Nil, uuid.Nil, false
	}

	code := mux.Vars(r)["module"]
	m, err := c.modules().GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, persistence.ErrModuleNotFound) {
			writeJSONError(w, http.StatusNotFound, "MODULE_NOT_FOUND", string(services.DenyUnknownCapability))
			return uuid.Nil, uuid.Nil, false
		}
		composables.UseLogger(r.Context()).WithError(err).Error("failed to resolve module")
		writeJSONError(w, http.StatusInternalServerError, "MODULE_ERROR", "failed to resolve module")
		return uuid.Nil, uuid.Nil, false
	}
	return m.ID(), tid, true
}

func (c *EntitlementsController) grant(w http.ResponseWriter, r *http.Request) {
	moduleID, tenantID, ok := c.moduleFromPath(w, r)
	if !ok {
		return
	}
	e, err := c.evaluator().Grant(r.Context(), tenantID, moduleID)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to grant entitlement")
		writeJSONError(w, http.StatusInternalServerError, "ENTITLEMENT_ERROR", "failed to grant entitlement")
		return
	}
	writeJSON(w, http.StatusOK, toEntitlementResponse(e, time.Now()))
}

func (c *EntitlementsController) startTrial(w http.ResponseWriter, r *http.Request) {
	moduleID, tenantID, ok := c.moduleFromPath(w, r)
	if !ok {
		return
	}

	var body struct {
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := decodeJSON(r, &body); err != nil || body.ExpiresAt.IsZero() {
		writeJSONError(w, http.StatusBadRequest, "INVALID_BODY", "expires_at is required")
		return
	}

	e, err := c.evaluator().StartTrial(r.Context(), tenantID, moduleID, body.ExpiresAt)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to start trial")
		writeJSONError(w, http.StatusInternalServerError, "ENTITLEMENT_ERROR", "failed to start trial")
		return
	}
	writeJSON(w, http.StatusOK, toEntitlementResponse(e, time.Now()))
}

func (c *EntitlementsController) suspend(w http.ResponseWriter, r *http.Request) {
	moduleID, tenantID, ok := c.moduleFromPath(w, r)
	if !ok {
		return
	}
	e, err := c.evaluator().Suspend(r.Context(), tenantID, moduleID)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to suspend entitlement")
		writeJSONError(w, http.StatusInternalServerError, "ENTITLEMENT_ERROR", "failed to suspend entitlement")
		return
	}
	writeJSON(w, http.StatusOK, toEntitlementResponse(e, time.Now()))
}

func (c *EntitlementsController) revoke(w http.ResponseWriter, r *http.Request) {
	moduleID, tenantID, ok := c.moduleFromPath(w, r)
	if !ok {
		return
	}
	if err := c.evaluator().Revoke(r.Context(), tenantID, moduleID); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to revoke entitlement")
		writeJSONError(w, http.StatusInternalServerError, "ENTITLEMENT_ERROR", "failed to revoke entitlement")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
