package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/meridian-hq/meridian/modules/core/domain/entities/sso"
	"github.com/meridian-hq/meridian/modules/core/infrastructure/persistence"
	"github.com/meridian-hq/meridian/modules/core/services"
	"github.com/meridian-hq/meridian/pkg/application"
	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/middleware"
)

type providerResponse struct {
	ID          string    `json:"id"`
	TenantID    *string   `json:"tenant_id,omitempty"`
	Type        string    `json:"type"`
	ClientID    string    `json:"client_id"`
	RedirectURL string    `json:"redirect_url,omitempty"`
	MetadataURL string    `json:"metadata_url,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProviderResponse(p *sso.Provider) providerResponse {
	resp := providerResponse{
		ID:          p.ID().String(),
		Type:        string(p.Type()),
		ClientID:    p.ClientID(),
		RedirectURL: p.RedirectURL(),
		MetadataURL: p.MetadataURL(),
		Enabled:     p.IsEnabled(),
		CreatedAt:   p.CreatedAt(),
	}
	if tid := p.TenantID(); tid != nil {
		s := tid.String()
		resp.TenantID = &s
	}
	return resp
}

type mappingResponse struct {
	ID          string     `json:"id"`
	ProviderID  string     `json:"provider_id"`
	UserID      string     `json:"user_id"`
	ExternalID  string     `json:"external_id"`
	LoginCount  int64      `json:"login_count"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func toMappingResponse(m *sso.Mapping) mappingResponse {
	return mappingResponse{
		ID:          m.ID().String(),
		ProviderID:  m.ProviderID().String(),
		UserID:      m.UserID().String(),
		ExternalID:  m.ExternalID(),
		LoginCount:  m.LoginCount(),
		LastLoginAt: m.LastLoginAt(),
	}
}

// SSOController administers identity provider configs and external identity
// links for the tenant bound to the request.
type SSOController struct {
	app      application.Application
	basePath string
}

func NewSSOController(app application.Application) application.Controller {
	return &SSOController{
		app:      app,
		basePath: "/core/api/sso",
	}
}

func (c *SSOController) Key() string {
	return c.basePath
}

// Register binds the subtree to the request host's tenant and gates it on
// the sso module entitlement.
func (c *SSOController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(
		middleware.RequireTenantFromHost(c.app),
		middleware.RequireModule(c.app, "sso"),
	)

	router.HandleFunc("/providers/{type}", c.getProvider).Methods(http.MethodGet)
	router.HandleFunc("/providers", c.saveProvider).Methods(http.MethodPut)
	router.HandleFunc("/mappings", c.link).Methods(http.MethodPost)
	router.HandleFunc("/users/{id}/mappings", c.listMappings).Methods(http.MethodGet)
}

func (c *SSOController) service() *services.SSOService {
	return c.app.Service(services.SSOService{}).(*services.SSOService)
}

// tenantScope returns the request tenant, or nil when the caller operates in
// the system scope.
func tenantScope(r *http.Request) *uuid.UUID {
	if tid, err := composables.UseTenantID(r.Context()); err == nil {
		return &tid
	}
	return nil
}

func (c *SSOController) getProvider(w http.ResponseWriter, r *http.Request) {
	providerType, err := sso.NewProviderType(mux.Vars(r)["type"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "INVALID_PROVIDER_TYPE", err.Error())
		return
	}

	p, err := c.service().GetProvider(r.Context(), tenantScope(r), providerType)
	if err != nil {
		if errors.Is(err, persistence.ErrSSOProviderNotFound) {
			writeJSONError(w, http.StatusNotFound, "PROVIDER_NOT_FOUND", "no provider configured")
			return
		}
		composables.UseLogger(r.Context()).WithError(err).Error("failed to get sso provider")
		writeJSONError(w, http.StatusInternalServerError, "SSO_ERROR", "failed to get provider")
		return
	}
	writeJSON(w, http.StatusOK, toProviderResponse(p))
}

func (c *SSOController) saveProvider(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type         string `json:"type"`
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
		RedirectURL  string `json:"redirect_url"`
		MetadataURL  string `json:"metadata_url"`
		Enabled      bool   `json:"enabled"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}
	providerType, err := sso.NewProviderType(body.Type)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "INVALID_PROVIDER_TYPE", err.Error())
		return
	}

	opts := []sso.ProviderOption{
		sso.WithCredentials(body.ClientID, body.ClientSecret),
		sso.WithRedirectURL(body.RedirectURL),
		sso.WithMetadataURL(body.MetadataURL),
		sso.WithIsEnabled(body.Enabled),
		sso.WithTenantID(tenantScope(r)),
	}
	p := sso.NewProvider(providerType, opts...)

	saved, err := c.service().SaveProvider(r.Context(), p)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to save sso provider")
		writeJSONError(w, http.StatusInternalServerError, "SSO_ERROR", "failed to save provider")
		return
	}
	writeJSON(w, http.StatusOK, toProviderResponse(saved))
}

func (c *SSOController) link(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProviderID string         `json:"provider_id"`
		UserID     string         `json:"user_id"`
		ExternalID string         `json:"external_id"`
		Attributes map[string]any `json:"attributes"`
	}
	if err := decodeJSON(r, &body); err != nil || body.ExternalID == "" {
		writeJSONError(w, http.StatusBadRequest, "INVALID_BODY", "provider_id, user_id and external_id are required")
		return
	}
	providerID, ok := parseUUID(body.ProviderID)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "INVALID_BODY", "provider_id must be a valid uuid")
		return
	}
	userID, ok := parseUUID(body.UserID)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "INVALID_BODY", "user_id must be a valid uuid")
		return
	}

	m, err := c.service().Link(r.Context(), providerID, userID, body.ExternalID, body.Attributes)
	if err != nil {
		if errors.Is(err, persistence.ErrSSOMappingConflict) {
			writeJSONError(w, http.StatusConflict, "MAPPING_CONFLICT", "external identity already linked to another account")
			return
		}
		composables.UseLogger(r.Context()).WithError(err).Error("failed to link external identity")
		writeJSONError(w, http.StatusInternalServerError, "SSO_ERROR", "failed to link external identity")
		return
	}
	writeJSON(w, http.StatusCreated, toMappingResponse(m))
}

func (c *SSOController) listMappings(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUID(mux.Vars(r)["id"])
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "INVALID_USER_ID", "id must be a valid uuid")
		return
	}

	mappings, err := c.service().Mappings(r.Context(), userID)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to list sso mappings")
		writeJSONError(w, http.StatusInternalServerError, "SSO_ERROR", "failed to list mappings")
		return
	}
	data := make([]mappingResponse, 0, len(mappings))
	for _, m := range mappings {
		data = append(data, toMappingResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}
