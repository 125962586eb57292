package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/meridian-hq/meridian/modules/core/services"
	"github.com/meridian-hq/meridian/pkg/application"
	"github.com/meridian-hq/meridian/pkg/composables"
	"github.com/meridian-hq/meridian/pkg/middleware"
)

// VerificationController issues and confirms email verification tokens.
type VerificationController struct {
	app      application.Application
	basePath string
}

func NewVerificationController(app application.Application) application.Controller {
	return &VerificationController{
		app:      app,
		basePath: "/core/api/verification",
	}
}

func (c *VerificationController) Key() string {
	return c.basePath
}

func (c *VerificationController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.RequireTenantFromHost(c.app))

	router.HandleFunc("/issue", c.issue).Methods(http.MethodPost)
	router.HandleFunc("/confirm", c.confirm).Methods(http.MethodPost)
}

func (c *VerificationController) service() *services.VerificationService {
	return c.app.Service(services.VerificationService{}).(*services.VerificationService)
}

func (c *VerificationController) issue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "INVALID_BODY", "malformed request body")
		return
	}
	userID, ok := parseUUID(body.UserID)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "INVALID_BODY", "user_id must be a valid uuid")
		return
	}

	t, err := c.service().Issue(r.Context(), userID)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to issue verification token")
		writeJSONError(w, http.StatusInternalServerError, "VERIFICATION_ERROR", "failed to issue verification token")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token":      t.Value(),
		"expires_at": t.ExpiresAt().Format(time.RFC3339),
	})
}

func (c *VerificationController) confirm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &body); err != nil || body.Token == "" {
		writeJSONError(w, http.StatusBadRequest, "INVALID_BODY", "token is required")
		return
	}

	u, err := c.service().Confirm(r.Context(), body.Token)
	if err != nil {
		if errors.Is(err, services.ErrTokenInvalid) {
			writeJSONError(w, http.StatusGone, "TOKEN_INVALID", err.Error())
			return
		}
		composables.UseLogger(r.Context()).WithError(err).Error("failed to confirm verification token")
		writeJSONError(w, http.StatusInternalServerError, "VERIFICATION_ERROR", "failed to confirm verification token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":        u.ID().String(),
		"email_verified": u.EmailVerified(),
	})
}
