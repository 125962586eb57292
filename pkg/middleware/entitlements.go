package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/meridian-hq/meridian/modules/core/services"
	"github.com/meridian-hq/meridian/pkg/application"
	"github.com/meridian-hq/meridian/pkg/composables"
)

// RequireModule gates a subtree behind a module capability. Denials answer
// 403 with the evaluator's reason; requests with no authenticated principal
// answer 401.
func RequireModule(app application.Application, capability string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			usr, err := composables.UseUser(r.Context())
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}

			evaluator := app.Service(services.EntitlementService{}).(*services.EntitlementService)
			decision := evaluator.Check(r.Context(), usr, capability)
			if !decision.Allowed {
				composables.UseLogger(r.Context()).WithFields(map[string]interface{}{
					"capability": capability,
					"reason":     string(decision.Reason),
				}).Warn("module access denied")
				writeJSONError(w, http.StatusForbidden, "MODULE_FORBIDDEN", string(decision.Reason))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}
