package httpx

import (
	"net/http"
	"slices"
)

// RequireRole the caller's role claim must be one of roles. Use after
// AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, roleFromCtx(r.Context())) {
				w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
				WriteJSON(w, http.StatusForbidden, map[string]string{
					"error":             "insufficient_scope",
					"error_description": "the access token does not grant this operation",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
