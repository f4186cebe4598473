package middleware

import (
	"net/http"

	"github.com/gosuda/growplate/internal/domain"
)

// RequireRole returns middleware that checks if the authenticated user has one
// of the allowed roles. It must be chained after the Auth middleware, which
// stores the user role in the request context via ContextKeyUserRole.
//
// Returns 401 Unauthorized when no user is found in context. Returns 403
// Forbidden when the user role does not match any of the allowed roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok || role == "" {
				WriteError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if _, match := allowed[role]; !match {
				WriteError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwner is a convenience wrapper for RequireRole(domain.RoleOwner).
func RequireOwner() func(http.Handler) http.Handler {
	return RequireRole(domain.RoleOwner)
}

// RequireManager admits owners and managers.
func RequireManager() func(http.Handler) http.Handler {
	return RequireRole(domain.RoleOwner, domain.RoleManager)
}
