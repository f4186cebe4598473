package middleware

import (
	"net/http"
	"strings"

	"github.com/gosuda/growplate/internal/auth"
)

// TokenValidator parses access tokens.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// Auth authenticates staff by the access token in the Authorization header.
// It must be chained after ResolveTenant: a token issued for a different
// tenant than the one the host resolved to is rejected with 403.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return authenticate(validator, false)
}

// AuthWebSocket is Auth that also reads the token query parameter, since
// browsers cannot set headers on a WebSocket upgrade. Mount it only on
// upgrade routes.
func AuthWebSocket(validator TokenValidator) func(http.Handler) http.Handler {
	return authenticate(validator, true)
}

func authenticate(validator TokenValidator, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" && allowQuery {
				tok = r.URL.Query().Get("token")
			}
			if tok == "" {
				WriteError(w, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			claims, err := validator.ValidateAccessToken(tok)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			tokenTenant, userID, err := claims.IDs()
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			tenantID, ok := TenantIDFromContext(r.Context())
			if !ok || tenantID != tokenTenant {
				WriteError(w, http.StatusForbidden, "token does not belong to this tenant")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, claims.Role)))
		})
	}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
