package middleware

import "net/http"

// RequireFeature hides routes behind a tenant feature flag. A disabled
// feature answers 404 so its routes look absent. It must be chained after
// ResolveTenant.
func RequireFeature(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, ok := TenantFromContext(r.Context())
			if !ok || !t.FeatureEnabled(key) {
				WriteError(w, http.StatusNotFound, "feature not enabled: "+key)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
