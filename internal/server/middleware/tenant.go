package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gosuda/growplate/internal/domain"
	"github.com/gosuda/growplate/internal/tenancy"
)

// TenantResolver maps a request host to its tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, host string) (*domain.Tenant, error)
}

// ResolveTenant loads the tenant addressed by the request Host and stores it
// in the request context. Hosts that name no tenant get a 404 envelope.
func ResolveTenant(resolver TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, err := resolver.Resolve(r.Context(), r.Host)
			switch {
			case err == nil:
				noteTenant(r.Context(), t.Subdomain)
				trace.SpanFromContext(r.Context()).SetAttributes(
					attribute.String("tenant.id", t.ID.String()),
					attribute.String("tenant.subdomain", t.Subdomain),
				)
				next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), t)))
			case errors.Is(err, domain.ErrNotFound),
				errors.Is(err, tenancy.ErrNoTenantHost),
				errors.Is(err, tenancy.ErrInvalidHost):
				WriteError(w, http.StatusNotFound, "tenant not found")
			default:
				log.Error().Err(err).Str("host", r.Host).Msg("tenant resolution failed")
				WriteError(w, http.StatusInternalServerError, "internal server error")
			}
		})
	}
}
