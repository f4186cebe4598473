package v1

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/growplate/internal/domain"
	"github.com/gosuda/growplate/internal/server/middleware"
)

// currentTenant returns the tenant ResolveTenant stored for the request.
func currentTenant(ctx context.Context) (*domain.Tenant, error) {
	t, ok := middleware.TenantFromContext(ctx)
	if !ok {
		return nil, huma.Error404NotFound("tenant not found")
	}
	return t, nil
}

// actorID returns the authenticated user, or uuid.Nil on public routes.
func actorID(ctx context.Context) uuid.UUID {
	id, _ := middleware.UserIDFromContext(ctx)
	return id
}
