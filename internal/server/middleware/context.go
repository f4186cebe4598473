package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/growplate/internal/domain"
)

type contextKey string

const (
	ContextKeyTenant   contextKey = "tenant"
	ContextKeyUserID   contextKey = "user_id"
	ContextKeyUserRole contextKey = "role"
)

// WithTenant stores the resolved tenant for the request.
func WithTenant(ctx context.Context, t *domain.Tenant) context.Context {
	return context.WithValue(ctx, ContextKeyTenant, t)
}

// WithUser stores the authenticated staff user and role.
func WithUser(ctx context.Context, userID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	return context.WithValue(ctx, ContextKeyUserRole, role)
}

func TenantFromContext(ctx context.Context) (*domain.Tenant, bool) {
	v, ok := ctx.Value(ContextKeyTenant).(*domain.Tenant)
	return v, ok && v != nil
}

func TenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	t, ok := TenantFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return t.ID, true
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	return v, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserRole).(string)
	return v, ok
}
