package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/growplate/internal/auth"
	"github.com/gosuda/growplate/internal/domain"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Tenants() domain.TenantRepository
	Features() domain.FeatureRepository
	Categories() domain.CategoryRepository
	Items() domain.MenuItemRepository
}

// AuthService abstracts staff authentication for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Login(ctx context.Context, tenantID uuid.UUID, email, password string) (*auth.Tokens, error)
	RefreshToken(ctx context.Context, tenantID uuid.UUID, refreshToken string) (string, error)
	CreateUser(ctx context.Context, tenantID uuid.UUID, email, password, name, role string) (*domain.User, error)
}

// TenantCache drops cached tenant lookups after a tenant changes.
// *tenancy.Resolver satisfies this interface.
type TenantCache interface {
	Invalidate(ctx context.Context, t *domain.Tenant) error
}

// EventRecorder receives an event for every successful write.
// *analytics.Recorder satisfies this interface.
type EventRecorder interface {
	Record(ctx context.Context, ev domain.Event)
}
