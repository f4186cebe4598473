package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tenant is a restaurant account. It answers to <Subdomain>.<base domain>
// and, when set, to its custom Domain.
type Tenant struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Domain    string          `json:"domain,omitempty"`
	Subdomain string          `json:"subdomain"`
	Settings  json.RawMessage `json:"settings"`
	Features  map[string]bool `json:"features"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Hostnames returns every normalized hostname the tenant is reachable on.
func (t *Tenant) Hostnames(baseDomain string) []string {
	hosts := []string{t.Subdomain + "." + baseDomain}
	if t.Domain != "" {
		hosts = append(hosts, t.Domain, "www."+t.Domain)
	}
	return hosts
}

// FeatureEnabled reports the effective value of a feature flag. Unknown
// keys are disabled.
func (t *Tenant) FeatureEnabled(key string) bool {
	if v, ok := t.Features[key]; ok {
		return v
	}
	return DefaultFeatures()[key]
}

type TenantRepository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	List(ctx context.Context) ([]*Tenant, error)
}
