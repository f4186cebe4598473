package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/growplate/internal/domain"
	"github.com/gosuda/growplate/internal/tenancy"
)

// TenantProfile is the public view of a tenant.
type TenantProfile struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Subdomain string          `json:"subdomain"`
	Domain    string          `json:"domain,omitempty"`
	Settings  json.RawMessage `json:"settings"`
	Features  map[string]bool `json:"features"`
}

func newTenantProfile(t *domain.Tenant) TenantProfile {
	settings := t.Settings
	if len(settings) == 0 {
		settings = json.RawMessage(`{}`)
	}
	return TenantProfile{
		ID:        t.ID,
		Name:      t.Name,
		Subdomain: t.Subdomain,
		Domain:    t.Domain,
		Settings:  settings,
		Features:  domain.EffectiveFeatures(t.Features),
	}
}

type UpdateTenantInput struct {
	Body struct {
		Name     *string        `json:"name,omitempty" maxLength:"100" doc:"Restaurant name"`
		Domain   *string        `json:"domain,omitempty" maxLength:"253" doc:"Custom domain; empty string removes it"`
		Settings map[string]any `json:"settings,omitempty" doc:"Free-form tenant settings, replaced as a whole"`
	}
}

// RegisterTenantRoutes registers the public tenant profile.
func RegisterTenantRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-tenant",
		Method:      http.MethodGet,
		Path:        "/tenant",
		Summary:     "Get the tenant addressed by the request host",
		Tags:        []string{"Tenant"},
	}, func(ctx context.Context, _ *struct{}) (*Output[TenantProfile], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}
		return ok(newTenantProfile(t)), nil
	})
}

// RegisterTenantAdminRoutes registers owner-only tenant updates. baseDomain
// is the platform domain custom domains may not live under.
func RegisterTenantAdminRoutes(api huma.API, store DataStore, cache TenantCache, rec EventRecorder, baseDomain string) {
	huma.Register(api, huma.Operation{
		OperationID: "update-tenant",
		Method:      http.MethodPut,
		Path:        "/tenant",
		Summary:     "Update tenant name, custom domain or settings",
		Tags:        []string{"Tenant"},
	}, func(ctx context.Context, input *UpdateTenantInput) (*Output[TenantProfile], error) {
		current, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		// The resolved tenant may come from cache; update the stored row.
		t, err := store.Tenants().GetByID(ctx, current.ID)
		if err != nil {
			return nil, apiError(err, "tenant")
		}
		before := *t

		if err := applyTenantUpdate(t, input, baseDomain); err != nil {
			return nil, apiError(err, "tenant")
		}

		if err := store.Tenants().Update(ctx, t); err != nil {
			return nil, apiError(err, "tenant")
		}

		for _, stale := range []*domain.Tenant{&before, t} {
			if err := cache.Invalidate(ctx, stale); err != nil {
				log.Warn().Err(err).Str("tenant_id", t.ID.String()).Msg("tenant cache invalidation failed")
			}
		}

		rec.Record(ctx, domain.Event{
			Type:     domain.EventTenantUpdated,
			TenantID: t.ID,
			ActorID:  actorID(ctx),
			EntityID: t.ID,
			Data:     map[string]any{"name": t.Name, "domain": t.Domain},
		})

		return okMsg(newTenantProfile(t), "tenant updated"), nil
	})
}

func applyTenantUpdate(t *domain.Tenant, input *UpdateTenantInput, baseDomain string) error {
	if input.Body.Name != nil {
		name := strings.TrimSpace(*input.Body.Name)
		if name == "" || utf8.RuneCountInString(name) > domain.MaxNameLength {
			return domain.Invalidf("name must be 1 to %d characters", domain.MaxNameLength)
		}
		t.Name = name
	}

	if input.Body.Domain != nil {
		d := strings.TrimSpace(*input.Body.Domain)
		if d == "" {
			t.Domain = ""
		} else {
			normalized, err := tenancy.NormalizeDomain(d, baseDomain)
			if err != nil {
				return domain.Invalidf("domain must be a hostname outside %s", baseDomain)
			}
			t.Domain = normalized
		}
	}

	if input.Body.Settings != nil {
		raw, err := json.Marshal(input.Body.Settings)
		if err != nil {
			return domain.Invalidf("settings must be a JSON object")
		}
		t.Settings = raw
	}

	return nil
}
