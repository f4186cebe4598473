package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/growplate/internal/domain"
)

type FeatureSet struct {
	Features map[string]bool `json:"features"`
}

type FeatureState struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
}

type GetFeatureInput struct {
	Key string `path:"key" maxLength:"64" doc:"Feature key"`
}

type UpdateFeaturesInput struct {
	Body struct {
		Features map[string]bool `json:"features" doc:"Flags to set, by key"`
	}
}

// RegisterFeatureRoutes registers the public feature flag reads.
func RegisterFeatureRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-features",
		Method:      http.MethodGet,
		Path:        "/features",
		Summary:     "List the tenant's effective feature flags",
		Tags:        []string{"Features"},
	}, func(ctx context.Context, _ *struct{}) (*Output[FeatureSet], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}
		return ok(FeatureSet{Features: domain.EffectiveFeatures(t.Features)}), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-feature",
		Method:      http.MethodGet,
		Path:        "/features/{key}",
		Summary:     "Get one feature flag",
		Tags:        []string{"Features"},
	}, func(ctx context.Context, input *GetFeatureInput) (*Output[FeatureState], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}
		if !domain.IsKnownFeature(input.Key) {
			return nil, huma.Error404NotFound("unknown feature: " + input.Key)
		}
		return ok(FeatureState{Key: input.Key, Enabled: t.FeatureEnabled(input.Key)}), nil
	})
}

// RegisterFeatureAdminRoutes registers owner-only flag updates.
func RegisterFeatureAdminRoutes(api huma.API, store DataStore, cache TenantCache, rec EventRecorder) {
	huma.Register(api, huma.Operation{
		OperationID: "update-features",
		Method:      http.MethodPut,
		Path:        "/features",
		Summary:     "Set feature flags",
		Tags:        []string{"Features"},
	}, func(ctx context.Context, input *UpdateFeaturesInput) (*Output[FeatureSet], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		if err := domain.ValidateFeatureUpdate(input.Body.Features); err != nil {
			return nil, apiError(err, "feature")
		}

		if err := store.Features().Set(ctx, t.ID, input.Body.Features); err != nil {
			return nil, apiError(err, "feature")
		}

		flags, err := store.Features().List(ctx, t.ID)
		if err != nil {
			return nil, apiError(err, "feature")
		}

		if err := cache.Invalidate(ctx, t); err != nil {
			log.Warn().Err(err).Str("tenant_id", t.ID.String()).Msg("tenant cache invalidation failed")
		}

		rec.Record(ctx, domain.Event{
			Type:     domain.EventFeatureUpdated,
			TenantID: t.ID,
			ActorID:  actorID(ctx),
			Data:     input.Body.Features,
		})

		return okMsg(FeatureSet{Features: flags}, "features updated"), nil
	})
}
