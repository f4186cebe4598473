package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/growplate/internal/domain"
)

// DashboardStats summarizes a tenant's menu for the admin dashboard.
type DashboardStats struct {
	Categories struct {
		Total  int64 `json:"total"`
		Active int64 `json:"active"`
	} `json:"categories"`
	Items struct {
		Total     int64 `json:"total"`
		Available int64 `json:"available"`
	} `json:"items"`
	EnabledFeatures []string `json:"enabled_features"`
}

// RegisterDashboardRoutes registers the dashboard summary. The caller gates
// it on the analytics_dashboard feature and the manager role.
func RegisterDashboardRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Menu and feature summary",
		Tags:        []string{"Dashboard"},
	}, func(ctx context.Context, _ *struct{}) (*Output[DashboardStats], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		var stats DashboardStats
		counts := []struct {
			dst *int64
			fn  func() (int64, error)
		}{
			{&stats.Categories.Total, func() (int64, error) {
				return store.Categories().Count(ctx, t.ID, domain.CategoryFilter{})
			}},
			{&stats.Categories.Active, func() (int64, error) {
				return store.Categories().Count(ctx, t.ID, domain.CategoryFilter{ActiveOnly: true})
			}},
			{&stats.Items.Total, func() (int64, error) {
				return store.Items().Count(ctx, t.ID, domain.ItemFilter{})
			}},
			{&stats.Items.Available, func() (int64, error) {
				return store.Items().Count(ctx, t.ID, domain.ItemFilter{AvailableOnly: true})
			}},
		}
		for _, c := range counts {
			n, err := c.fn()
			if err != nil {
				return nil, apiError(err, "dashboard")
			}
			*c.dst = n
		}

		stats.EnabledFeatures = []string{}
		for _, key := range domain.FeatureKeys() {
			if t.FeatureEnabled(key) {
				stats.EnabledFeatures = append(stats.EnabledFeatures, key)
			}
		}

		return ok(stats), nil
	})
}
