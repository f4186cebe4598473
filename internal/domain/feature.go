package domain

import (
	"context"
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Feature flag keys.
const (
	FeatureOnlineOrdering     = "online_ordering"
	FeatureMenuSearch         = "menu_search"
	FeatureLoyaltyProgram     = "loyalty_program"
	FeatureTableReservations  = "table_reservations"
	FeatureAnalyticsDashboard = "analytics_dashboard"
)

var defaultFeatures = map[string]bool{
	FeatureOnlineOrdering:     false,
	FeatureMenuSearch:         true,
	FeatureLoyaltyProgram:     false,
	FeatureTableReservations:  false,
	FeatureAnalyticsDashboard: true,
}

// DefaultFeatures returns a fresh copy of the platform defaults.
func DefaultFeatures() map[string]bool {
	return maps.Clone(defaultFeatures)
}

// IsKnownFeature reports whether key names a supported flag.
func IsKnownFeature(key string) bool {
	_, ok := defaultFeatures[key]
	return ok
}

// FeatureKeys returns the supported flag keys in sorted order.
func FeatureKeys() []string {
	return slices.Sorted(maps.Keys(defaultFeatures))
}

// EffectiveFeatures overlays per-tenant overrides on the defaults.
// Overrides for unknown keys are dropped.
func EffectiveFeatures(overrides map[string]bool) map[string]bool {
	out := DefaultFeatures()
	for k, v := range overrides {
		if IsKnownFeature(k) {
			out[k] = v
		}
	}
	return out
}

// ValidateFeatureUpdate rejects empty updates and unknown keys.
func ValidateFeatureUpdate(update map[string]bool) error {
	if len(update) == 0 {
		return Invalidf("at least one feature is required")
	}
	for _, k := range slices.Sorted(maps.Keys(update)) {
		if !IsKnownFeature(k) {
			return Invalidf("unknown feature %q", k)
		}
	}
	return nil
}

type FeatureRepository interface {
	List(ctx context.Context, tenantID uuid.UUID) (map[string]bool, error)
	Set(ctx context.Context, tenantID uuid.UUID, flags map[string]bool) error
}
