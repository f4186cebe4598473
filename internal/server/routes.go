package server

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/growplate/internal/api/v1"
	"github.com/gosuda/growplate/internal/api/ws"
	"github.com/gosuda/growplate/internal/domain"
	"github.com/gosuda/growplate/internal/server/middleware"
)

// Credential endpoints get a per-IP bucket on top of the tenant one.
const (
	loginRPS   = 1
	loginBurst = 10
)

// newDoc builds the OpenAPI document shared by every route group.
func newDoc() *huma.OpenAPI {
	return huma.DefaultConfig("GrowPlate API", "1.0.0").OpenAPI
}

// newAPI mounts a huma API on one route group. Each group carries its own
// middleware, so operations are registered per group. All groups write into
// doc; only the public group serves it along with the docs page.
func newAPI(r chi.Router, doc *huma.OpenAPI, withDocs bool) huma.API {
	cfg := huma.DefaultConfig("GrowPlate API", "1.0.0")
	cfg.OpenAPI = doc
	cfg.Servers = []*huma.Server{{URL: "/api/v1"}}
	cfg.CreateHooks = nil
	if !withDocs {
		cfg.OpenAPIPath = ""
		cfg.DocsPath = ""
		cfg.SchemasPath = ""
	}
	return humachi.New(r, cfg)
}

func registerAPIRoutes(ctx context.Context, r chi.Router, deps Deps, baseDomain string) {
	doc := newDoc()

	// Public reads.
	r.Group(func(r chi.Router) {
		api := newAPI(r, doc, true)
		v1.RegisterTenantRoutes(api)
		v1.RegisterFeatureRoutes(api)
		v1.RegisterCategoryRoutes(api, deps.Store)
		v1.RegisterItemRoutes(api, deps.Store)
	})

	// Login and refresh.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, loginRPS, loginBurst))
		v1.RegisterAuthRoutes(newAPI(r, doc, false), deps.Auth)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireFeature(domain.FeatureMenuSearch))
		v1.RegisterSearchRoutes(newAPI(r, doc, false), deps.Store)
	})

	// Menu management.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.Auth))
		r.Use(middleware.RequireManager())
		api := newAPI(r, doc, false)
		v1.RegisterCategoryAdminRoutes(api, deps.Store, deps.Events)
		v1.RegisterItemAdminRoutes(api, deps.Store, deps.Events)
	})

	// Owner settings.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.Auth))
		r.Use(middleware.RequireOwner())
		api := newAPI(r, doc, false)
		v1.RegisterTenantAdminRoutes(api, deps.Store, deps.Resolver, deps.Events, baseDomain)
		v1.RegisterFeatureAdminRoutes(api, deps.Store, deps.Resolver, deps.Events)
		v1.RegisterUserRoutes(api, deps.Auth, deps.Events)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.Auth))
		r.Use(middleware.RequireManager())
		r.Use(middleware.RequireFeature(domain.FeatureAnalyticsDashboard))
		v1.RegisterDashboardRoutes(newAPI(r, doc, false), deps.Store)
	})
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/events", hub.ServeEvents)
}
