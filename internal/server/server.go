package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	v1 "github.com/gosuda/growplate/internal/api/v1"
	"github.com/gosuda/growplate/internal/api/ws"
	"github.com/gosuda/growplate/internal/config"
	"github.com/gosuda/growplate/internal/domain"
	"github.com/gosuda/growplate/internal/observability"
	"github.com/gosuda/growplate/internal/server/middleware"
)

// TenantResolver resolves request hosts and drops cached tenants.
// *tenancy.Resolver satisfies this interface.
type TenantResolver interface {
	middleware.TenantResolver
	v1.TenantCache
}

// AuthService issues and validates staff tokens.
// *auth.Service satisfies this interface.
type AuthService interface {
	v1.AuthService
	middleware.TokenValidator
}

// Deps are the collaborators the HTTP surface is built on.
type Deps struct {
	Store    v1.DataStore
	Resolver TenantResolver
	Auth     AuthService
	Events   v1.EventRecorder
	Stream   ws.Subscriber
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes wired. ctx bounds the background
// work of the rate limiters.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Set before mounting so sub-routers inherit them.
	router.NotFound(middleware.NotFound)
	router.MethodNotAllowed(middleware.MethodNotAllowed)

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(observability.HTTPMiddleware)
	router.Use(middleware.RequestLogger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ResolveTenant(deps.Resolver))
		r.Use(middleware.RateLimit(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		registerAPIRoutes(ctx, r, deps, cfg.Tenancy.BaseDomain)
	})

	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.ResolveTenant(deps.Resolver))
		r.Use(middleware.AuthWebSocket(deps.Auth))
		r.Use(middleware.RequireManager())
		r.Use(middleware.RequireFeature(domain.FeatureAnalyticsDashboard))
		registerWSRoutes(r, ws.NewHub(deps.Stream, cfg.Cache.Namespace))
	})

	// Health check (no tenant).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
