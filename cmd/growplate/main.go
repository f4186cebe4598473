package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/growplate/internal/analytics"
	"github.com/gosuda/growplate/internal/auth"
	"github.com/gosuda/growplate/internal/config"
	"github.com/gosuda/growplate/internal/observability"
	"github.com/gosuda/growplate/internal/server"
	"github.com/gosuda/growplate/internal/store/postgres"
	redisstore "github.com/gosuda/growplate/internal/store/redis"
	"github.com/gosuda/growplate/internal/tenancy"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	setupLogger()

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	tracing, err := observability.Setup(ctx, observability.Config{
		Enabled:      cfg.Telemetry.Enabled,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return err
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
	}

	// Connect to Redis. It backs the tenant cache and the event stream.
	rdb, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	resolver := tenancy.NewResolver(rdb, store.Tenants(), tenancy.Options{
		Namespace:    cfg.Cache.Namespace,
		BaseDomain:   cfg.Tenancy.BaseDomain,
		DevSubdomain: cfg.Tenancy.DevSubdomain,
		TTL:          cfg.Cache.TenantTTL,
	})

	authSvc := auth.NewService(store.Users(), cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	recorder := analytics.NewRecorder(rdb, cfg.Cache.Namespace)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, server.Deps{
		Store:    store,
		Resolver: resolver,
		Auth:     authSvc,
		Events:   recorder,
		Stream:   rdb,
	})

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("base_domain", cfg.Tenancy.BaseDomain).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}
	if traceErr := tracing.Shutdown(shutdownCtx); traceErr != nil {
		log.Warn().Err(traceErr).Msg("flushing traces")
	}

	log.Info().Msg("stopped")
	return nil
}

// setupLogger configures the global zerolog logger from GROWPLATE_LOG_LEVEL
// and GROWPLATE_LOG_FORMAT.
func setupLogger() {
	level, err := zerolog.ParseLevel(os.Getenv("GROWPLATE_LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("GROWPLATE_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
