package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Tenancy   TenancyConfig
	JWT       JWTConfig
	Server    ServerConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string //nolint:gosec // G117: DB connection config
	DBName      string
	SSLMode     string
	MaxConns    int
	AutoMigrate bool
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// CacheConfig controls tenant cache keys and lifetime.
type CacheConfig struct {
	Namespace string
	TenantTTL time.Duration
}

// TenancyConfig controls how request hosts map to tenants.
type TenancyConfig struct {
	BaseDomain   string
	DevSubdomain string
}

// JWTConfig holds JWT authentication settings.
type JWTConfig struct {
	Secret     string //nolint:gosec // G117: JWT signing secret config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// RateLimitConfig is the per-tenant token bucket.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// TelemetryConfig switches OpenTelemetry tracing on. The OTLP endpoint comes
// from the standard OTEL_EXPORTER_OTLP_* variables.
type TelemetryConfig struct {
	Enabled      bool
	SamplingRate float64
}

// Load reads configuration from environment variables, after loading a
// .env file from the working directory when one exists. Variables already
// set in the environment win over .env entries.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password) must be set explicitly.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	db, err := loadDatabase()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("GROWPLATE_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	tenantTTL, err := getEnvDuration("GROWPLATE_CACHE_TENANT_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("GROWPLATE_JWT_ACCESS_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	refreshTTL, err := getEnvDuration("GROWPLATE_JWT_REFRESH_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("GROWPLATE_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("GROWPLATE_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rps, err := getEnvFloat("GROWPLATE_RATE_LIMIT_RPS", 50)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	burst, err := getEnvInt("GROWPLATE_RATE_LIMIT_BURST", 100)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("GROWPLATE_CORS_ORIGINS", []string{"*"})

	otelEnabled, err := getEnvBool("GROWPLATE_OTEL_ENABLED", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sampling, err := getEnvFloat("GROWPLATE_OTEL_SAMPLING_RATE", 1)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Database: db,
		Redis: RedisConfig{
			Addr:     getEnv("GROWPLATE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("GROWPLATE_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			Namespace: getEnv("GROWPLATE_CACHE_NAMESPACE", "growplate"),
			TenantTTL: tenantTTL,
		},
		Tenancy: loadTenancy(),
		JWT: JWTConfig{
			Secret:     getEnv("GROWPLATE_JWT_SECRET", ""),
			AccessTTL:  accessTTL,
			RefreshTTL: refreshTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("GROWPLATE_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
		Telemetry: TelemetryConfig{
			Enabled:      otelEnabled,
			SamplingRate: sampling,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// LoadDatabase reads only the database and tenancy settings, for tools that
// work on the schema without serving traffic.
func LoadDatabase() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("config.LoadDatabase: %w", err)
	}

	db, err := loadDatabase()
	if err != nil {
		return nil, fmt.Errorf("config.LoadDatabase: %w", err)
	}

	cfg := &Config{Database: db, Tenancy: loadTenancy()}
	if err := cfg.validateStorage(); err != nil {
		return nil, fmt.Errorf("config.LoadDatabase: %w", err)
	}
	return cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf(".env: %w", err)
	}
	return nil
}

func loadDatabase() (DatabaseConfig, error) {
	port, err := getEnvInt("GROWPLATE_DB_PORT", 5432)
	if err != nil {
		return DatabaseConfig{}, err
	}

	maxConns, err := getEnvInt("GROWPLATE_DB_MAX_CONNS", 25)
	if err != nil {
		return DatabaseConfig{}, err
	}

	autoMigrate, err := getEnvBool("GROWPLATE_DB_AUTO_MIGRATE", false)
	if err != nil {
		return DatabaseConfig{}, err
	}

	return DatabaseConfig{
		Host:        getEnv("GROWPLATE_DB_HOST", "localhost"),
		Port:        port,
		User:        getEnv("GROWPLATE_DB_USER", "growplate"),
		Password:    getEnv("GROWPLATE_DB_PASSWORD", ""),
		DBName:      getEnv("GROWPLATE_DB_NAME", "growplate_dev"),
		SSLMode:     getEnv("GROWPLATE_DB_SSLMODE", "disable"),
		MaxConns:    maxConns,
		AutoMigrate: autoMigrate,
	}, nil
}

func loadTenancy() TenancyConfig {
	return TenancyConfig{
		BaseDomain:   strings.ToLower(strings.TrimSuffix(getEnv("GROWPLATE_BASE_DOMAIN", "growplate.app"), ".")),
		DevSubdomain: strings.ToLower(getEnv("GROWPLATE_DEV_SUBDOMAIN", "")),
	}
}

// validateStorage checks the settings LoadDatabase reads.
func (c *Config) validateStorage() error {
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("GROWPLATE_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 || c.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("GROWPLATE_DB_MAX_CONNS must be 1-%d, got %d", math.MaxInt32, c.Database.MaxConns)
	}
	if !strings.Contains(c.Tenancy.BaseDomain, ".") {
		return fmt.Errorf("GROWPLATE_BASE_DOMAIN must be a dotted domain, got %q", c.Tenancy.BaseDomain)
	}
	return nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("GROWPLATE_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("GROWPLATE_JWT_SECRET must be at least 32 characters")
	}

	if c.Database.SSLMode == "disable" && c.Tenancy.DevSubdomain == "" {
		log.Warn().Msg("GROWPLATE_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if err := c.validateStorage(); err != nil {
		return err
	}
	if c.Cache.Namespace == "" || strings.Contains(c.Cache.Namespace, ":") {
		return fmt.Errorf("GROWPLATE_CACHE_NAMESPACE must be non-empty and contain no ':', got %q", c.Cache.Namespace)
	}
	if c.Cache.TenantTTL <= 0 {
		return fmt.Errorf("GROWPLATE_CACHE_TENANT_TTL must be positive, got %s", c.Cache.TenantTTL)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("GROWPLATE_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf("GROWPLATE_JWT_REFRESH_TTL must be positive, got %s", c.JWT.RefreshTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("GROWPLATE_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("GROWPLATE_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("GROWPLATE_RATE_LIMIT_RPS must be positive, got %g", c.RateLimit.RPS)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("GROWPLATE_RATE_LIMIT_BURST must be >= 1, got %d", c.RateLimit.Burst)
	}
	if c.Telemetry.SamplingRate <= 0 || c.Telemetry.SamplingRate > 1 {
		return fmt.Errorf("GROWPLATE_OTEL_SAMPLING_RATE must be in (0, 1], got %g", c.Telemetry.SamplingRate)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
