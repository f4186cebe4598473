package tenancy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/singleflight"

	"github.com/gosuda/growplate/internal/domain"
)

// DefaultTTL is the lifetime of a cached tenant entry.
const DefaultTTL = 3600 * time.Second

// Cache is the key-value store sitting in front of the tenant table.
// Get reports found=false on a miss; err is reserved for store failures.
type Cache interface {
	Get(ctx context.Context, key string) (val []byte, found bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// TenantLookup is the source of truth for tenant records.
type TenantLookup interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*domain.Tenant, error)
}

type Options struct {
	Namespace  string
	BaseDomain string
	// DevSubdomain, when set, is used for localhost and IP hosts.
	DevSubdomain string
	TTL          time.Duration
	// MeterProvider records the lookup counter. Nil uses the global provider.
	MeterProvider metric.MeterProvider
}

// Resolver resolves hostnames to tenants with a cache-aside read path.
// Cache failures degrade to direct database reads.
type Resolver struct {
	cache   Cache // nil disables caching
	tenants TenantLookup
	opts    Options
	group   singleflight.Group
	lookups metric.Int64Counter
}

func NewResolver(cache Cache, tenants TenantLookup, opts Options) *Resolver {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	lookups, err := mp.Meter("github.com/gosuda/growplate/internal/tenancy").Int64Counter(
		"growplate.tenant.lookups",
		metric.WithDescription("Tenant resolutions by outcome: hit, miss, not_found, error"),
	)
	if err != nil {
		log.Warn().Err(err).Msg("tenancy: lookup counter unavailable")
		lookups = noop.Int64Counter{}
	}
	return &Resolver{cache: cache, tenants: tenants, opts: opts, lookups: lookups}
}

// CacheKey returns the cache key for a normalized hostname.
func CacheKey(namespace, hostname string) string {
	return namespace + ":tenant:domain:" + hostname
}

// Resolve maps an inbound Host value to its tenant. It returns
// domain.ErrNotFound when no tenant owns the host, and ErrInvalidHost or
// ErrNoTenantHost when the host cannot name a tenant at all.
func (r *Resolver) Resolve(ctx context.Context, host string) (*domain.Tenant, error) {
	lk, err := ParseHost(host, r.opts.BaseDomain)
	if errors.Is(err, ErrNoTenantHost) && r.opts.DevSubdomain != "" && isLocal(host) {
		lk, err = SubdomainLookup(r.opts.DevSubdomain, r.opts.BaseDomain), nil
	}
	if err != nil {
		return nil, err
	}

	key := CacheKey(r.opts.Namespace, lk.Hostname)
	if t, ok := r.fromCache(ctx, key); ok {
		r.count(ctx, "hit")
		return t, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.load(context.WithoutCancel(ctx), key, lk)
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.count(ctx, "not_found")
		return nil, err
	case err != nil:
		r.count(ctx, "error")
		return nil, err
	}

	r.count(ctx, "miss")
	return v.(*domain.Tenant), nil
}

func (r *Resolver) count(ctx context.Context, outcome string) {
	r.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Invalidate drops every cache entry the tenant could be stored under.
func (r *Resolver) Invalidate(ctx context.Context, t *domain.Tenant) error {
	if r.cache == nil || t == nil {
		return nil
	}
	hosts := t.Hostnames(normalizeHost(r.opts.BaseDomain))
	keys := make([]string, 0, len(hosts))
	for _, h := range hosts {
		keys = append(keys, CacheKey(r.opts.Namespace, h))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("tenancy.Invalidate: %w", err)
	}
	return nil
}

func (r *Resolver) fromCache(ctx context.Context, key string) (*domain.Tenant, bool) {
	if r.cache == nil {
		return nil, false
	}

	raw, found, err := r.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("tenancy: cache read failed, using database")
		return nil, false
	}
	if !found {
		return nil, false
	}

	var t domain.Tenant
	if err := json.Unmarshal(raw, &t); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("tenancy: corrupt cache entry, using database")
		return nil, false
	}
	return &t, true
}

func (r *Resolver) load(ctx context.Context, key string, lk Lookup) (*domain.Tenant, error) {
	var (
		t   *domain.Tenant
		err error
	)
	if lk.Subdomain != "" {
		t, err = r.tenants.GetBySubdomain(ctx, lk.Subdomain)
	} else {
		t, err = r.tenants.GetByDomain(ctx, lk.Domain)
	}
	if err != nil {
		return nil, fmt.Errorf("tenancy.Resolve %s: %w", lk.Hostname, err)
	}

	if r.cache != nil {
		raw, marshalErr := json.Marshal(t)
		if marshalErr != nil {
			log.Warn().Err(marshalErr).Str("key", key).Msg("tenancy: encode tenant for cache")
			return t, nil
		}
		if setErr := r.cache.Set(ctx, key, raw, r.opts.TTL); setErr != nil {
			log.Warn().Err(setErr).Str("key", key).Msg("tenancy: cache write failed")
		}
	}

	return t, nil
}

func isLocal(host string) bool {
	h := normalizeHost(host)
	return h == "localhost" || isIP(h)
}
