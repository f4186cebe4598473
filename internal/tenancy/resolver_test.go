package tenancy_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/gosuda/growplate/internal/domain"
	"github.com/gosuda/growplate/internal/tenancy"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = val
	c.ttls[key] = ttl
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	c.deleted = append(c.deleted, keys...)
	return nil
}

type fakeLookup struct {
	calls       atomic.Int32
	bySubdomain map[string]*domain.Tenant
	byDomain    map[string]*domain.Tenant
	delay       time.Duration
	err         error
}

func (l *fakeLookup) GetBySubdomain(_ context.Context, sub string) (*domain.Tenant, error) {
	l.calls.Add(1)
	time.Sleep(l.delay)
	if l.err != nil {
		return nil, l.err
	}
	if t, ok := l.bySubdomain[sub]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("tenantRepo.GetBySubdomain: %w", domain.ErrNotFound)
}

func (l *fakeLookup) GetByDomain(_ context.Context, d string) (*domain.Tenant, error) {
	l.calls.Add(1)
	time.Sleep(l.delay)
	if l.err != nil {
		return nil, l.err
	}
	if t, ok := l.byDomain[d]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("tenantRepo.GetByDomain: %w", domain.ErrNotFound)
}

func joes() *domain.Tenant {
	return &domain.Tenant{
		ID:        uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		Name:      "Joe's Diner",
		Subdomain: "joes",
		Domain:    "eatatjoes.com",
		Settings:  json.RawMessage(`{}`),
		Features:  domain.DefaultFeatures(),
	}
}

func newResolver(cache tenancy.Cache, lookup *fakeLookup) *tenancy.Resolver {
	return tenancy.NewResolver(cache, lookup, tenancy.Options{
		Namespace:  "growplate",
		BaseDomain: "growplate.app",
	})
}

// ---------------------------------------------------------------------------
// Resolve
// ---------------------------------------------------------------------------

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("miss_then_hit", func(t *testing.T) {
		t.Parallel()

		cache := newFakeCache()
		lookup := &fakeLookup{bySubdomain: map[string]*domain.Tenant{"joes": joes()}}
		r := newResolver(cache, lookup)

		got, err := r.Resolve(context.Background(), "joes.growplate.app")
		require.NoError(t, err)
		assert.Equal(t, "Joe's Diner", got.Name)
		assert.EqualValues(t, 1, lookup.calls.Load())

		key := "growplate:tenant:domain:joes.growplate.app"
		require.Contains(t, cache.data, key)
		assert.Equal(t, tenancy.DefaultTTL, cache.ttls[key])

		got, err = r.Resolve(context.Background(), "JOES.growplate.app:443")
		require.NoError(t, err)
		assert.Equal(t, joes().ID, got.ID)
		assert.EqualValues(t, 1, lookup.calls.Load(), "second resolve should be served from cache")
	})

	t.Run("custom_domain", func(t *testing.T) {
		t.Parallel()

		lookup := &fakeLookup{byDomain: map[string]*domain.Tenant{"eatatjoes.com": joes()}}
		r := newResolver(newFakeCache(), lookup)

		got, err := r.Resolve(context.Background(), "www.eatatjoes.com")
		require.NoError(t, err)
		assert.Equal(t, "joes", got.Subdomain)
	})

	t.Run("not_found_is_not_cached", func(t *testing.T) {
		t.Parallel()

		cache := newFakeCache()
		lookup := &fakeLookup{}
		r := newResolver(cache, lookup)

		_, err := r.Resolve(context.Background(), "nobody.growplate.app")
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Empty(t, cache.data)
	})

	t.Run("cache_read_error_falls_back", func(t *testing.T) {
		t.Parallel()

		cache := newFakeCache()
		cache.getErr = errors.New("redis: connection refused")
		lookup := &fakeLookup{bySubdomain: map[string]*domain.Tenant{"joes": joes()}}
		r := newResolver(cache, lookup)

		got, err := r.Resolve(context.Background(), "joes.growplate.app")
		require.NoError(t, err)
		assert.Equal(t, "Joe's Diner", got.Name)
	})

	t.Run("cache_write_error_is_ignored", func(t *testing.T) {
		t.Parallel()

		cache := newFakeCache()
		cache.setErr = errors.New("redis: OOM")
		lookup := &fakeLookup{bySubdomain: map[string]*domain.Tenant{"joes": joes()}}
		r := newResolver(cache, lookup)

		_, err := r.Resolve(context.Background(), "joes.growplate.app")
		require.NoError(t, err)
	})

	t.Run("corrupt_entry_falls_back", func(t *testing.T) {
		t.Parallel()

		cache := newFakeCache()
		cache.data["growplate:tenant:domain:joes.growplate.app"] = []byte("{not json")
		lookup := &fakeLookup{bySubdomain: map[string]*domain.Tenant{"joes": joes()}}
		r := newResolver(cache, lookup)

		got, err := r.Resolve(context.Background(), "joes.growplate.app")
		require.NoError(t, err)
		assert.Equal(t, "Joe's Diner", got.Name)
		assert.EqualValues(t, 1, lookup.calls.Load())
	})

	t.Run("nil_cache", func(t *testing.T) {
		t.Parallel()

		lookup := &fakeLookup{bySubdomain: map[string]*domain.Tenant{"joes": joes()}}
		r := tenancy.NewResolver(nil, lookup, tenancy.Options{Namespace: "growplate", BaseDomain: "growplate.app"})

		_, err := r.Resolve(context.Background(), "joes.growplate.app")
		require.NoError(t, err)
		_, err = r.Resolve(context.Background(), "joes.growplate.app")
		require.NoError(t, err)
		assert.EqualValues(t, 2, lookup.calls.Load())
	})

	t.Run("database_error", func(t *testing.T) {
		t.Parallel()

		lookup := &fakeLookup{err: errors.New("pg: timeout")}
		r := newResolver(newFakeCache(), lookup)

		_, err := r.Resolve(context.Background(), "joes.growplate.app")
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("apex_host", func(t *testing.T) {
		t.Parallel()

		r := newResolver(newFakeCache(), &fakeLookup{})

		_, err := r.Resolve(context.Background(), "growplate.app")
		require.ErrorIs(t, err, tenancy.ErrNoTenantHost)
	})

	t.Run("dev_subdomain_for_localhost", func(t *testing.T) {
		t.Parallel()

		lookup := &fakeLookup{bySubdomain: map[string]*domain.Tenant{"joes": joes()}}
		r := tenancy.NewResolver(newFakeCache(), lookup, tenancy.Options{
			Namespace:    "growplate",
			BaseDomain:   "growplate.app",
			DevSubdomain: "joes",
		})

		got, err := r.Resolve(context.Background(), "localhost:8080")
		require.NoError(t, err)
		assert.Equal(t, "joes", got.Subdomain)
	})

	t.Run("concurrent_misses_coalesce", func(t *testing.T) {
		t.Parallel()

		lookup := &fakeLookup{
			bySubdomain: map[string]*domain.Tenant{"joes": joes()},
			delay:       50 * time.Millisecond,
		}
		r := newResolver(newFakeCache(), lookup)

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := r.Resolve(context.Background(), "joes.growplate.app")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Less(t, lookup.calls.Load(), int32(10))
	})
}

// ---------------------------------------------------------------------------
// Invalidate
// ---------------------------------------------------------------------------

func TestResolver_Invalidate(t *testing.T) {
	t.Parallel()

	cache := newFakeCache()
	r := newResolver(cache, &fakeLookup{})

	require.NoError(t, r.Invalidate(context.Background(), joes()))
	assert.ElementsMatch(t, []string{
		"growplate:tenant:domain:joes.growplate.app",
		"growplate:tenant:domain:eatatjoes.com",
		"growplate:tenant:domain:www.eatatjoes.com",
	}, cache.deleted)
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

func lookupCounts(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "growplate.tenant.lookups" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "lookups should be an int64 sum")
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				counts[outcome.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestResolver_LookupCounter(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	opts := tenancy.Options{Namespace: "growplate", BaseDomain: "growplate.app", MeterProvider: mp}
	ctx := context.Background()

	lookup := &fakeLookup{
		bySubdomain: map[string]*domain.Tenant{"joes": joes()},
		byDomain:    map[string]*domain.Tenant{"eatatjoes.com": joes()},
	}
	r := tenancy.NewResolver(newFakeCache(), lookup, opts)

	_, err := r.Resolve(ctx, "joes.growplate.app")
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "eatatjoes.com")
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "joes.growplate.app")
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "nobody.growplate.app")
	require.ErrorIs(t, err, domain.ErrNotFound)

	broken := tenancy.NewResolver(newFakeCache(), &fakeLookup{err: errors.New("connection refused")}, opts)
	_, err = broken.Resolve(ctx, "joes.growplate.app")
	require.Error(t, err)

	assert.Equal(t, map[string]int64{
		"hit":       1,
		"miss":      2,
		"not_found": 1,
		"error":     1,
	}, lookupCounts(t, reader))
}

func TestResolver_LookupCounter_InvalidHostNotCounted(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	r := tenancy.NewResolver(newFakeCache(), &fakeLookup{}, tenancy.Options{
		Namespace:     "growplate",
		BaseDomain:    "growplate.app",
		MeterProvider: mp,
	})

	_, err := r.Resolve(context.Background(), "")
	require.Error(t, err)
	assert.Empty(t, lookupCounts(t, reader))
}
