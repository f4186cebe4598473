package v1_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/growplate/internal/auth"
	"github.com/gosuda/growplate/internal/domain"
	"github.com/gosuda/growplate/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject tenant/user/role into context for the *Ctx calls
// ---------------------------------------------------------------------------

func fixtureTenant() *domain.Tenant {
	now := time.Now()
	return &domain.Tenant{
		ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Name:      "Joe's Diner",
		Subdomain: "joes",
		Settings:  json.RawMessage(`{"currency":"USD"}`),
		Features:  domain.DefaultFeatures(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func tenantCtx(t *domain.Tenant) context.Context {
	return middleware.WithTenant(context.Background(), t)
}

func staffCtx(t *domain.Tenant, userID uuid.UUID, role string) context.Context {
	return middleware.WithUser(tenantCtx(t), userID, role)
}

// ---------------------------------------------------------------------------
// Response decoding
// ---------------------------------------------------------------------------

type envelope[T any] struct {
	Success   bool      `json:"success"`
	Data      T         `json:"data"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type errorEnvelope struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func decodeData[T any](t *testing.T, resp *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var body envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.False(t, body.Timestamp.IsZero())
	return body
}

func decodeErr(t *testing.T, resp *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var body errorEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.NotEmpty(t, body.Error)
	return body
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	tenants    domain.TenantRepository
	features   domain.FeatureRepository
	categories domain.CategoryRepository
	items      domain.MenuItemRepository
}

func (m *mockDataStore) Tenants() domain.TenantRepository      { return m.tenants }
func (m *mockDataStore) Features() domain.FeatureRepository    { return m.features }
func (m *mockDataStore) Categories() domain.CategoryRepository { return m.categories }
func (m *mockDataStore) Items() domain.MenuItemRepository      { return m.items }

// ---------------------------------------------------------------------------
// Mock TenantRepository
// ---------------------------------------------------------------------------

type mockTenantRepo struct {
	createFunc         func(ctx context.Context, t *domain.Tenant) error
	getByIDFunc        func(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	getBySubdomainFunc func(ctx context.Context, sub string) (*domain.Tenant, error)
	getByDomainFunc    func(ctx context.Context, d string) (*domain.Tenant, error)
	updateFunc         func(ctx context.Context, t *domain.Tenant) error
	listFunc           func(ctx context.Context) ([]*domain.Tenant, error)
}

func (m *mockTenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	return m.createFunc(ctx, t)
}

func (m *mockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTenantRepo) GetBySubdomain(ctx context.Context, sub string) (*domain.Tenant, error) {
	return m.getBySubdomainFunc(ctx, sub)
}

func (m *mockTenantRepo) GetByDomain(ctx context.Context, d string) (*domain.Tenant, error) {
	return m.getByDomainFunc(ctx, d)
}

func (m *mockTenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTenantRepo) List(ctx context.Context) ([]*domain.Tenant, error) {
	return m.listFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock FeatureRepository
// ---------------------------------------------------------------------------

type mockFeatureRepo struct {
	listFunc func(ctx context.Context, tenantID uuid.UUID) (map[string]bool, error)
	setFunc  func(ctx context.Context, tenantID uuid.UUID, flags map[string]bool) error
}

func (m *mockFeatureRepo) List(ctx context.Context, tenantID uuid.UUID) (map[string]bool, error) {
	return m.listFunc(ctx, tenantID)
}

func (m *mockFeatureRepo) Set(ctx context.Context, tenantID uuid.UUID, flags map[string]bool) error {
	return m.setFunc(ctx, tenantID, flags)
}

// ---------------------------------------------------------------------------
// Mock CategoryRepository
// ---------------------------------------------------------------------------

type mockCategoryRepo struct {
	createFunc  func(ctx context.Context, c *domain.Category) error
	getByIDFunc func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Category, error)
	listFunc    func(ctx context.Context, tenantID uuid.UUID, f domain.CategoryFilter) ([]*domain.Category, error)
	updateFunc  func(ctx context.Context, c *domain.Category) error
	deleteFunc  func(ctx context.Context, tenantID, id uuid.UUID) error
	countFunc   func(ctx context.Context, tenantID uuid.UUID, f domain.CategoryFilter) (int64, error)
}

func (m *mockCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	return m.createFunc(ctx, c)
}

func (m *mockCategoryRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Category, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockCategoryRepo) List(ctx context.Context, tenantID uuid.UUID, f domain.CategoryFilter) ([]*domain.Category, error) {
	return m.listFunc(ctx, tenantID, f)
}

func (m *mockCategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	return m.updateFunc(ctx, c)
}

func (m *mockCategoryRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.deleteFunc(ctx, tenantID, id)
}

func (m *mockCategoryRepo) Count(ctx context.Context, tenantID uuid.UUID, f domain.CategoryFilter) (int64, error) {
	return m.countFunc(ctx, tenantID, f)
}

// ---------------------------------------------------------------------------
// Mock MenuItemRepository
// ---------------------------------------------------------------------------

type mockItemRepo struct {
	createFunc  func(ctx context.Context, it *domain.MenuItem) error
	getByIDFunc func(ctx context.Context, tenantID, id uuid.UUID) (*domain.MenuItem, error)
	listFunc    func(ctx context.Context, tenantID uuid.UUID, f domain.ItemFilter) ([]*domain.MenuItem, error)
	updateFunc  func(ctx context.Context, it *domain.MenuItem) error
	deleteFunc  func(ctx context.Context, tenantID, id uuid.UUID) error
	countFunc   func(ctx context.Context, tenantID uuid.UUID, f domain.ItemFilter) (int64, error)
}

func (m *mockItemRepo) Create(ctx context.Context, it *domain.MenuItem) error {
	return m.createFunc(ctx, it)
}

func (m *mockItemRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.MenuItem, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockItemRepo) List(ctx context.Context, tenantID uuid.UUID, f domain.ItemFilter) ([]*domain.MenuItem, error) {
	return m.listFunc(ctx, tenantID, f)
}

func (m *mockItemRepo) Update(ctx context.Context, it *domain.MenuItem) error {
	return m.updateFunc(ctx, it)
}

func (m *mockItemRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.deleteFunc(ctx, tenantID, id)
}

func (m *mockItemRepo) Count(ctx context.Context, tenantID uuid.UUID, f domain.ItemFilter) (int64, error) {
	return m.countFunc(ctx, tenantID, f)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	loginFunc      func(ctx context.Context, tenantID uuid.UUID, email, password string) (*auth.Tokens, error)
	refreshFunc    func(ctx context.Context, tenantID uuid.UUID, token string) (string, error)
	createUserFunc func(ctx context.Context, tenantID uuid.UUID, email, password, name, role string) (*domain.User, error)
}

func (m *mockAuthService) Login(ctx context.Context, tenantID uuid.UUID, email, password string) (*auth.Tokens, error) {
	return m.loginFunc(ctx, tenantID, email, password)
}

func (m *mockAuthService) RefreshToken(ctx context.Context, tenantID uuid.UUID, token string) (string, error) {
	return m.refreshFunc(ctx, tenantID, token)
}

func (m *mockAuthService) CreateUser(ctx context.Context, tenantID uuid.UUID, email, password, name, role string) (*domain.User, error) {
	return m.createUserFunc(ctx, tenantID, email, password, name, role)
}

// ---------------------------------------------------------------------------
// Recording fakes for the cache and event sinks
// ---------------------------------------------------------------------------

type recordingCache struct {
	mu          sync.Mutex
	invalidated []domain.Tenant
	err         error
}

func (c *recordingCache) Invalidate(_ context.Context, t *domain.Tenant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, *t)
	return c.err
}

type recordingEvents struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingEvents) Record(_ context.Context, ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
