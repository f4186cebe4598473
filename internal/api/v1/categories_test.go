package v1_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/growplate/internal/api/v1"
	"github.com/gosuda/growplate/internal/domain"
)

func fixtureCategory(tenantID uuid.UUID) *domain.Category {
	now := time.Now()
	return &domain.Category{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "Burgers",
		SortOrder: 1,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ---------------------------------------------------------------------------
// GET /categories, GET /categories/{id}
// ---------------------------------------------------------------------------

func TestListCategories(t *testing.T) {
	t.Parallel()

	t.Run("passes_active_filter", func(t *testing.T) {
		t.Parallel()

		tn := fixtureTenant()
		cat := fixtureCategory(tn.ID)

		_, api := humatest.New(t)
		v1.RegisterCategoryRoutes(api, &mockDataStore{
			categories: &mockCategoryRepo{
				listFunc: func(_ context.Context, tenantID uuid.UUID, f domain.CategoryFilter) ([]*domain.Category, error) {
					assert.Equal(t, tn.ID, tenantID)
					assert.True(t, f.ActiveOnly)
					return []*domain.Category{cat}, nil
				},
			},
		})

		resp := api.GetCtx(tenantCtx(tn), "/categories?active=true")
		require.Equal(t, http.StatusOK, resp.Code)

		body := decodeData[[]*domain.Category](t, resp)
		require.Len(t, body.Data, 1)
		assert.Equal(t, cat.ID, body.Data[0].ID)
	})

	t.Run("empty_list_is_array", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCategoryRoutes(api, &mockDataStore{
			categories: &mockCategoryRepo{
				listFunc: func(context.Context, uuid.UUID, domain.CategoryFilter) ([]*domain.Category, error) {
					return nil, nil
				},
			},
		})

		resp := api.GetCtx(tenantCtx(fixtureTenant()), "/categories")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"data":[]`)
	})
}

func TestGetCategory(t *testing.T) {
	t.Parallel()

	t.Run("not_found", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCategoryRoutes(api, &mockDataStore{
			categories: &mockCategoryRepo{
				getByIDFunc: func(context.Context, uuid.UUID, uuid.UUID) (*domain.Category, error) {
					return nil, fmt.Errorf("categoryRepo.GetByID: %w", domain.ErrNotFound)
				},
			},
		})

		resp := api.GetCtx(tenantCtx(fixtureTenant()), "/categories/"+uuid.NewString())
		require.Equal(t, http.StatusNotFound, resp.Code)
		assert.Equal(t, "category not found", decodeErr(t, resp).Error)
	})

	t.Run("malformed_id", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCategoryRoutes(api, &mockDataStore{categories: &mockCategoryRepo{}})

		resp := api.GetCtx(tenantCtx(fixtureTenant()), "/categories/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// POST /categories
// ---------------------------------------------------------------------------

func TestCreateCategory(t *testing.T) {
	t.Parallel()

	t.Run("created", func(t *testing.T) {
		t.Parallel()

		tn := fixtureTenant()
		events := &recordingEvents{}

		_, api := humatest.New(t)
		v1.RegisterCategoryAdminRoutes(api, &mockDataStore{
			categories: &mockCategoryRepo{
				createFunc: func(_ context.Context, c *domain.Category) error {
					assert.Equal(t, tn.ID, c.TenantID)
					assert.Equal(t, "Desserts", c.Name)
					assert.True(t, c.IsActive)
					return nil
				},
			},
		}, events)

		resp := api.PostCtx(staffCtx(tn, uuid.New(), domain.RoleManager), "/categories", map[string]any{
			"name":       " Desserts ",
			"sort_order": 3,
		})
		require.Equal(t, http.StatusCreated, resp.Code)

		body := decodeData[*domain.Category](t, resp)
		assert.Equal(t, "Desserts", body.Data.Name)
		assert.Equal(t, 3, body.Data.SortOrder)
		assert.Equal(t, "category created", body.Message)
		assert.Equal(t, []string{domain.EventCategoryCreated}, events.types())
	})

	invalid := []struct {
		name string
		body map[string]any
		want string
	}{
		{"blank_name", map[string]any{"name": "  "}, "name is required"},
		{"long_name", map[string]any{"name": strings.Repeat("x", 101)}, "name must be at most 100 characters"},
		{"negative_sort", map[string]any{"name": "Soups", "sort_order": -1}, "sort_order must be >= 0"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			v1.RegisterCategoryAdminRoutes(api, &mockDataStore{categories: &mockCategoryRepo{}}, &recordingEvents{})

			resp := api.PostCtx(staffCtx(fixtureTenant(), uuid.New(), domain.RoleManager), "/categories", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.Code)
			assert.Equal(t, tc.want, decodeErr(t, resp).Error)
		})
	}

	t.Run("duplicate_name", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCategoryAdminRoutes(api, &mockDataStore{
			categories: &mockCategoryRepo{
				createFunc: func(context.Context, *domain.Category) error {
					return fmt.Errorf("categoryRepo.Create: %w", domain.Conflict("a category with this name already exists"))
				},
			},
		}, &recordingEvents{})

		resp := api.PostCtx(staffCtx(fixtureTenant(), uuid.New(), domain.RoleManager), "/categories", map[string]any{"name": "Burgers"})
		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "a category with this name already exists", decodeErr(t, resp).Error)
	})
}

// ---------------------------------------------------------------------------
// PUT /categories/{id}
// ---------------------------------------------------------------------------

func TestUpdateCategory(t *testing.T) {
	t.Parallel()

	t.Run("partial_update", func(t *testing.T) {
		t.Parallel()

		tn := fixtureTenant()
		cat := fixtureCategory(tn.ID)
		events := &recordingEvents{}

		_, api := humatest.New(t)
		v1.RegisterCategoryAdminRoutes(api, &mockDataStore{
			categories: &mockCategoryRepo{
				getByIDFunc: func(_ context.Context, tenantID, id uuid.UUID) (*domain.Category, error) {
					assert.Equal(t, tn.ID, tenantID)
					assert.Equal(t, cat.ID, id)
					cp := *cat
					return &cp, nil
				},
				updateFunc: func(_ context.Context, c *domain.Category) error {
					assert.Equal(t, "Burgers", c.Name, "untouched fields keep their value")
					assert.False(t, c.IsActive)
					return nil
				},
			},
		}, events)

		resp := api.PutCtx(staffCtx(tn, uuid.New(), domain.RoleOwner), "/categories/"+cat.ID.String(), map[string]any{
			"is_active": false,
		})
		require.Equal(t, http.StatusOK, resp.Code)

		body := decodeData[*domain.Category](t, resp)
		assert.False(t, body.Data.IsActive)
		assert.Equal(t, []string{domain.EventCategoryUpdated}, events.types())
	})

	t.Run("other_tenants_category_is_not_found", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterCategoryAdminRoutes(api, &mockDataStore{
			categories: &mockCategoryRepo{
				getByIDFunc: func(context.Context, uuid.UUID, uuid.UUID) (*domain.Category, error) {
					return nil, domain.ErrNotFound
				},
			},
		}, &recordingEvents{})

		resp := api.PutCtx(staffCtx(fixtureTenant(), uuid.New(), domain.RoleOwner), "/categories/"+uuid.NewString(), map[string]any{"name": "x"})
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// DELETE /categories/{id}
// ---------------------------------------------------------------------------

func TestDeleteCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "deleted", wantCode: http.StatusOK},
		{name: "has_items", err: domain.Conflict("category still has menu items"), wantCode: http.StatusBadRequest, wantErr: "category still has menu items"},
		{name: "missing", err: domain.ErrNotFound, wantCode: http.StatusNotFound, wantErr: "category not found"},
		{name: "db_down", err: errors.New("boom"), wantCode: http.StatusInternalServerError, wantErr: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tn := fixtureTenant()
			id := uuid.New()
			events := &recordingEvents{}

			_, api := humatest.New(t)
			v1.RegisterCategoryAdminRoutes(api, &mockDataStore{
				categories: &mockCategoryRepo{
					deleteFunc: func(_ context.Context, tenantID, gotID uuid.UUID) error {
						assert.Equal(t, tn.ID, tenantID)
						assert.Equal(t, id, gotID)
						return tt.err
					},
				},
			}, events)

			resp := api.DeleteCtx(staffCtx(tn, uuid.New(), domain.RoleManager), "/categories/"+id.String())
			require.Equal(t, tt.wantCode, resp.Code)

			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeErr(t, resp).Error)
				assert.Empty(t, events.types())
				return
			}
			body := decodeData[v1.Deleted](t, resp)
			assert.Equal(t, id, body.Data.ID)
			assert.Equal(t, []string{domain.EventCategoryDeleted}, events.types())
		})
	}
}
