package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/growplate/internal/domain"
)

type ListCategoriesInput struct {
	Active bool `query:"active" doc:"Only return active categories"`
}

type CategoryIDInput struct {
	ID uuid.UUID `path:"id" doc:"Category ID"`
}

type CreateCategoryInput struct {
	Body struct {
		Name        string `json:"name" doc:"Category name"`
		Description string `json:"description,omitempty" doc:"Category description"`
		SortOrder   int    `json:"sort_order,omitempty" doc:"Display position, ascending"`
	}
}

type UpdateCategoryInput struct {
	ID   uuid.UUID `path:"id" doc:"Category ID"`
	Body struct {
		Name        *string `json:"name,omitempty" doc:"Category name"`
		Description *string `json:"description,omitempty" doc:"Category description"`
		SortOrder   *int    `json:"sort_order,omitempty" doc:"Display position, ascending"`
		IsActive    *bool   `json:"is_active,omitempty" doc:"Whether the category is shown"`
	}
}

// Deleted is the data of a successful delete.
type Deleted struct {
	ID uuid.UUID `json:"id"`
}

// RegisterCategoryRoutes registers the public category reads.
func RegisterCategoryRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-categories",
		Method:      http.MethodGet,
		Path:        "/categories",
		Summary:     "List menu categories",
		Tags:        []string{"Menu"},
	}, func(ctx context.Context, input *ListCategoriesInput) (*Output[[]*domain.Category], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		cats, err := store.Categories().List(ctx, t.ID, domain.CategoryFilter{ActiveOnly: input.Active})
		if err != nil {
			return nil, apiError(err, "category")
		}
		if cats == nil {
			cats = []*domain.Category{}
		}
		return ok(cats), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-category",
		Method:      http.MethodGet,
		Path:        "/categories/{id}",
		Summary:     "Get a menu category",
		Tags:        []string{"Menu"},
	}, func(ctx context.Context, input *CategoryIDInput) (*Output[*domain.Category], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		c, err := store.Categories().GetByID(ctx, t.ID, input.ID)
		if err != nil {
			return nil, apiError(err, "category")
		}
		return ok(c), nil
	})
}

// RegisterCategoryAdminRoutes registers category writes for managers.
func RegisterCategoryAdminRoutes(api huma.API, store DataStore, rec EventRecorder) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-category",
		Method:        http.MethodPost,
		Path:          "/categories",
		Summary:       "Create a menu category",
		Tags:          []string{"Menu"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateCategoryInput) (*Output[*domain.Category], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		c, err := domain.NewCategory(t.ID, input.Body.Name, input.Body.Description, input.Body.SortOrder)
		if err != nil {
			return nil, apiError(err, "category")
		}

		if err := store.Categories().Create(ctx, c); err != nil {
			return nil, apiError(err, "category")
		}

		rec.Record(ctx, domain.Event{
			Type:     domain.EventCategoryCreated,
			TenantID: t.ID,
			ActorID:  actorID(ctx),
			EntityID: c.ID,
			Data:     map[string]any{"name": c.Name},
		})

		return okMsg(c, "category created"), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-category",
		Method:      http.MethodPut,
		Path:        "/categories/{id}",
		Summary:     "Update a menu category",
		Tags:        []string{"Menu"},
	}, func(ctx context.Context, input *UpdateCategoryInput) (*Output[*domain.Category], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		c, err := store.Categories().GetByID(ctx, t.ID, input.ID)
		if err != nil {
			return nil, apiError(err, "category")
		}

		if input.Body.Name != nil {
			c.Name = strings.TrimSpace(*input.Body.Name)
		}
		if input.Body.Description != nil {
			c.Description = strings.TrimSpace(*input.Body.Description)
		}
		if input.Body.SortOrder != nil {
			c.SortOrder = *input.Body.SortOrder
		}
		if input.Body.IsActive != nil {
			c.IsActive = *input.Body.IsActive
		}

		if err := c.Validate(); err != nil {
			return nil, apiError(err, "category")
		}

		if err := store.Categories().Update(ctx, c); err != nil {
			return nil, apiError(err, "category")
		}

		rec.Record(ctx, domain.Event{
			Type:     domain.EventCategoryUpdated,
			TenantID: t.ID,
			ActorID:  actorID(ctx),
			EntityID: c.ID,
			Data:     map[string]any{"name": c.Name, "is_active": c.IsActive},
		})

		return okMsg(c, "category updated"), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-category",
		Method:      http.MethodDelete,
		Path:        "/categories/{id}",
		Summary:     "Delete an empty menu category",
		Tags:        []string{"Menu"},
	}, func(ctx context.Context, input *CategoryIDInput) (*Output[Deleted], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		if err := store.Categories().Delete(ctx, t.ID, input.ID); err != nil {
			return nil, apiError(err, "category")
		}

		rec.Record(ctx, domain.Event{
			Type:     domain.EventCategoryDeleted,
			TenantID: t.ID,
			ActorID:  actorID(ctx),
			EntityID: input.ID,
		})

		return okMsg(Deleted{ID: input.ID}, "category deleted"), nil
	})
}
