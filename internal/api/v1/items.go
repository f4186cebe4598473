package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/growplate/internal/domain"
)

const maxPageSize = 200

type ListItemsInput struct {
	CategoryID uuid.UUID `query:"category_id" doc:"Only items of this category"`
	Available  bool      `query:"available" doc:"Only items currently available"`
	Limit      int       `query:"limit" minimum:"0" maximum:"200" doc:"Page size; 0 returns every item"`
	Offset     int       `query:"offset" minimum:"0" doc:"Items to skip"`
}

// ItemPage is one page of a menu item listing.
type ItemPage struct {
	Items  []*domain.MenuItem `json:"items"`
	Total  int64              `json:"total"`
	Limit  int                `json:"limit,omitempty"`
	Offset int                `json:"offset"`
}

type SearchItemsInput struct {
	Query string `query:"q" maxLength:"200" doc:"Search terms"`
	Limit int    `query:"limit" minimum:"0" maximum:"200" doc:"Maximum results; defaults to 50"`
}

type ItemIDInput struct {
	ID uuid.UUID `path:"id" doc:"Menu item ID"`
}

type CreateItemInput struct {
	Body struct {
		CategoryID  uuid.UUID `json:"category_id" doc:"Category the item is listed under"`
		Name        string    `json:"name" doc:"Item name"`
		Description string    `json:"description,omitempty" doc:"Item description"`
		PriceCents  int64     `json:"price_cents" doc:"Price in the smallest currency unit"`
		ImageURL    string    `json:"image_url,omitempty" doc:"Absolute http(s) image URL"`
		SortOrder   int       `json:"sort_order,omitempty" doc:"Display position within the category"`
	}
}

type UpdateItemInput struct {
	ID   uuid.UUID `path:"id" doc:"Menu item ID"`
	Body struct {
		CategoryID  *uuid.UUID `json:"category_id,omitempty" doc:"Move the item to this category"`
		Name        *string    `json:"name,omitempty" doc:"Item name"`
		Description *string    `json:"description,omitempty" doc:"Item description"`
		PriceCents  *int64     `json:"price_cents,omitempty" doc:"Price in the smallest currency unit"`
		ImageURL    *string    `json:"image_url,omitempty" doc:"Absolute http(s) image URL; empty removes it"`
		IsAvailable *bool      `json:"is_available,omitempty" doc:"Whether the item can be ordered"`
		SortOrder   *int       `json:"sort_order,omitempty" doc:"Display position within the category"`
	}
}

var errForeignCategory = &domain.DetailError{Kind: domain.ErrTenantMismatch, Detail: "category does not belong to this tenant"}

// RegisterItemRoutes registers the public menu item reads.
func RegisterItemRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-items",
		Method:      http.MethodGet,
		Path:        "/items",
		Summary:     "List menu items",
		Tags:        []string{"Menu"},
	}, func(ctx context.Context, input *ListItemsInput) (*Output[ItemPage], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		f := domain.ItemFilter{
			CategoryID:    input.CategoryID,
			AvailableOnly: input.Available,
			Limit:         input.Limit,
			Offset:        input.Offset,
		}

		items, err := store.Items().List(ctx, t.ID, f)
		if err != nil {
			return nil, apiError(err, "item")
		}

		total, err := store.Items().Count(ctx, t.ID, f)
		if err != nil {
			return nil, apiError(err, "item")
		}

		if items == nil {
			items = []*domain.MenuItem{}
		}
		return ok(ItemPage{Items: items, Total: total, Limit: input.Limit, Offset: input.Offset}), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-item",
		Method:      http.MethodGet,
		Path:        "/items/{id}",
		Summary:     "Get a menu item",
		Tags:        []string{"Menu"},
	}, func(ctx context.Context, input *ItemIDInput) (*Output[*domain.MenuItem], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		it, err := store.Items().GetByID(ctx, t.ID, input.ID)
		if err != nil {
			return nil, apiError(err, "item")
		}
		return ok(it), nil
	})
}

// RegisterSearchRoutes registers full-text menu search. The caller gates it
// on the menu_search feature.
func RegisterSearchRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "search-items",
		Method:      http.MethodGet,
		Path:        "/items/search",
		Summary:     "Search available menu items by name and description",
		Tags:        []string{"Menu"},
	}, func(ctx context.Context, input *SearchItemsInput) (*Output[[]*domain.MenuItem], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		q := strings.TrimSpace(input.Query)
		if q == "" {
			return nil, huma.Error400BadRequest("search query is required")
		}

		limit := input.Limit
		if limit == 0 {
			limit = 50
		}

		items, err := store.Items().List(ctx, t.ID, domain.ItemFilter{
			Search:        q,
			AvailableOnly: true,
			Limit:         min(limit, maxPageSize),
		})
		if err != nil {
			return nil, apiError(err, "item")
		}
		if items == nil {
			items = []*domain.MenuItem{}
		}
		return ok(items), nil
	})
}

// RegisterItemAdminRoutes registers menu item writes for managers.
func RegisterItemAdminRoutes(api huma.API, store DataStore, rec EventRecorder) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-item",
		Method:        http.MethodPost,
		Path:          "/items",
		Summary:       "Create a menu item",
		Tags:          []string{"Menu"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateItemInput) (*Output[*domain.MenuItem], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		b := input.Body
		it, err := domain.NewMenuItem(t.ID, b.CategoryID, b.Name, b.Description, b.PriceCents, b.ImageURL, b.SortOrder)
		if err != nil {
			return nil, apiError(err, "item")
		}

		if err := ownCategory(ctx, store, t.ID, it.CategoryID); err != nil {
			return nil, apiError(err, "category")
		}

		if err := store.Items().Create(ctx, it); err != nil {
			return nil, apiError(err, "item")
		}

		rec.Record(ctx, domain.Event{
			Type:     domain.EventItemCreated,
			TenantID: t.ID,
			ActorID:  actorID(ctx),
			EntityID: it.ID,
			Data:     map[string]any{"name": it.Name, "category_id": it.CategoryID, "price_cents": it.PriceCents},
		})

		return okMsg(it, "item created"), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-item",
		Method:      http.MethodPut,
		Path:        "/items/{id}",
		Summary:     "Update a menu item",
		Tags:        []string{"Menu"},
	}, func(ctx context.Context, input *UpdateItemInput) (*Output[*domain.MenuItem], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		it, err := store.Items().GetByID(ctx, t.ID, input.ID)
		if err != nil {
			return nil, apiError(err, "item")
		}

		b := input.Body
		categoryChanged := b.CategoryID != nil && *b.CategoryID != it.CategoryID
		if b.CategoryID != nil {
			it.CategoryID = *b.CategoryID
		}
		if b.Name != nil {
			it.Name = strings.TrimSpace(*b.Name)
		}
		if b.Description != nil {
			it.Description = strings.TrimSpace(*b.Description)
		}
		if b.PriceCents != nil {
			it.PriceCents = *b.PriceCents
		}
		if b.ImageURL != nil {
			it.ImageURL = strings.TrimSpace(*b.ImageURL)
		}
		if b.IsAvailable != nil {
			it.IsAvailable = *b.IsAvailable
		}
		if b.SortOrder != nil {
			it.SortOrder = *b.SortOrder
		}

		if err := it.Validate(); err != nil {
			return nil, apiError(err, "item")
		}

		if categoryChanged {
			if err := ownCategory(ctx, store, t.ID, it.CategoryID); err != nil {
				return nil, apiError(err, "category")
			}
		}

		if err := store.Items().Update(ctx, it); err != nil {
			return nil, apiError(err, "item")
		}

		rec.Record(ctx, domain.Event{
			Type:     domain.EventItemUpdated,
			TenantID: t.ID,
			ActorID:  actorID(ctx),
			EntityID: it.ID,
			Data:     map[string]any{"name": it.Name, "price_cents": it.PriceCents, "is_available": it.IsAvailable},
		})

		return okMsg(it, "item updated"), nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-item",
		Method:      http.MethodDelete,
		Path:        "/items/{id}",
		Summary:     "Delete a menu item",
		Tags:        []string{"Menu"},
	}, func(ctx context.Context, input *ItemIDInput) (*Output[Deleted], error) {
		t, err := currentTenant(ctx)
		if err != nil {
			return nil, err
		}

		if err := store.Items().Delete(ctx, t.ID, input.ID); err != nil {
			return nil, apiError(err, "item")
		}

		rec.Record(ctx, domain.Event{
			Type:     domain.EventItemDeleted,
			TenantID: t.ID,
			ActorID:  actorID(ctx),
			EntityID: input.ID,
		})

		return okMsg(Deleted{ID: input.ID}, "item deleted"), nil
	})
}

// ownCategory checks that categoryID is one of the tenant's categories. A
// missing category and another tenant's category look the same.
func ownCategory(ctx context.Context, store DataStore, tenantID, categoryID uuid.UUID) error {
	_, err := store.Categories().GetByID(ctx, tenantID, categoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return errForeignCategory
	}
	return err
}
