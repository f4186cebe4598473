package domain

import (
	"context"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validation bounds for menu entities.
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	MaxImageURLLength    = 2048
	MaxPriceCents        = 1_000_000
)

type Category struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewCategory creates an active Category with validated fields.
func NewCategory(tenantID uuid.UUID, name, description string, sortOrder int) (*Category, error) {
	now := time.Now()
	c := &Category{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		SortOrder:   sortOrder,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field bounds. Name and description are expected trimmed.
func (c *Category) Validate() error {
	if c.TenantID == uuid.Nil {
		return Invalidf("tenant ID is required")
	}
	if err := validateName(c.Name); err != nil {
		return err
	}
	if err := validateDescription(c.Description); err != nil {
		return err
	}
	if c.SortOrder < 0 {
		return Invalidf("sort_order must be >= 0")
	}
	return nil
}

type MenuItem struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsAvailable bool      `json:"is_available"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMenuItem creates an available MenuItem with validated fields. It does
// not check that the category belongs to the tenant; callers do that
// against the store before writing.
func NewMenuItem(tenantID, categoryID uuid.UUID, name, description string, priceCents int64, imageURL string, sortOrder int) (*MenuItem, error) {
	now := time.Now()
	it := &MenuItem{
		ID:          uuid.New(),
		TenantID:    tenantID,
		CategoryID:  categoryID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		PriceCents:  priceCents,
		ImageURL:    strings.TrimSpace(imageURL),
		IsAvailable: true,
		SortOrder:   sortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := it.Validate(); err != nil {
		return nil, err
	}
	return it, nil
}

func (it *MenuItem) Validate() error {
	if it.TenantID == uuid.Nil {
		return Invalidf("tenant ID is required")
	}
	if it.CategoryID == uuid.Nil {
		return Invalidf("category_id is required")
	}
	if err := validateName(it.Name); err != nil {
		return err
	}
	if err := validateDescription(it.Description); err != nil {
		return err
	}
	if it.PriceCents < 0 || it.PriceCents > MaxPriceCents {
		return Invalidf("price_cents must be between 0 and %d", MaxPriceCents)
	}
	if err := validateImageURL(it.ImageURL); err != nil {
		return err
	}
	if it.SortOrder < 0 {
		return Invalidf("sort_order must be >= 0")
	}
	return nil
}

func validateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return Invalidf("name is required")
	}
	if n > MaxNameLength {
		return Invalidf("name must be at most %d characters", MaxNameLength)
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return Invalidf("description must be at most %d characters", MaxDescriptionLength)
	}
	return nil
}

func validateImageURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > MaxImageURLLength {
		return Invalidf("image_url must be at most %d characters", MaxImageURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Invalidf("image_url must be an absolute http(s) URL")
	}
	return nil
}

// CategoryFilter narrows a category listing.
type CategoryFilter struct {
	ActiveOnly bool
}

// ItemFilter narrows a menu item listing. Zero values mean "no filter".
type ItemFilter struct {
	CategoryID    uuid.UUID
	AvailableOnly bool
	Search        string
	Limit         int
	Offset        int
}

type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)
	List(ctx context.Context, tenantID uuid.UUID, f CategoryFilter) ([]*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Count(ctx context.Context, tenantID uuid.UUID, f CategoryFilter) (int64, error)
}

type MenuItemRepository interface {
	Create(ctx context.Context, it *MenuItem) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*MenuItem, error)
	List(ctx context.Context, tenantID uuid.UUID, f ItemFilter) ([]*MenuItem, error)
	Update(ctx context.Context, it *MenuItem) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	Count(ctx context.Context, tenantID uuid.UUID, f ItemFilter) (int64, error)
}
