package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/growplate/internal/domain"
)

const itemColumns = `id, tenant_id, category_id, name, description, price_cents, image_url, is_available, sort_order, created_at, updated_at`

type MenuItemRepo struct {
	pool *pgxpool.Pool
}

func NewMenuItemRepo(pool *pgxpool.Pool) *MenuItemRepo {
	return &MenuItemRepo{pool: pool}
}

func (r *MenuItemRepo) Create(ctx context.Context, it *domain.MenuItem) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO menu_items (id, tenant_id, category_id, name, description, price_cents, image_url, is_available, sort_order, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		it.ID, it.TenantID, it.CategoryID, it.Name, it.Description, it.PriceCents,
		nilIfEmpty(it.ImageURL), it.IsAvailable, it.SortOrder, it.CreatedAt, it.UpdatedAt,
	)
	if isPgCode(err, pgForeignKeyViolation) {
		return fmt.Errorf("menuItemRepo.Create: %w", errCategoryMismatch)
	}
	if err != nil {
		return fmt.Errorf("menuItemRepo.Create: %w", mapPgError(err))
	}

	return nil
}

func (r *MenuItemRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.MenuItem, error) {
	sql, args, err := newScopedQuery(`SELECT `+itemColumns+` FROM menu_items`, tenantID).
		And(`id = ?`, id).
		Build()
	if err != nil {
		return nil, fmt.Errorf("menuItemRepo.GetByID: %w", err)
	}

	it, err := scanItem(r.pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("menuItemRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("menuItemRepo.GetByID: %w", err)
	}

	return it, nil
}

func (r *MenuItemRepo) List(ctx context.Context, tenantID uuid.UUID, f domain.ItemFilter) ([]*domain.MenuItem, error) {
	q := newScopedQuery(`SELECT `+itemColumns+` FROM menu_items`, tenantID)
	applyItemFilter(q, f)
	q.Tail(`ORDER BY sort_order, name, id`)
	if f.Limit > 0 {
		q.Tail(`LIMIT ?`, f.Limit)
	}
	if f.Offset > 0 {
		q.Tail(`OFFSET ?`, f.Offset)
	}

	sql, args, err := q.Build()
	if err != nil {
		return nil, fmt.Errorf("menuItemRepo.List: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("menuItemRepo.List: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.MenuItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("menuItemRepo.List: scan: %w", err)
		}
		items = append(items, it)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("menuItemRepo.List: rows: %w", err)
	}

	return items, nil
}

func (r *MenuItemRepo) Update(ctx context.Context, it *domain.MenuItem) error {
	sql, args, err := newScopedUpdate(`menu_items`,
		`category_id = ?, name = ?, description = ?, price_cents = ?, image_url = ?, is_available = ?, sort_order = ?, updated_at = now()`,
		it.TenantID, it.CategoryID, it.Name, it.Description, it.PriceCents, nilIfEmpty(it.ImageURL), it.IsAvailable, it.SortOrder).
		And(`id = ?`, it.ID).
		Tail(`RETURNING updated_at`).
		Build()
	if err != nil {
		return fmt.Errorf("menuItemRepo.Update: %w", err)
	}

	err = r.pool.QueryRow(ctx, sql, args...).Scan(&it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("menuItemRepo.Update: %w", domain.ErrNotFound)
	}
	if isPgCode(err, pgForeignKeyViolation) {
		return fmt.Errorf("menuItemRepo.Update: %w", errCategoryMismatch)
	}
	if err != nil {
		return fmt.Errorf("menuItemRepo.Update: %w", mapPgError(err))
	}

	return nil
}

func (r *MenuItemRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	sql, args, err := newScopedQuery(`DELETE FROM menu_items`, tenantID).
		And(`id = ?`, id).
		Build()
	if err != nil {
		return fmt.Errorf("menuItemRepo.Delete: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("menuItemRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("menuItemRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *MenuItemRepo) Count(ctx context.Context, tenantID uuid.UUID, f domain.ItemFilter) (int64, error) {
	q := newScopedQuery(`SELECT count(*) FROM menu_items`, tenantID)
	applyItemFilter(q, f)

	sql, args, err := q.Build()
	if err != nil {
		return 0, fmt.Errorf("menuItemRepo.Count: %w", err)
	}

	var n int64
	err = r.pool.QueryRow(ctx, sql, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("menuItemRepo.Count: %w", err)
	}

	return n, nil
}

func applyItemFilter(q *scopedQuery, f domain.ItemFilter) {
	if f.CategoryID != uuid.Nil {
		q.And(`category_id = ?`, f.CategoryID)
	}
	if f.AvailableOnly {
		q.And(`is_available = TRUE`)
	}
	if f.Search != "" {
		q.And(`to_tsvector('simple', name || ' ' || description) @@ plainto_tsquery('simple', ?)`, f.Search)
	}
}

func scanItem(row pgx.Row) (*domain.MenuItem, error) {
	var (
		it       domain.MenuItem
		imageURL *string
	)
	err := row.Scan(&it.ID, &it.TenantID, &it.CategoryID, &it.Name, &it.Description, &it.PriceCents,
		&imageURL, &it.IsAvailable, &it.SortOrder, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.ImageURL = derefStr(imageURL)
	return &it, nil
}
