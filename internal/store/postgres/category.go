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

const categoryColumns = `id, tenant_id, name, description, sort_order, is_active, created_at, updated_at`

type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO menu_categories (id, tenant_id, name, description, sort_order, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.TenantID, c.Name, c.Description, c.SortOrder, c.IsActive, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("categoryRepo.Create: %w", mapPgError(err))
	}

	return nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Category, error) {
	sql, args, err := newScopedQuery(`SELECT `+categoryColumns+` FROM menu_categories`, tenantID).
		And(`id = ?`, id).
		Build()
	if err != nil {
		return nil, fmt.Errorf("categoryRepo.GetByID: %w", err)
	}

	c, err := scanCategory(r.pool.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("categoryRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("categoryRepo.GetByID: %w", err)
	}

	return c, nil
}

func (r *CategoryRepo) List(ctx context.Context, tenantID uuid.UUID, f domain.CategoryFilter) ([]*domain.Category, error) {
	q := newScopedQuery(`SELECT `+categoryColumns+` FROM menu_categories`, tenantID)
	applyCategoryFilter(q, f)

	sql, args, err := q.Tail(`ORDER BY sort_order, name`).Build()
	if err != nil {
		return nil, fmt.Errorf("categoryRepo.List: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("categoryRepo.List: %w", err)
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("categoryRepo.List: scan: %w", err)
		}
		categories = append(categories, c)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("categoryRepo.List: rows: %w", err)
	}

	return categories, nil
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	sql, args, err := newScopedUpdate(`menu_categories`,
		`name = ?, description = ?, sort_order = ?, is_active = ?, updated_at = now()`,
		c.TenantID, c.Name, c.Description, c.SortOrder, c.IsActive).
		And(`id = ?`, c.ID).
		Tail(`RETURNING updated_at`).
		Build()
	if err != nil {
		return fmt.Errorf("categoryRepo.Update: %w", err)
	}

	err = r.pool.QueryRow(ctx, sql, args...).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("categoryRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("categoryRepo.Update: %w", mapPgError(err))
	}

	return nil
}

func (r *CategoryRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	sql, args, err := newScopedQuery(`DELETE FROM menu_categories`, tenantID).
		And(`id = ?`, id).
		Build()
	if err != nil {
		return fmt.Errorf("categoryRepo.Delete: %w", err)
	}

	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("categoryRepo.Delete: %w", mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("categoryRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *CategoryRepo) Count(ctx context.Context, tenantID uuid.UUID, f domain.CategoryFilter) (int64, error) {
	q := newScopedQuery(`SELECT count(*) FROM menu_categories`, tenantID)
	applyCategoryFilter(q, f)

	sql, args, err := q.Build()
	if err != nil {
		return 0, fmt.Errorf("categoryRepo.Count: %w", err)
	}

	var n int64
	err = r.pool.QueryRow(ctx, sql, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("categoryRepo.Count: %w", err)
	}

	return n, nil
}

func applyCategoryFilter(q *scopedQuery, f domain.CategoryFilter) {
	if f.ActiveOnly {
		q.And(`is_active = TRUE`)
	}
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.SortOrder, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
