package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/growplate/internal/domain"
)

// tenantColumns selects a tenant row together with its feature overrides
// folded into a single JSON object.
const tenantColumns = `t.id, t.name, t.domain, t.subdomain, t.settings, t.created_at, t.updated_at,
	COALESCE((SELECT jsonb_object_agg(f.feature_key, f.enabled)
	          FROM tenant_features f WHERE f.tenant_id = t.id), '{}'::jsonb)`

type TenantRepo struct {
	pool *pgxpool.Pool
}

func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{pool: pool}
}

func (r *TenantRepo) Create(ctx context.Context, t *domain.Tenant) error {
	if len(t.Settings) == 0 {
		t.Settings = json.RawMessage(`{}`)
	}
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = t.CreatedAt

	_, err := r.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, domain, subdomain, settings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, nilIfEmpty(t.Domain), t.Subdomain, t.Settings, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("tenantRepo.Create: %w", mapPgError(err))
	}

	t.Features = domain.DefaultFeatures()

	return nil
}

func (r *TenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t, err := r.getOne(ctx, `t.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.GetByID: %w", err)
	}
	return t, nil
}

func (r *TenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	t, err := r.getOne(ctx, `t.subdomain = $1`, subdomain)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.GetBySubdomain: %w", err)
	}
	return t, nil
}

func (r *TenantRepo) GetByDomain(ctx context.Context, domainName string) (*domain.Tenant, error) {
	t, err := r.getOne(ctx, `t.domain = $1`, domainName)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.GetByDomain: %w", err)
	}
	return t, nil
}

func (r *TenantRepo) getOne(ctx context.Context, where string, arg any) (*domain.Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE `+where, arg)

	t, err := scanTenant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TenantRepo) Update(ctx context.Context, t *domain.Tenant) error {
	if len(t.Settings) == 0 {
		t.Settings = json.RawMessage(`{}`)
	}

	err := r.pool.QueryRow(ctx,
		`UPDATE tenants SET name = $1, domain = $2, settings = $3, updated_at = now()
		 WHERE id = $4
		 RETURNING updated_at`,
		t.Name, nilIfEmpty(t.Domain), t.Settings, t.ID,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("tenantRepo.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("tenantRepo.Update: %w", mapPgError(err))
	}

	return nil
}

func (r *TenantRepo) List(ctx context.Context) ([]*domain.Tenant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants t ORDER BY t.created_at LIMIT 500`,
	)
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.List: %w", err)
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("tenantRepo.List: scan: %w", err)
		}
		tenants = append(tenants, t)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("tenantRepo.List: rows: %w", err)
	}

	return tenants, nil
}

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	var (
		t         domain.Tenant
		domainCol *string
		overrides map[string]bool
	)

	err := row.Scan(&t.ID, &t.Name, &domainCol, &t.Subdomain, &t.Settings, &t.CreatedAt, &t.UpdatedAt, &overrides)
	if err != nil {
		return nil, err
	}

	t.Domain = derefStr(domainCol)
	t.Features = domain.EffectiveFeatures(overrides)

	return &t, nil
}
