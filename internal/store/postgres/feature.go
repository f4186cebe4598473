package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/growplate/internal/domain"
)

type FeatureRepo struct {
	pool *pgxpool.Pool
}

func NewFeatureRepo(pool *pgxpool.Pool) *FeatureRepo {
	return &FeatureRepo{pool: pool}
}

// List returns the tenant's effective flags.
func (r *FeatureRepo) List(ctx context.Context, tenantID uuid.UUID) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT feature_key, enabled FROM tenant_features WHERE tenant_id = $1`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("featureRepo.List: %w", err)
	}
	defer rows.Close()

	overrides := make(map[string]bool)
	for rows.Next() {
		var (
			key     string
			enabled bool
		)
		err = rows.Scan(&key, &enabled)
		if err != nil {
			return nil, fmt.Errorf("featureRepo.List: scan: %w", err)
		}
		overrides[key] = enabled
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("featureRepo.List: rows: %w", err)
	}

	return domain.EffectiveFeatures(overrides), nil
}

// Set upserts every flag in one transaction. Keys are validated by the caller.
func (r *FeatureRepo) Set(ctx context.Context, tenantID uuid.UUID, flags map[string]bool) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for key, enabled := range flags {
			batch.Queue(
				`INSERT INTO tenant_features (tenant_id, feature_key, enabled, updated_at)
				 VALUES ($1, $2, $3, now())
				 ON CONFLICT (tenant_id, feature_key)
				 DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = now()`,
				tenantID, key, enabled,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("featureRepo.Set: %w", mapPgError(err))
	}

	return nil
}
