package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/growplate/internal/domain"
)

type Store struct {
	pool       *pgxpool.Pool
	tenants    *TenantRepo
	features   *FeatureRepo
	categories *CategoryRepo
	items      *MenuItemRepo
	users      *UserRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return NewFromPool(pool), nil
}

// NewFromPool wraps an existing pool. The Store takes ownership of it.
func NewFromPool(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:       pool,
		tenants:    NewTenantRepo(pool),
		features:   NewFeatureRepo(pool),
		categories: NewCategoryRepo(pool),
		items:      NewMenuItemRepo(pool),
		users:      NewUserRepo(pool),
	}
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Tenants() domain.TenantRepository      { return s.tenants }
func (s *Store) Features() domain.FeatureRepository    { return s.features }
func (s *Store) Categories() domain.CategoryRepository { return s.categories }
func (s *Store) Items() domain.MenuItemRepository      { return s.items }
func (s *Store) Users() domain.UserRepository          { return s.users }
