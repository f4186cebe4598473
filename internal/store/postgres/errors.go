package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gosuda/growplate/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// constraintMessages maps schema constraint names to client-facing text.
var constraintMessages = map[string]string{
	"tenants_subdomain_key":              "subdomain is already taken",
	"tenants_domain_key":                 "domain is already in use",
	"users_tenant_id_email_key":          "a user with this email already exists",
	"menu_categories_tenant_id_name_key": "a category with this name already exists",
	"menu_items_category_fkey":           "category still has menu items",
}

// errCategoryMismatch is returned when an item references a category that
// does not exist for the item's tenant.
var errCategoryMismatch = &domain.DetailError{
	Kind:   domain.ErrTenantMismatch,
	Detail: "category does not belong to this tenant",
}

// mapPgError converts constraint violations to domain.ErrConflict and
// leaves every other error untouched.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if msg, ok := constraintMessages[pgErr.ConstraintName]; ok {
			return domain.Conflict(msg)
		}
		return domain.Conflict("resource already exists")
	case pgForeignKeyViolation:
		if msg, ok := constraintMessages[pgErr.ConstraintName]; ok {
			return domain.Conflict(msg)
		}
		return domain.Conflict("referenced resource is in use or missing")
	}
	return err
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
