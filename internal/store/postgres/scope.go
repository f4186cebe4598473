package postgres

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var errNilTenant = errors.New("postgres: tenant ID is required for scoped queries")

// scopedQuery builds a statement whose first predicate is always
// tenant_id = $1. Conditions are written with ? placeholders and numbered
// in order as they are appended, so callers never splice values into SQL.
// Condition text must not contain a literal '?'.
type scopedQuery struct {
	sb   strings.Builder
	args []any
	err  error
}

// newScopedQuery starts a query from base, a SELECT/UPDATE/DELETE prefix
// without a WHERE clause.
func newScopedQuery(base string, tenantID uuid.UUID) *scopedQuery {
	q := startScoped(tenantID)
	q.sb.WriteString(strings.TrimSpace(base))
	q.sb.WriteString(" WHERE tenant_id = $1")
	return q
}

// newScopedUpdate starts "UPDATE <table> SET <assignments> WHERE
// tenant_id = $1". Assignment placeholders are numbered from $2.
func newScopedUpdate(table, assignments string, tenantID uuid.UUID, args ...any) *scopedQuery {
	q := startScoped(tenantID)
	q.sb.WriteString("UPDATE " + table + " SET ")
	q.write(assignments, args)
	q.sb.WriteString(" WHERE tenant_id = $1")
	return q
}

func startScoped(tenantID uuid.UUID) *scopedQuery {
	q := &scopedQuery{args: []any{tenantID}}
	if tenantID == uuid.Nil {
		q.err = errNilTenant
	}
	return q
}

// And appends " AND <cond>".
func (q *scopedQuery) And(cond string, args ...any) *scopedQuery {
	q.sb.WriteString(" AND ")
	q.write(cond, args)
	return q
}

// Tail appends a trailing clause such as ORDER BY, LIMIT or RETURNING.
func (q *scopedQuery) Tail(clause string, args ...any) *scopedQuery {
	q.sb.WriteString(" ")
	q.write(clause, args)
	return q
}

// Build returns the statement and its positional arguments.
func (q *scopedQuery) Build() (string, []any, error) {
	if q.err != nil {
		return "", nil, q.err
	}
	return q.sb.String(), q.args, nil
}

func (q *scopedQuery) write(fragment string, args []any) {
	if q.err != nil {
		return
	}
	if n := strings.Count(fragment, "?"); n != len(args) {
		q.err = fmt.Errorf("postgres: %q has %d placeholders, got %d args", fragment, n, len(args))
		return
	}
	for i := range len(fragment) {
		if fragment[i] != '?' {
			q.sb.WriteByte(fragment[i])
			continue
		}
		q.args = append(q.args, args[0])
		args = args[1:]
		q.sb.WriteByte('$')
		q.sb.WriteString(strconv.Itoa(len(q.args)))
	}
}
