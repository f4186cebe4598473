package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound       = errors.New("domain: not found")
	ErrConflict       = errors.New("domain: conflict")
	ErrValidation     = errors.New("domain: validation failed")
	ErrTenantMismatch = errors.New("domain: tenant mismatch")
	ErrUnauthorized   = errors.New("domain: unauthorized")
	ErrForbidden      = errors.New("domain: forbidden")
)

// DetailError attaches a client-safe message to one of the sentinels.
type DetailError struct {
	Kind   error
	Detail string
}

func (e *DetailError) Error() string { return e.Kind.Error() + ": " + e.Detail }
func (e *DetailError) Unwrap() error { return e.Kind }

// Invalidf returns an ErrValidation carrying a formatted detail.
func Invalidf(format string, args ...any) error {
	return &DetailError{Kind: ErrValidation, Detail: fmt.Sprintf(format, args...)}
}

// Conflict returns an ErrConflict carrying detail.
func Conflict(detail string) error {
	return &DetailError{Kind: ErrConflict, Detail: detail}
}

// Detail returns the client-safe message attached anywhere in err's chain,
// or "" if there is none.
func Detail(err error) string {
	var de *DetailError
	if errors.As(err, &de) {
		return de.Detail
	}
	return ""
}
