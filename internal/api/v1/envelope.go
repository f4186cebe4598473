package v1

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/growplate/internal/auth"
	"github.com/gosuda/growplate/internal/domain"
)

// Envelope wraps every successful response body.
type Envelope[T any] struct {
	Success   bool      `json:"success"`
	Data      T         `json:"data"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Output is the huma response carrying an Envelope.
type Output[T any] struct {
	Body Envelope[T]
}

func ok[T any](data T) *Output[T] {
	return okMsg(data, "")
}

func okMsg[T any](data T, msg string) *Output[T] {
	return &Output[T]{Body: Envelope[T]{Success: true, Data: data, Message: msg, Timestamp: time.Now().UTC()}}
}

// ErrorEnvelope is the body of every failed operation. It replaces huma's
// problem+json model so clients see one error shape across the service.
type ErrorEnvelope struct {
	Success   bool      `json:"success"`
	Err       string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	status int
}

func (e *ErrorEnvelope) Error() string  { return e.Err }
func (e *ErrorEnvelope) GetStatus() int { return e.status }

func init() {
	huma.NewError = newErrorEnvelope
}

// newErrorEnvelope builds the error body for huma. Request validation
// failures (422 in huma) are reported as 400.
func newErrorEnvelope(status int, msg string, errs ...error) huma.StatusError {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}

	e := &ErrorEnvelope{Err: msg, Timestamp: time.Now().UTC(), status: status}
	if status >= http.StatusInternalServerError {
		return e
	}

	details := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			details = append(details, err.Error())
		}
	}
	e.Message = strings.Join(details, "; ")
	return e
}

// apiError maps a service or repository error onto the HTTP error model.
// Unexpected errors are logged and reported without detail.
func apiError(err error, resource string) error {
	detail := domain.Detail(err)

	switch {
	case errors.Is(err, domain.ErrValidation):
		return huma.Error400BadRequest(orDefault(detail, "validation failed"))
	case errors.Is(err, domain.ErrConflict):
		return huma.Error400BadRequest(orDefault(detail, "constraint violation"))
	case errors.Is(err, domain.ErrTenantMismatch):
		return huma.Error400BadRequest(orDefault(detail, "tenant mismatch"))
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(resource + " not found")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return huma.Error401Unauthorized("invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, domain.ErrUnauthorized):
		return huma.Error401Unauthorized("invalid or expired token")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("insufficient permissions")
	default:
		log.Error().Err(err).Str("resource", resource).Msg("request failed")
		return huma.Error500InternalServerError("internal server error")
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
