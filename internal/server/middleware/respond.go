package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrorBody is the JSON envelope for every failed response.
type ErrorBody struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewErrorBody returns an ErrorBody stamped with the current time.
func NewErrorBody(errMsg, message string) ErrorBody {
	return ErrorBody{Error: errMsg, Message: message, Timestamp: time.Now().UTC()}
}

// WriteError writes an error envelope with the given status.
func WriteError(w http.ResponseWriter, status int, errMsg string) {
	writeJSON(w, status, NewErrorBody(errMsg, ""))
}

// NotFound and MethodNotAllowed replace the router's plain-text defaults.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "route not found")
}

func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("middleware: write response")
	}
}
