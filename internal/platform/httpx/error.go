// Package httpx defines the JSON error envelope shared by every endpoint:
// {error, message, status} plus request_id and trace_id when known.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/tomychi/anhelo-dashboard-sub001/internal/platform/requestctx"
)

// Error represents the canonical JSON error envelope returned by the API.
type Error struct {
	Code      string
	Message   string
	Status    int
	RequestID string
	TraceID   string
	Details   map[string]any
}

// NewError constructs an Error, clamping code and message to sane lengths.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    sanitize(code, 80),
		Message: sanitize(message, 512),
		Status:  status,
	}
}

// WithDetails attaches additional JSON-serialisable metadata.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	e.Details = make(map[string]any, len(details))
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WriteError writes the structured error as JSON. Request and trace ids are
// pulled from context when the Error does not already carry them.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	envelope := map[string]any{
		"error":   err.Code,
		"message": err.Message,
		"status":  status,
	}
	if id := firstNonEmpty(err.RequestID, sanitize(middleware.GetReqID(ctx), 80)); id != "" {
		envelope["request_id"] = id
	}
	if id := firstNonEmpty(err.TraceID, sanitize(requestctx.TraceID(ctx), 64)); id != "" {
		envelope["trace_id"] = id
	}
	for k, v := range err.Details {
		envelope[k] = v
	}

	WriteJSON(w, status, envelope)
}

// WriteJSON writes a success payload with the provided status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func sanitize(value string, limit int) string {
	if limit <= 0 {
		limit = 256
	}
	value = strings.NewReplacer("\n", " ", "\r", " ").Replace(value)
	value = strings.TrimSpace(value)
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
