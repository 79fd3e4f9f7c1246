package problem

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Problem is an RFC 7807 problem+json payload.
type Problem struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Fields map[string][]string `json:"fields,omitempty"`
}

const (
	TypeValidation = "https://paroquiaemdia.app/problems/validation-error"
	TypeNotFound   = "https://paroquiaemdia.app/problems/not-found"
	TypeConflict   = "https://paroquiaemdia.app/problems/conflict"
	TypeForbidden  = "https://paroquiaemdia.app/problems/forbidden"
	TypeInternal   = "https://paroquiaemdia.app/problems/internal-error"
)

// Write serializes the problem onto the response with the problem media type.
func Write(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Validation writes a 422 with per-field messages.
func Validation(w http.ResponseWriter, fields map[string][]string) {
	Write(w, Problem{
		Type:   TypeValidation,
		Title:  "Validation failed",
		Status: http.StatusUnprocessableEntity,
		Fields: fields,
	})
}

// BadRequest writes a 400 with a detail message.
func BadRequest(w http.ResponseWriter, detail string) {
	Write(w, Problem{
		Type:   TypeValidation,
		Title:  "Invalid request",
		Status: http.StatusBadRequest,
		Detail: detail,
	})
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, detail string) {
	Write(w, Problem{
		Type:   TypeNotFound,
		Title:  "Not found",
		Status: http.StatusNotFound,
		Detail: detail,
	})
}

// Conflict writes a 409.
func Conflict(w http.ResponseWriter, detail string) {
	Write(w, Problem{
		Type:   TypeConflict,
		Title:  "Conflict",
		Status: http.StatusConflict,
		Detail: detail,
	})
}

// Forbidden writes a 403.
func Forbidden(w http.ResponseWriter, detail string) {
	Write(w, Problem{
		Type:   TypeForbidden,
		Title:  "Forbidden",
		Status: http.StatusForbidden,
		Detail: detail,
	})
}

// Internal logs the error and writes a generic 500 without leaking detail.
func Internal(w http.ResponseWriter, logger *zap.Logger, operation string, err error) {
	if logger != nil {
		logger.Error("internal error", zap.String("operation", operation), zap.Error(err))
	}
	Write(w, Problem{
		Type:   TypeInternal,
		Title:  "Internal server error",
		Status: http.StatusInternalServerError,
	})
}
