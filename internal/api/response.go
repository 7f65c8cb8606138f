package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/congregation"
	"github.com/zapponejosh/lesson-designer/internal/content"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
	"github.com/zapponejosh/lesson-designer/internal/lesson"
	"github.com/zapponejosh/lesson-designer/internal/logger"
)

// Error codes carried in ErrorInfo.Code.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeInvalidDate  = "INVALID_DATE"
	CodeNoContent    = "NO_CONTENT"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_ERROR"
	CodeUnavailable  = "HEALTH_CHECK_FAILED"
)

// Response represents a standard API response.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, status int, detail, code string) error {
	return WriteJSON(w, status, Response{
		Success: false,
		Error:   &ErrorInfo{Detail: detail, Code: code},
	})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, detail string) error {
	return WriteError(w, http.StatusNotFound, detail, CodeNotFound)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, detail string) error {
	return WriteError(w, http.StatusBadRequest, detail, CodeBadRequest)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, detail string) error {
	return WriteError(w, http.StatusInternalServerError, detail, CodeInternal)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, detail string) error {
	return WriteError(w, http.StatusUnauthorized, detail, CodeUnauthorized)
}

// WriteServiceError maps a core error to its status and code. Anything
// unrecognized is logged and reported as a 500 without internal detail.
func WriteServiceError(w http.ResponseWriter, r *http.Request, base *slog.Logger, err error) error {
	switch {
	case calendar.IsInvalidDate(err):
		return WriteError(w, http.StatusBadRequest, err.Error(), CodeInvalidDate)
	case lesson.IsInvalidRequest(err), errors.Is(err, calendar.ErrInvalidWindow):
		return WriteBadRequest(w, err.Error())
	case content.IsNoContentFound(err):
		return WriteError(w, http.StatusNotFound, err.Error(), CodeNoContent)
	case congregation.IsNotFound(err):
		return WriteNotFound(w, err.Error())
	case dataset.IsIntegrity(err):
		logger.Error(r.Context(), base, "dataset rejected", err, slog.String("path", r.URL.Path))
		return WriteError(w, http.StatusUnprocessableEntity, err.Error(), CodeBadRequest)
	default:
		logger.Error(r.Context(), base, "request failed", err, slog.String("path", r.URL.Path))
		return WriteInternalError(w, "Internal server error")
	}
}
