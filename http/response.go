package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shareustc/shareustc"
)

// Envelope wraps every successful response body.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Code    int    `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError writes appropriate error response based on error type.
// Upstream and configuration details are logged, never returned.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var authErr *shareustc.AuthError
	switch {
	case errors.As(err, &authErr):
		slog.DebugContext(ctx, "request unauthorized", "path", r.URL.Path, "code", authErr.Code, "error", err)
		WriteError(w, http.StatusUnauthorized, string(authErr.Code), authErr.Message())

	case errors.Is(err, shareustc.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")

	case errors.Is(err, shareustc.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")

	case errors.Is(err, shareustc.ErrValidation):
		slog.DebugContext(ctx, "request rejected", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())

	case errors.Is(err, shareustc.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Not found")

	case errors.Is(err, shareustc.ErrConfig):
		slog.ErrorContext(ctx, "service misconfigured", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, "config_error", "Service is not configured")

	case errors.Is(err, shareustc.ErrRequest), errors.Is(err, shareustc.ErrService):
		slog.ErrorContext(ctx, "object storage call failed", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusBadGateway, "upstream_error", "Object storage service unavailable")

	default:
		slog.ErrorContext(ctx, "request error", "path", r.URL.Path, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}

// WriteData writes a 200 response wrapped in an Envelope.
func WriteData(w http.ResponseWriter, message string, data any) {
	if err := WriteJSON(w, http.StatusOK, Envelope{Code: http.StatusOK, Message: message, Data: data}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
