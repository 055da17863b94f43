package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmorandi/docvault"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes a JSON error response
func WriteError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	}); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// HandleError maps the domain error taxonomy onto HTTP status codes.
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	switch {
	case errors.Is(err, docvault.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
	case errors.Is(err, docvault.ErrForbidden):
		WriteError(w, http.StatusForbidden, "forbidden", "Access denied")
	case errors.Is(err, docvault.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Document not found")
	case errors.Is(err, docvault.ErrValidation):
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, docvault.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", "Resource conflict")
	case errors.Is(err, docvault.ErrGatewayUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "storage_unavailable", "Blob store unreachable")
	case errors.Is(err, docvault.ErrRepositoryUnavailable):
		WriteError(w, http.StatusServiceUnavailable, "metadata_unavailable", "Metadata backend unreachable")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
