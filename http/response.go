package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dkarimov/petal"
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

// HandleError writes appropriate error response based on error type
func HandleError(w http.ResponseWriter, err error) {
	slog.Error("request error", "error", err)

	if errors.Is(err, petal.ErrNotFound) {
		WriteError(w, http.StatusNotFound, "not_found", "Photo not found")
		return
	}

	if errors.Is(err, petal.ErrInvalidInput) {
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
		return
	}

	if errors.Is(err, petal.ErrUnavailable) {
		WriteError(w, http.StatusServiceUnavailable, "backend_unavailable",
			"Backend temporarily unavailable. This is normal during deployment.")
		return
	}

	// Generic backend failure: surface the underlying message, don't swallow it
	WriteError(w, http.StatusInternalServerError, "internal_error", err.Error())
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, code int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(data)
}
