package handler

// RESPONSE HELPERS:
// Every handler needs to send JSON and map errors to status codes. Doing it
// once here keeps handlers short and guarantees every error response has
// the same shape:
//
//	{"error": "not_found", "message": "habit not found with id 42"}
//
// The frontend always knows what fields to expect, whether it got a 400,
// 404, 409 or 500.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jonathanm/habit-tracker/internal/apperror"
)

// ErrorResponse is the standard error body for all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable type ("not_found", ...)
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// Order matters: headers must be set before WriteHeader, and WriteHeader
// before the body — once the body starts, headers are already on the wire.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are gone; all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError translates a domain error into an HTTP response.
//
// The service layer returns apperror sentinels; this is the single place
// they become status codes. errors.Is walks the whole wrap chain, so
// "checking in habit: %w(AppError{ErrNotFound})" still maps to 404.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrStorage):
			// Storage failures stay 500, but AppError's message is already
			// scrubbed of database detail, so it's safe to send.
			status = http.StatusInternalServerError
			errorType = "storage_error"
		}

		writeJSON(w, status, ErrorResponse{Error: errorType, Message: appErr.Message})
		return
	}

	// Unknown error — generic 500. Never leak raw error strings to clients:
	// they can contain SQL fragments or file paths.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
