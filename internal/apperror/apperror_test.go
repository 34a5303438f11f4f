package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// These tests pin down the error-chain behaviour the rest of the app relies
// on: errors.Is must find the sentinel no matter how many times the error
// has been wrapped on its way up from the repository to the handler.

func TestNotFound_MatchesSentinel(t *testing.T) {
	err := NotFound("habit", 42)

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("errors.Is(NotFound, ErrNotFound) = false, want true")
	}
	if errors.Is(err, ErrValidation) {
		t.Errorf("NotFound should not match ErrValidation")
	}
}

func TestValidationFailed_CarriesField(t *testing.T) {
	err := ValidationFailed("colour", "colour must be a hex value like #6c8cff")

	if !errors.Is(err, ErrValidation) {
		t.Errorf("errors.Is(ValidationFailed, ErrValidation) = false, want true")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("errors.As failed to extract *AppError")
	}
	if appErr.Field != "colour" {
		t.Errorf("Field = %q, want %q", appErr.Field, "colour")
	}
	if appErr.Message != "colour must be a hex value like #6c8cff" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

// TestWrappedError verifies that errors.Is survives additional %w wrapping —
// the service layer does this constantly ("checking in habit: %w").
func TestWrappedError(t *testing.T) {
	inner := NotFound("habit", 7)
	wrapped := fmt.Errorf("checking in habit: %w", inner)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Errorf("errors.Is should walk through fmt.Errorf wrapping")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatalf("errors.As should extract *AppError through wrapping")
	}
	if appErr.Message != "habit not found with id 7" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestStorage_MatchesSentinelAndHidesDetail(t *testing.T) {
	dbErr := errors.New("database is locked")
	err := Storage("recording check-in", dbErr)

	if !errors.Is(err, ErrStorage) {
		t.Errorf("errors.Is(Storage, ErrStorage) = false, want true")
	}
	// The client-facing message must not contain the raw database error.
	if err.Message != "storage failure during recording check-in" {
		t.Errorf("Message = %q, leaks internal detail?", err.Message)
	}
}

func TestConflict_MatchesSentinel(t *testing.T) {
	err := Conflict("check-in", "already recorded for this day")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("errors.Is(Conflict, ErrConflict) = false, want true")
	}
}
