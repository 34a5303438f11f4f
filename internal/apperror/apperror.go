// Package apperror defines the application's error taxonomy.
//
// WHY A SHARED ERROR PACKAGE?
// Every layer needs to talk about the same kinds of failure: "the input was
// bad", "that habit doesn't exist", "the database broke". If each layer
// invented its own error types, the handler couldn't tell a 400 from a 404
// without string matching (fragile!). Instead, we define sentinel errors
// here and every layer wraps them. The handler then uses errors.Is() to map
// them to HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors — the "categories" of failure.
// errors.Is(err, ErrNotFound) works anywhere in the call chain as long as
// every wrap uses %w (or AppError's Unwrap).
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)

// AppError carries a sentinel plus a human-readable message.
// The sentinel (Err) is for machines — errors.Is checks.
// The Message is for humans — API responses and logs.
type AppError struct {
	Err     error  // one of the sentinels above
	Message string // human-readable description
	Field   string // optional: the input field that caused a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is/As walk through AppError to the sentinel inside.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that a resource doesn't exist — or doesn't exist in the
// requested subset (archiving an already-archived habit counts).
func NotFound(resource string, id int64) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %d", resource, id),
	}
}

// ValidationFailed reports malformed or missing input.
// No mutation has happened when this is returned.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a state clash, e.g. a duplicate row where uniqueness is
// required. HTTP handlers map this to 409.
func Conflict(resource, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s: %s", resource, message),
	}
}

// Storage wraps an underlying persistence failure. These are fatal to the
// individual request — never retried, surfaced as a generic internal error
// so database details don't leak to clients.
func Storage(op string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %v", ErrStorage, op, err),
		Message: fmt.Sprintf("storage failure during %s", op),
	}
}
