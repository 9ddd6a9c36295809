// Package apperror defines the error taxonomy shared by the service and
// handler layers.
//
// Services return these typed errors; handlers translate them to HTTP status
// codes. Any error that is not an *AppError is treated as a store failure and
// surfaces as a generic 500.
//
// SENTINELS + WRAPPER:
// A sentinel (ErrNotFound, ...) names the category and is what callers test
// with errors.Is. An *AppError carries the caller-facing message and, for
// validation, the offending field. Unwrap links the two:
//
//	err := ValidationFailed("dateTime", "dateTime is required")
//	errors.Is(err, ErrValidation)  // true
//	err.Error()                     // "dateTime is required"
//
// Because Unwrap chains through fmt.Errorf("...: %w", err), a store layer can
// add context to a NotFound without hiding its category.
package apperror

import (
	"errors"
	"fmt"
)

// Error categories. The handler layer maps them to 404, 400 and 401.
var (
	// ErrNotFound: no meal with that id belongs to the caller.
	ErrNotFound = errors.New("not found")
	// ErrValidation: the request body or a path parameter is invalid.
	ErrValidation = errors.New("Validation Error")
	// ErrUnauthorized: the request carries no caller identity.
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError is an error with a category, a message safe to show to the
// caller, and an optional field name.
type AppError struct {
	Err     error  // category sentinel
	Message string // caller-facing message
	Field   string // request field at fault, validation only
}

// Error returns the caller-facing message.
func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the category sentinel to errors.Is.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that resource id does not exist for the caller. A meal
// owned by someone else is reported the same way.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports an invalid field. HTTP handlers map this to
// 400 Bad Request.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized returns an AppError for a request that carries no caller
// identity. HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
