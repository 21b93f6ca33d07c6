/*
Copyright 2026 The Sentinelguard Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package apperrors implements the error taxonomy shared by every component:
// validation, authorization, not-found, conflict, transient-external,
// permanent-external, persistence, and internal. Handlers map an AppError's
// Type to an HTTP status code and a safe, caller-facing message.
package apperrors

import "fmt"

// ErrorType classifies an AppError into one of the taxonomy kinds.
type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeAuth              ErrorType = "authorization"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeConflict          ErrorType = "conflict"
	ErrorTypeTransientExternal ErrorType = "transient_external"
	ErrorTypePermanentExternal ErrorType = "permanent_external"
	ErrorTypePersistence       ErrorType = "persistence"
	ErrorTypeInternal          ErrorType = "internal"
)

var statusCodes = map[ErrorType]int{
	ErrorTypeValidation:        400,
	ErrorTypeAuth:              401,
	ErrorTypeNotFound:          404,
	ErrorTypeConflict:          409,
	ErrorTypeTransientExternal: 502,
	ErrorTypePermanentExternal: 502,
	ErrorTypePersistence:       500,
	ErrorTypeInternal:          500,
}

// AppError is the structured error type propagated out of every component.
type AppError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Details    string
	Cause      error
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// New creates an AppError of the given type with no underlying cause.
func New(t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message, StatusCode: statusCodes[t]}
}

// Newf creates an AppError with a formatted message.
func Newf(t ErrorType, format string, args ...any) *AppError {
	return New(t, fmt.Sprintf(format, args...))
}

// Wrap creates an AppError of the given type around an underlying cause.
func Wrap(cause error, t ErrorType, message string) *AppError {
	err := New(t, message)
	err.Cause = cause
	return err
}

// Wrapf creates a wrapped AppError with a formatted message.
func Wrapf(cause error, t ErrorType, format string, args ...any) *AppError {
	return Wrap(cause, t, fmt.Sprintf(format, args...))
}

// WithDetails sets Details in place and returns the same error for chaining.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithDetailsf sets a formatted Details string in place.
func (e *AppError) WithDetailsf(format string, args ...any) *AppError {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

// NewValidationError is a convenience constructor for the common case.
func NewValidationError(message string) *AppError { return New(ErrorTypeValidation, message) }

// NewDatabaseError wraps a persistence-layer failure as ErrorTypePersistence
// (the "database" name is kept; the persistence layer in this system is
// file-based, not a database, but the taxonomy entry is the same).
func NewDatabaseError(operation string, cause error) *AppError {
	return Wrapf(cause, ErrorTypePersistence, "database operation failed: %s", operation)
}

// NewNotFoundError reports a missing resource by its kind.
func NewNotFoundError(resource string) *AppError {
	return Newf(ErrorTypeNotFound, "%s not found", resource)
}

// NewAuthError reports an authentication/authorization failure.
func NewAuthError(message string) *AppError { return New(ErrorTypeAuth, message) }

// NewTimeoutError reports an operation that exceeded its deadline.
func NewTimeoutError(operation string) *AppError {
	return Newf(ErrorTypeTransientExternal, "operation timed out: %s", operation)
}

// NewConflictError reports an illegal state transition.
func NewConflictError(message string) *AppError { return New(ErrorTypeConflict, message) }

// IsType reports whether err is an *AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var ae *AppError
	if e, ok := err.(*AppError); ok {
		ae = e
	} else {
		return false
	}
	return ae.Type == t
}

// GetType extracts the ErrorType of err, defaulting to ErrorTypeInternal.
func GetType(err error) ErrorType {
	if e, ok := err.(*AppError); ok {
		return e.Type
	}
	return ErrorTypeInternal
}

// GetStatusCode extracts the HTTP status code that should be returned for err.
func GetStatusCode(err error) int {
	if e, ok := err.(*AppError); ok {
		return e.StatusCode
	}
	return 500
}

// ErrorMessages holds the generic, caller-safe strings used in place of
// internal error detail for error types that must not leak implementation
// information to an API caller.
var ErrorMessages = struct {
	ResourceNotFound       string
	AuthenticationFailed   string
	OperationTimeout       string
	RateLimitExceeded      string
	ConcurrentModification string
	InternalError          string
}{
	ResourceNotFound:       "The requested resource was not found",
	AuthenticationFailed:   "Authentication failed",
	OperationTimeout:       "The operation timed out",
	RateLimitExceeded:      "Too many requests, please try again later",
	ConcurrentModification: "The resource was modified by another request",
	InternalError:          "An internal error occurred",
}

// SafeErrorMessage returns a message safe to show an API caller: validation
// messages pass through verbatim (they describe the caller's own mistake),
// everything else is mapped to a generic, non-leaking string.
func SafeErrorMessage(err error) string {
	ae, ok := err.(*AppError)
	if !ok {
		return "An unexpected error occurred"
	}
	switch ae.Type {
	case ErrorTypeValidation:
		return ae.Message
	case ErrorTypeNotFound:
		return ErrorMessages.ResourceNotFound
	case ErrorTypeAuth:
		return ErrorMessages.AuthenticationFailed
	case ErrorTypeTransientExternal, ErrorTypePermanentExternal:
		return ErrorMessages.OperationTimeout
	case ErrorTypeConflict:
		return ErrorMessages.ConcurrentModification
	default:
		return ErrorMessages.InternalError
	}
}
