// Package errors provides the structured error type used across compass.
package errors

import (
	"fmt"
)

// CompassError is the structured error type for compass.
// It carries a stable code for logging and operator-facing reporting.
type CompassError struct {
	// Code is the unique error code (e.g., "ERR_STORE_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error
}

// Error implements the error interface.
func (e *CompassError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *CompassError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with CompassError.
func (e *CompassError) Is(target error) bool {
	if t, ok := target.(*CompassError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *CompassError) WithDetail(key, value string) *CompassError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new CompassError with the given code and message.
func New(code string, message string, cause error) *CompassError {
	return &CompassError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrap creates a CompassError from an existing error.
// The error's message becomes the CompassError message.
func Wrap(code string, err error) *CompassError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// GetCode extracts the error code from a CompassError.
// Returns empty string if not a CompassError.
func GetCode(err error) string {
	if ce, ok := err.(*CompassError); ok {
		return ce.Code
	}
	return ""
}
