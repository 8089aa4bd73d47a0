// Package errors provides structured error types for nugetaudit.
//
// Audit failures are reported to callers in two ways: as Go errors for
// contract violations and cancellation, and as messages inside an audit
// report for everything else. Both carry a [Code] so that the CLI and the
// HTTP API can map a failure to an exit status or response code without
// matching on message text.
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND_* / *_NOT_FOUND: Resource not found
//   - SOURCE_CONTROL_*: Repository metadata failures
//   - NETWORK_*, INTERNAL_*: Transport and unexpected errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "package id cannot be blank")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidRange   Code = "INVALID_RANGE"
	ErrCodeInvalidURL     Code = "INVALID_URL"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"
	ErrCodeVersionNotFound Code = "VERSION_NOT_FOUND"
	ErrCodeMissingPages    Code = "MISSING_CATALOG_PAGES"
	ErrCodeMissingPackages Code = "MISSING_CATALOG_PACKAGES"

	// Upstream document errors
	ErrCodeSchema Code = "SCHEMA_ERROR"

	// Source control errors
	ErrCodeSourceControl Code = "SOURCE_CONTROL_FAILURE"

	// Network errors
	ErrCodeNetwork  Code = "NETWORK_ERROR"
	ErrCodeCanceled Code = "CANCELED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Exit statuses returned by [ExitCode].
const (
	ExitFailure  = 1
	ExitUsage    = 2
	ExitCanceled = 130
)

// IsInput reports whether c is a caller mistake rather than an upstream or
// internal failure.
func (c Code) IsInput() bool {
	switch c {
	case ErrCodeInvalidInput, ErrCodeInvalidPackage, ErrCodeInvalidRange, ErrCodeInvalidURL, ErrCodeInvalidConfig:
		return true
	}
	return false
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// ExitCode maps err to a process exit status: 0 for nil, [ExitCanceled] for
// cancellation, [ExitUsage] for input errors and [ExitFailure] otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled), GetCode(err) == ErrCodeCanceled:
		return ExitCanceled
	case GetCode(err).IsInput():
		return ExitUsage
	default:
		return ExitFailure
	}
}
