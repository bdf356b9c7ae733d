// Package errors provides structured error types for chartflow.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP adapter
//   - Machine-readable error codes for programmatic handling
//   - Recoverable diagnostics that degrade a chart instead of aborting it
//
// # Error Codes
//
// Structural input problems are returned as *Error values:
//   - INVALID_INPUT, INVALID_CONFIG, INVALID_FORMAT
//
// Pipeline conditions that the pipeline recovers from are recorded as
// [Diagnostic] values rather than returned:
//   - INVALID_DOMAIN: fallback domain substituted
//   - UNSUPPORTED_SCALE_COMBINATION: scale downgraded (log to linear)
//   - ACCESSOR_RESOLUTION_FAILURE: value treated as missing
//   - AMBIGUOUS_STACK_ORDER: declaration order used as tie-break
//   - NO_MATCHING_PARTITION_RULE: partition produced no tree
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "partition needs at least one layer")
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // Handle configuration error
//	}
//
//	var diags errors.Diagnostics
//	diags.Add(errors.ErrCodeInvalidDomain, "y:__global__", "no finite values, using [0, 1]")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Recoverable pipeline conditions
	ErrCodeInvalidDomain           Code = "INVALID_DOMAIN"
	ErrCodeUnsupportedScale        Code = "UNSUPPORTED_SCALE_COMBINATION"
	ErrCodeAccessorResolution      Code = "ACCESSOR_RESOLUTION_FAILURE"
	ErrCodeAmbiguousStackOrder     Code = "AMBIGUOUS_STACK_ORDER"
	ErrCodeNoMatchingPartitionRule Code = "NO_MATCHING_PARTITION_RULE"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

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
