// Package errors provides structured error types for gpm.
//
// Errors carry a machine-readable [Code] so that callers can tell the error
// categories apart without string matching:
//   - CONFLICT: two dependents disagree on a shared dependency
//   - MISSING_DATA: a required branch, commit, repo or context is absent
//   - NOT_FOUND: a named package or file cannot be resolved
//   - PRECONDITION: a filesystem state forbids the operation
//   - VCS_FAILED: the version-control tool reported a failure
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConflict, "%s depends on %s %s", a, pkg, commit)
//	if errors.Is(err, errors.ErrCodeConflict) {
//	    // Surface to the user, never auto-resolve
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeVCS, origErr, "failed to pull %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Consistency errors
	ErrCodeConflict Code = "CONFLICT"
	ErrCodeCycle    Code = "CYCLE"

	// Missing-required-data errors
	ErrCodeMissingData Code = "MISSING_DATA"
	ErrCodeNotFound    Code = "NOT_FOUND"

	// Input validation errors
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidURL      Code = "INVALID_URL"
	ErrCodeInvalidPackage  Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidInput    Code = "INVALID_INPUT"

	// Filesystem precondition errors
	ErrCodePrecondition Code = "PRECONDITION"

	// External tool errors
	ErrCodeVCS Code = "VCS_FAILED"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// For *Error types, returns the message (plus cause) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}

// ConflictError describes two dependents that request different values for
// the same property of a shared dependency.
type ConflictError struct {
	Package  string // The shared dependency
	Property string // "commit", "repo" or "branch"
	First    string // Name of the first dependent
	FirstVal string
	Other    string // Name of the conflicting dependent
	OtherVal string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("dependency conflict: %s depends on %s %s %s while %s depends on %s %s %s",
		e.First, e.Package, e.Property, e.FirstVal, e.Other, e.Package, e.Property, e.OtherVal)
}

// Code returns the error code for this error type.
func (e *ConflictError) Code() Code {
	return ErrCodeConflict
}

// IsConflict reports whether err is or wraps a [ConflictError].
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce) || Is(err, ErrCodeConflict)
}
