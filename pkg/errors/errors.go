// Package errors provides structured error types for plastic.
//
// Every failure raised while validating or transforming a phylogeny carries
// a machine-readable [Code], so callers can tell a malformed tree apart from
// an I/O or rendering problem without matching on message text:
//
//   - NOT_A_TREE: the input graph is not a single-root arborescence
//   - INVALID_TYPE: a node id or attribute value is not a string
//   - INVALID_VALUE: empty labels or misuse of reserved attribute keys
//   - NOT_FULLY_LABELED: SASC labeling conventions are violated
//   - UNCOMPUTABLE_SUPPORT: support requested on a tree without cells
//   - MERGE_CONTRACT: two nodes that are not parent and child were merged
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotATree, "graph has %d roots", n)
//	if errors.Is(err, errors.ErrCodeNotATree) {
//	    // Handle structural error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Tree validation errors
	ErrCodeNotATree            Code = "NOT_A_TREE"
	ErrCodeInvalidType         Code = "INVALID_TYPE"
	ErrCodeInvalidValue        Code = "INVALID_VALUE"
	ErrCodeNotFullyLabeled     Code = "NOT_FULLY_LABELED"
	ErrCodeUncomputableSupport Code = "UNCOMPUTABLE_SUPPORT"
	ErrCodeMergeContract       Code = "MERGE_CONTRACT"

	// Input/output errors
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeFileNotFound  Code = "FILE_NOT_FOUND"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Rendering and internal errors
	ErrCodeRenderFailed Code = "RENDER_FAILED"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
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
		if e.Cause != nil {
			return e.Message + ": " + UserMessage(e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
