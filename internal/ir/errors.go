package ir

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes failures across parsing, node construction and the
// graph store.
type ErrorCode string

const (
	// CodeMalformedInput indicates text that is not valid canonical JSON.
	CodeMalformedInput ErrorCode = "MALFORMED_INPUT"

	// CodeUnknownVariant indicates a !class with no registered constructor.
	CodeUnknownVariant ErrorCode = "UNKNOWN_VARIANT"

	// CodeSchemaViolation indicates a missing, mistyped or undeclared attribute.
	CodeSchemaViolation ErrorCode = "SCHEMA_VIOLATION"

	// CodeIdentity indicates a supplied identity that disagrees with the
	// recomputed one or has the wrong version for the node's flavor.
	CodeIdentity ErrorCode = "IDENTITY"

	// CodeDanglingReference indicates an out-edge whose target is not stored.
	CodeDanglingReference ErrorCode = "DANGLING_REFERENCE"

	// CodeUnknownReference indicates a lookup token that cannot be resolved.
	CodeUnknownReference ErrorCode = "UNKNOWN_REFERENCE"

	// CodeValidationFailure indicates a variant-specific semantic violation.
	CodeValidationFailure ErrorCode = "VALIDATION_FAILURE"

	// CodeDuplicateIdentity indicates the same identity given twice where
	// members must be distinct.
	CodeDuplicateIdentity ErrorCode = "DUPLICATE_IDENTITY"
)

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrMalformedInput    = &Error{Code: CodeMalformedInput}
	ErrUnknownVariant    = &Error{Code: CodeUnknownVariant}
	ErrSchemaViolation   = &Error{Code: CodeSchemaViolation}
	ErrIdentity          = &Error{Code: CodeIdentity}
	ErrDanglingReference = &Error{Code: CodeDanglingReference}
	ErrUnknownReference  = &Error{Code: CodeUnknownReference}
	ErrValidationFailure = &Error{Code: CodeValidationFailure}
	ErrDuplicateIdentity = &Error{Code: CodeDuplicateIdentity}
)

// Error is the structured error type shared by the value model, the node
// layer and the graph store.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// ID names the node identity involved, when there is one.
	ID string

	// Problems lists every issue a validation pass reported.
	Problems []string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, " (id=%s)", e.ID)
	}
	if len(e.Problems) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Problems, "; "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same Code, so the package sentinels
// work with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Errorf builds an *Error of the same category as kind.
func Errorf(kind *Error, format string, args ...any) *Error {
	return &Error{Code: kind.Code, Message: fmt.Sprintf(format, args...)}
}

// WithID returns a copy of e naming the node identity involved.
func (e *Error) WithID(id string) *Error {
	c := *e
	c.ID = id
	return &c
}

// Wrap builds an *Error of the same category as kind around cause.
func Wrap(kind *Error, cause error, format string, args ...any) *Error {
	return &Error{Code: kind.Code, Message: fmt.Sprintf(format, args...), Err: cause}
}

// CodeOf returns the ErrorCode carried by err, or "" when err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
