// Package errors provides storelink's structured error type.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a class of error for stable programmatic handling.
type Code string

const (
	ErrUnknown Code = "UNKNOWN"

	// ErrConfiguration: a resolver query has no persisted custom data to
	// consult because the project was never installed.
	ErrConfiguration Code = "CONFIGURATION"

	// ErrLookup: a resolver query references a locator the current
	// install did not see.
	ErrLookup Code = "LOOKUP"

	// ErrAssertion marks an internal invariant violation - a bug in the
	// host or the core, never a user mistake.
	ErrAssertion Code = "ASSERTION"

	// ErrUnsupportedOperation marks a deliberately unimplemented
	// operation, such as attaching external dependents.
	ErrUnsupportedOperation Code = "UNSUPPORTED_OPERATION"

	// ErrUnsupportedLinkType marks a Package.LinkType outside {SOFT, HARD}.
	ErrUnsupportedLinkType Code = "UNSUPPORTED_LINK_TYPE"

	// ErrIO wraps a propagated filesystem error not otherwise tolerated.
	ErrIO Code = "IO"
)

// Error is storelink's structured error type.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is by comparing codes.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates a new Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Details: make(map[string]interface{})}
}

// Newf creates a new Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Details: make(map[string]interface{})}
}

// Wrap wraps an existing error with a storelink Error. Returns nil if err is nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Details: make(map[string]interface{}), Wrapped: err}
}

// Wrapf wraps an existing error with a formatted message. Returns nil if err is nil.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Details: make(map[string]interface{}), Wrapped: err}
}

// WithDetail adds a detail to the error.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// CodeOf returns the Code carried by err, or ErrUnknown if err isn't an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
