// Package apperr defines the domain error taxonomy shared by the core, the
// application services and the adapters.
//
// Errors carry a machine-readable Code. Matching is done by code, so callers
// write errors.Is(err, apperr.ErrAuthorization) regardless of the message or
// wrapped cause.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies an error category.
type Code string

const (
	CodeAuthentication Code = "authentication"
	CodeAuthorization  Code = "authorization"
	CodeValidation     Code = "validation"
	CodeNotFound       Code = "not_found"
	CodeRollback       Code = "rollback"
	CodeConflict       Code = "conflict"
	CodeUnsupported    Code = "unsupported"
)

// Sentinels for errors.Is matching by code.
var (
	ErrAuthentication = &Error{Code: CodeAuthentication}
	ErrAuthorization  = &Error{Code: CodeAuthorization}
	ErrValidation     = &Error{Code: CodeValidation}
	ErrNotFound       = &Error{Code: CodeNotFound}
	ErrRollback       = &Error{Code: CodeRollback}
	ErrConflict       = &Error{Code: CodeConflict}
	ErrUnsupported    = &Error{Code: CodeUnsupported}
)

// ParameterError describes one failed rule on one payload parameter.
type ParameterError struct {
	Parameter string
	Code      string // e.g. validation.msg.client.firstname.cannot.be.blank
	Message   string
	Value     any
}

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Params   []ParameterError
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if len(e.Params) > 0 {
		parts := make([]string, len(e.Params))
		for i, p := range e.Params {
			parts[i] = p.Message
		}
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(parts, "; "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// New creates an error with a code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error with a code that wraps cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Authorization returns an authorization failure for the given permission.
func Authorization(username, permission string) *Error {
	return &Error{
		Code:     CodeAuthorization,
		Message:  fmt.Sprintf("user %s has no permission to %s", username, permission),
		Metadata: map[string]string{"username": username, "permission": permission},
	}
}

// NotFound returns a not found error for a resource instance.
func NotFound(resource string, id int64) *Error {
	return &Error{
		Code:     CodeNotFound,
		Message:  fmt.Sprintf("%s %d not found", resource, id),
		Metadata: map[string]string{"resource": resource, "id": fmt.Sprint(id)},
	}
}

// Validation returns a validation error holding the collected parameter errors.
func Validation(params []ParameterError) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "validation errors exist",
		Params:  params,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
