// Package errx provides typed, coded application errors with HTTP mappings.
//
// Each domain package owns a Registry with a unique prefix and registers its
// error codes once at init time. Services construct errors through the
// registry so every error carries a stable machine-readable code, an error
// type for classification, and an HTTP status for the API layer.
package errx

import (
	"errors"
	"fmt"
)

// ErrorType classifies an error for propagation policy decisions.
type ErrorType string

const (
	TypeValidation    ErrorType = "VALIDATION"
	TypeNotFound      ErrorType = "NOT_FOUND"
	TypeConflict      ErrorType = "CONFLICT"
	TypeAuthorization ErrorType = "AUTHORIZATION"
	TypeBusiness      ErrorType = "BUSINESS"
	TypeExternal      ErrorType = "EXTERNAL"
	TypeInternal      ErrorType = "INTERNAL"
)

// ErrorCode is a registered error definition. Values are created by
// Registry.Register and treated as immutable.
type ErrorCode struct {
	Code       string
	Type       ErrorType
	HTTPStatus int
	Message    string
}

// Registry scopes error codes to a domain prefix, e.g. "RANKING".
type Registry struct {
	prefix string
}

// NewRegistry creates a registry for the given domain prefix.
func NewRegistry(prefix string) *Registry {
	return &Registry{prefix: prefix}
}

// Register defines a new error code under the registry's prefix.
func (r *Registry) Register(code string, t ErrorType, httpStatus int, message string) ErrorCode {
	return ErrorCode{
		Code:       r.prefix + "." + code,
		Type:       t,
		HTTPStatus: httpStatus,
		Message:    message,
	}
}

// New creates an error for a registered code.
func (r *Registry) New(code ErrorCode) *Error {
	return &Error{
		Code:       code.Code,
		Type:       code.Type,
		HTTPStatus: code.HTTPStatus,
		Message:    code.Message,
	}
}

// NewWithCause creates an error for a registered code wrapping an underlying cause.
func (r *Registry) NewWithCause(code ErrorCode, cause error) *Error {
	e := r.New(code)
	e.cause = cause
	return e
}

// Error is a coded application error. It satisfies the error interface and
// supports errors.Is/As via Unwrap.
type Error struct {
	Code       string         `json:"code"`
	Type       ErrorType      `json:"type"`
	HTTPStatus int            `json:"-"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail attaches a single contextual detail and returns the error for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges a map of contextual details and returns the error for chaining.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// ToHTTPResponse renders the error as a JSON-serializable response body.
func (e *Error) ToHTTPResponse() map[string]any {
	resp := map[string]any{
		"error":   e.Message,
		"type":    string(e.Type),
		"code":    e.Code,
		"message": e.Message,
	}
	if len(e.Details) > 0 {
		resp["details"] = e.Details
	}
	return resp
}

// Wrap converts an arbitrary error into an *Error with the given message and
// type. Already-typed errors are returned unchanged so codes survive layering.
func Wrap(err error, message string, t ErrorType) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return &Error{
		Code:       "GENERIC." + string(t),
		Type:       t,
		HTTPStatus: 500,
		Message:    message,
		cause:      err,
	}
}

// IsCode reports whether err carries the given registered code.
func IsCode(err error, code ErrorCode) bool {
	var typed *Error
	if !errors.As(err, &typed) {
		return false
	}
	return typed.Code == code.Code
}

// IsType reports whether err is an *Error of the given type.
func IsType(err error, t ErrorType) bool {
	var typed *Error
	if !errors.As(err, &typed) {
		return false
	}
	return typed.Type == t
}
