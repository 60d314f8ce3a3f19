// Package errors defines the error taxonomy shared by the query service, the
// API layer and the CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode is a stable, machine-readable failure category
type ErrorCode string

const (
	// NotFound indicates the requested resource (customer, report) doesn't exist
	NotFound ErrorCode = "NOT_FOUND"
	// StoreUnavailable indicates the database file is missing or unreachable
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// QueryFailure indicates a query failed while executing
	QueryFailure ErrorCode = "QUERY_FAILURE"
	// InvalidArgument indicates a caller-supplied value was rejected
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// ServiceError carries a code, a client-safe message and the underlying cause
type ServiceError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates a ServiceError
func New(code ErrorCode, message string, cause error) *ServiceError {
	return &ServiceError{Code: code, Message: message, cause: cause}
}

// NewNotFound reports a missing resource.
func NewNotFound(message string) *ServiceError {
	return New(NotFound, message, nil)
}

// NewStoreUnavailable reports that the backing store can't be reached.
func NewStoreUnavailable(message string, cause error) *ServiceError {
	return New(StoreUnavailable, message, cause)
}

// NewQueryFailure wraps a failed query. The message is the raw cause text,
// which is what clients receive.
func NewQueryFailure(cause error) *ServiceError {
	msg := "query failed"
	if cause != nil {
		msg = cause.Error()
	}
	return New(QueryFailure, msg, cause)
}

// NewInvalidArgument reports a rejected input value.
func NewInvalidArgument(message string) *ServiceError {
	return New(InvalidArgument, message, nil)
}

func (e *ServiceError) Error() string {
	if e.cause != nil && e.cause.Error() != e.Message {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.cause
}

// WithDetails attaches structured details and returns e.
func (e *ServiceError) WithDetails(details interface{}) *ServiceError {
	e.Details = details
	return e
}

// As extracts a *ServiceError from anywhere in err's chain.
func As(err error) (*ServiceError, bool) {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// CodeOf returns the code of the first ServiceError in err's chain, or
// InternalError when there is none. A nil error has no code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if se, ok := As(err); ok {
		return se.Code
	}
	return InternalError
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// suggestions are printed by the CLI next to a failure.
var suggestions = map[ErrorCode]string{
	StoreUnavailable: "run 'ecomapi load' to create the database, or point --db at an existing file",
	QueryFailure:     "check that the database was created by 'ecomapi load' (schema may be missing)",
}

// Suggestion returns a remediation hint for code, or "" when there is none.
func Suggestion(code ErrorCode) string {
	return suggestions[code]
}
