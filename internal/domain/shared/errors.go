package shared

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrUnauthorized = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrInvalidState = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// ErrorKind classifies failures of calls to external collaborators
type ErrorKind string

const (
	KindNetworkUnavailable ErrorKind = "NETWORK_UNAVAILABLE"
	KindUnauthorized       ErrorKind = "UNAUTHORIZED"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindValidation         ErrorKind = "VALIDATION"
	KindServerError        ErrorKind = "SERVER_ERROR"
	KindUnknown            ErrorKind = "UNKNOWN"
)

// AccessError is returned by every data-access operation that fails.
// Op names the operation (e.g. "articles.list"), StatusCode is 0 when no
// HTTP response was received.
type AccessError struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface
func (e *AccessError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

// Unwrap returns the underlying transport or decode error
func (e *AccessError) Unwrap() error {
	return e.Err
}

// KindForStatus maps an HTTP status code to an ErrorKind
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 500:
		return KindServerError
	default:
		return KindUnknown
	}
}

// NewStatusError builds an AccessError from a non-2xx response
func NewStatusError(op string, status int, message string) *AccessError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &AccessError{
		Op:         op,
		Kind:       KindForStatus(status),
		StatusCode: status,
		Message:    message,
	}
}

// NewTransportError builds an AccessError for a request that never got a response
func NewTransportError(op string, err error) *AccessError {
	return &AccessError{
		Op:      op,
		Kind:    KindNetworkUnavailable,
		Message: "service unreachable",
		Err:     err,
	}
}

// NewDecodeError builds an AccessError for an unreadable response body
func NewDecodeError(op string, status int, err error) *AccessError {
	return &AccessError{
		Op:         op,
		Kind:       KindUnknown,
		StatusCode: status,
		Message:    "unexpected response body",
		Err:        err,
	}
}

// KindOf returns the ErrorKind of err, or KindUnknown when err is not an AccessError
func KindOf(err error) ErrorKind {
	var accessErr *AccessError
	if errors.As(err, &accessErr) {
		return accessErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is an AccessError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var accessErr *AccessError
	return errors.As(err, &accessErr) && accessErr.Kind == kind
}

// WriteResult is the success/failure envelope surfaced to callers of
// write operations that never propagate an error (newsletter, login).
type WriteResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// ResultFromError converts err into a WriteResult. A nil err is a success.
func ResultFromError(err error, successMessage string) WriteResult {
	if err == nil {
		return WriteResult{Success: true, Message: successMessage, StatusCode: http.StatusOK}
	}
	var accessErr *AccessError
	if errors.As(err, &accessErr) {
		return WriteResult{Success: false, Message: accessErr.Message, StatusCode: accessErr.StatusCode}
	}
	return WriteResult{Success: false, Message: err.Error()}
}
