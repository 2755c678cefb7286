package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeUnavailable is used while the service is shutting down
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller may not use the operation
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the console session token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used when the persistence service reports a duplicate
	ErrCodeConflict = "ERR_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeNotConfirmed is used when a destructive action lacks confirmation
	ErrCodeNotConfirmed = "ERR_NOT_CONFIRMED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodePayloadTooLarge is used when the body exceeds the configured limit
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// Upstream error codes for calls to the persistence and AI services
const (
	// ErrCodeUpstreamUnavailable is used when the upstream cannot be reached
	ErrCodeUpstreamUnavailable = "ERR_UPSTREAM_UNAVAILABLE"
	// ErrCodeUpstream is used when the upstream fails or answers unexpectedly
	ErrCodeUpstream = "ERR_UPSTREAM"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:     http.StatusInternalServerError,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeNotConfirmed: http.StatusPreconditionRequired,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,

	// Upstream errors
	ErrCodeUpstreamUnavailable: http.StatusServiceUnavailable,
	ErrCodeUpstream:            http.StatusBadGateway,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the standardized API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":         ErrCodeNotFound,
	"WIZARD_NOT_FOUND":  ErrCodeNotFound,
	"SESSION_NOT_FOUND": ErrCodeNotFound,
	"RECORD_NOT_FOUND":  ErrCodeNotFound,
	"CHAT_NOT_FOUND":    ErrCodeNotFound,

	"UNAUTHORIZED":       ErrCodeUnauthorized,
	"NOT_AUTHENTICATED":  ErrCodeUnauthorized,
	"SESSION_EXPIRED":    ErrCodeTokenExpired,
	"DEV_LOGIN_DISABLED": ErrCodeForbidden,

	"INVALID_STATE":     ErrCodeInvalidState,
	"WIZARD_WRONG_STEP": ErrCodeInvalidState,
	"NO_FORM_OPEN":      ErrCodeInvalidState,
	"FORM_CHANGED":      ErrCodeInvalidState,
	"NO_SECOND_FACTOR":  ErrCodeInvalidState,
	"NO_IMAGE_FIELD":    ErrCodeInvalidState,

	"DELETE_NOT_CONFIRMED": ErrCodeNotConfirmed,

	"CONSOLE_CLOSED":   ErrCodeUnavailable,
	"CONSOLE_SHUTDOWN": ErrCodeUnavailable,

	"INVALID_EMAIL":           ErrCodeValidationFormat,
	"INVALID_DATE":            ErrCodeValidationFormat,
	"TEXT_TOO_LONG":           ErrCodeValidationLength,
	"CHAT_MESSAGE_TOO_LONG":   ErrCodeValidationLength,
	"MISSING_CREDENTIALS":     ErrCodeValidationRequired,
	"CHAT_EMPTY_MESSAGE":      ErrCodeValidationRequired,
	"IMAGE_EMPTY_SUBJECT":     ErrCodeValidationRequired,
	"WIZARD_SUBTYPE_REQUIRED": ErrCodeValidationRequired,
	"INVALID_FORM":            ErrCodeInvalidJSON,
	"VALIDATION_ERROR":        ErrCodeValidation,
	"BAD_REQUEST":             ErrCodeBadRequest,
	"INTERNAL_ERROR":          ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Unmapped codes carrying an input-error prefix become ERR_VALIDATION.
// Anything else is returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	for _, prefix := range []string{"INVALID_", "UNKNOWN_", "WIZARD_UNKNOWN_"} {
		if strings.HasPrefix(code, prefix) {
			return ErrCodeValidation
		}
	}
	return code
}
