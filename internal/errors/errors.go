// Package errors provides standardized error handling for the explorer service.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a standardized error code for the explorer service.
type ErrorCode string

const (
	// Request errors
	LENS_BAD_REQUEST     ErrorCode = "LENS_BAD_REQUEST"     // Bad request (unknown sort field, bad page number)
	LENS_MALFORMED_INPUT ErrorCode = "LENS_MALFORMED_INPUT" // Unparseable input recovered with a safe default

	// Resource errors
	LENS_NOT_FOUND            ErrorCode = "LENS_NOT_FOUND"            // Video id unknown to the session
	LENS_RESOLUTION_EXHAUSTED ErrorCode = "LENS_RESOLUTION_EXHAUSTED" // Every source step missed for an artifact

	// Server errors
	LENS_INIT_FAILURE ErrorCode = "LENS_INIT_FAILURE" // Session initialization failed
	LENS_INTERNAL     ErrorCode = "LENS_INTERNAL"     // Internal server error
	LENS_UNAVAILABLE  ErrorCode = "LENS_UNAVAILABLE"  // Session not ready (initializing or resetting)
)

// Error represents a standardized error response.
type Error struct {
	Code          ErrorCode   `json:"code"`
	Message       string      `json:"message"`
	CorrelationID string      `json:"correlationId"`
	Details       interface{} `json:"details,omitempty"`
	HTTPStatus    int         `json:"-"`
}

// New creates a new Error with the specified code and message.
func New(code ErrorCode, message string, correlationID string) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// NewWithDetails creates a new Error with the specified code, message, and details.
func NewWithDetails(code ErrorCode, message string, correlationID string, details interface{}) *Error {
	return &Error{
		Code:          code,
		Message:       message,
		CorrelationID: correlationID,
		Details:       details,
		HTTPStatus:    httpStatusCodeForCode(code),
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// httpStatusCodeForCode maps error codes to HTTP status codes. Note that
// LENS_RESOLUTION_EXHAUSTED never reaches this mapping on artifact endpoints;
// those respond 200 with an available:false body.
func httpStatusCodeForCode(code ErrorCode) int {
	switch code {
	case LENS_BAD_REQUEST, LENS_MALFORMED_INPUT:
		return http.StatusBadRequest
	case LENS_NOT_FOUND, LENS_RESOLUTION_EXHAUSTED:
		return http.StatusNotFound
	case LENS_UNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
