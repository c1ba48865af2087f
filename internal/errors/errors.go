// Package errors provides unified API error definitions and helpers for
// translating transport and upstream failures into caller-facing errors.
package errors

import "net/http"

// APIError represents an API error with HTTP status code, error code, and message
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Predefined API errors
var (
	ErrBadRequest     = &APIError{HTTPStatus: http.StatusBadRequest, Code: "BAD_REQUEST", Message: "Invalid request parameters"}
	ErrInvalidJSON    = &APIError{HTTPStatus: http.StatusBadRequest, Code: "INVALID_JSON", Message: "Request body is not valid JSON"}
	ErrValidation     = &APIError{HTTPStatus: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: "Request validation failed"}
	ErrInternalServer = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "INTERNAL_SERVER_ERROR", Message: "Internal server error"}
	ErrBadGateway     = &APIError{HTTPStatus: http.StatusBadGateway, Code: "BAD_GATEWAY", Message: "Upstream service error"}

	ErrBackendUnreachable = &APIError{HTTPStatus: http.StatusBadGateway, Code: "BACKEND_UNREACHABLE", Message: "Failed to connect to backend"}
	ErrBackendTimeout     = &APIError{HTTPStatus: http.StatusGatewayTimeout, Code: "BACKEND_TIMEOUT", Message: "Backend request timed out"}
	ErrBackendProtocol    = &APIError{HTTPStatus: http.StatusBadGateway, Code: "BACKEND_PROTOCOL", Message: "Backend returned an unexpected response shape"}
)

// NewAPIError creates a new APIError based on a base error with a custom message
func NewAPIError(base *APIError, message string) *APIError {
	return &APIError{
		HTTPStatus: base.HTTPStatus,
		Code:       base.Code,
		Message:    message,
	}
}

// NewAPIErrorWithUpstream creates an APIError that carries an upstream
// status code through to the caller unchanged.
func NewAPIErrorWithUpstream(httpStatus int, code string, message string) *APIError {
	return &APIError{
		HTTPStatus: httpStatus,
		Code:       code,
		Message:    message,
	}
}

// NewValidationError creates a validation error with a custom message
func NewValidationError(message string) *APIError {
	return NewAPIError(ErrValidation, message)
}
