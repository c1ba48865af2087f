// Package response provides OpenAI-compatible JSON response helpers.
package response

import (
	"net/http"

	app_errors "chat-relay/internal/errors"

	"github.com/gin-gonic/gin"
)

// ErrorDetail is the inner object of the OpenAI error envelope.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// ErrorResponse is the OpenAI error envelope: {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// errorType maps an HTTP status to the OpenAI error type string.
func errorType(httpStatus int) string {
	switch {
	case httpStatus == http.StatusUnauthorized:
		return "authentication_error"
	case httpStatus == http.StatusForbidden:
		return "permission_error"
	case httpStatus == http.StatusNotFound:
		return "not_found_error"
	case httpStatus == http.StatusTooManyRequests:
		return "rate_limit_error"
	case httpStatus >= 400 && httpStatus < 500:
		return "invalid_request_error"
	default:
		return "api_error"
	}
}

// Error sends an OpenAI-shaped error response using an APIError.
func Error(c *gin.Context, apiErr *app_errors.APIError) {
	c.JSON(apiErr.HTTPStatus, NewErrorResponse(apiErr))
}

// NewErrorResponse builds the envelope without writing it, for callers
// that serialize it themselves (the SSE error chunk path).
func NewErrorResponse(apiErr *app_errors.APIError) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Message: apiErr.Message,
			Type:    errorType(apiErr.HTTPStatus),
			Code:    apiErr.Code,
		},
	}
}
