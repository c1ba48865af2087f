package errors

import (
	"context"
	stderrors "errors"
	"net"
	"strings"

	"github.com/tidwall/gjson"
)

// maxErrorBodyLength limits how much of an upstream error body is kept.
const maxErrorBodyLength = 2048

// ParseUpstreamError extracts a human-readable message from an upstream
// error body. Providers disagree on the envelope, so several shapes are
// tried in priority order before falling back to the raw body.
func ParseUpstreamError(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	if gjson.ValidBytes(body) {
		// Standard OpenAI format: {"error": {"message": "..."}}
		if msg := gjson.GetBytes(body, "error.message"); msg.Type == gjson.String {
			return truncateString(strings.TrimSpace(msg.String()), maxErrorBodyLength)
		}
		// Vendor format: {"error_msg": "..."}
		if msg := gjson.GetBytes(body, "error_msg"); msg.Type == gjson.String {
			return truncateString(strings.TrimSpace(msg.String()), maxErrorBodyLength)
		}
		// Simple format: {"error": "..."}
		if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String {
			return truncateString(strings.TrimSpace(msg.String()), maxErrorBodyLength)
		}
		// Root message format: {"message": "..."}
		if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String {
			return truncateString(strings.TrimSpace(msg.String()), maxErrorBodyLength)
		}
	}

	return truncateString(strings.TrimSpace(string(body)), maxErrorBodyLength)
}

// ClassifyBackendError maps a transport-level error from a backend call to
// an APIError. Timeouts become 504, everything else 502. Errors that are
// already APIErrors pass through unchanged.
func ClassifyBackendError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewAPIError(ErrBackendTimeout, err.Error())
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return NewAPIError(ErrBackendTimeout, err.Error())
	}

	return NewAPIError(ErrBackendUnreachable, err.Error())
}

func truncateString(s string, maxLength int) string {
	if len(s) > maxLength {
		return s[:maxLength]
	}
	return s
}
