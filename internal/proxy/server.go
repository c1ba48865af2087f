// Package proxy implements the chat-completion relay endpoints.
package proxy

import (
	"fmt"
	"io"
	"net/http"

	"chat-relay/internal/backend"
	app_errors "chat-relay/internal/errors"
	"chat-relay/internal/eventlog"
	"chat-relay/internal/inspect"
	"chat-relay/internal/response"
	"chat-relay/internal/types"
	"chat-relay/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ProxyServer handles caller-facing completion and model-list requests.
type ProxyServer struct {
	configManager types.ConfigManager
	client        *backend.Client
	events        *eventlog.Logger
}

// NewProxyServer creates a new proxy server.
func NewProxyServer(configManager types.ConfigManager, client *backend.Client, events *eventlog.Logger) *ProxyServer {
	return &ProxyServer{
		configManager: configManager,
		client:        client,
		events:        events,
	}
}

// HandleChatCompletion serves POST /v1/chat/completions. The response
// protocol is chosen once, from the request's stream flag, and never
// changes for the lifetime of the request.
func (ps *ProxyServer) HandleChatCompletion(c *gin.Context) {
	buf := utils.GetBuffer()
	defer utils.PutBuffer(buf)

	if _, err := io.Copy(buf, c.Request.Body); err != nil {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrBadRequest, "failed to read request body"))
		return
	}
	body := buf.Bytes()

	if apiErr := validateChatRequest(body); apiErr != nil {
		response.Error(c, apiErr)
		return
	}

	ps.events.LogRequest(body)

	if inspect.ClassifyRequest(body).Stream {
		ps.handleStreaming(c, body)
		return
	}
	ps.handleBuffered(c, body)
}

// validateChatRequest checks the minimal shape a completion request must
// have before any backend call is made.
func validateChatRequest(body []byte) *app_errors.APIError {
	if !gjson.ValidBytes(body) {
		return app_errors.ErrInvalidJSON
	}
	if !gjson.GetBytes(body, "messages").IsArray() {
		return app_errors.NewValidationError("messages must be an array")
	}
	if model := gjson.GetBytes(body, "model"); model.Type != gjson.String || model.String() == "" {
		return app_errors.NewValidationError("model must be a non-empty string")
	}
	return nil
}

// handleBuffered forwards the request for a complete JSON response and
// passes the backend's status and body through untouched.
func (ps *ProxyServer) handleBuffered(c *gin.Context, body []byte) {
	resp, err := ps.client.Send(c.Request.Context(), body)
	if err != nil {
		apiErr := app_errors.ClassifyBackendError(err)
		ps.events.LogError("backend request failed", apiErr)
		response.Error(c, apiErr)
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := app_errors.ClassifyBackendError(err)
		ps.events.LogError("backend response read failed", apiErr)
		response.Error(c, apiErr)
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ps.relayUpstreamError(c, resp, respBody)
		return
	}

	// The logged copy is decompressed separately; the caller gets the
	// original bytes.
	logCopy, _ := utils.DecompressResponse(resp.Header.Get("Content-Encoding"), respBody)
	ps.events.LogResponse(logCopy)

	writePassthrough(c, resp, respBody)
}

// relayUpstreamError passes a backend error response through with its
// original status. Bodies that are not valid JSON are re-wrapped in the
// standard envelope so callers always get a parseable error.
func (ps *ProxyServer) relayUpstreamError(c *gin.Context, resp *http.Response, respBody []byte) {
	msg := app_errors.ParseUpstreamError(respBody)
	if msg == "" {
		msg = fmt.Sprintf("backend returned status %d", resp.StatusCode)
	}
	ps.events.LogError("backend returned error status", app_errors.NewAPIErrorWithUpstream(resp.StatusCode, "UPSTREAM_ERROR", msg))

	if gjson.ValidBytes(respBody) && gjson.ParseBytes(respBody).IsObject() {
		writePassthrough(c, resp, respBody)
		return
	}
	response.Error(c, app_errors.NewAPIErrorWithUpstream(resp.StatusCode, "UPSTREAM_ERROR", msg))
}

func writePassthrough(c *gin.Context, resp *http.Response, respBody []byte) {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	if encoding := resp.Header.Get("Content-Encoding"); encoding != "" {
		c.Header("Content-Encoding", encoding)
	}
	c.Data(resp.StatusCode, contentType, respBody)
}

// handleStreaming commits the SSE protocol to the caller first, then dials
// the backend. Once headers are flushed every failure is delivered as an
// error-shaped SSE chunk followed by the terminal marker, never as a late
// HTTP error.
func (ps *ProxyServer) handleStreaming(c *gin.Context, body []byte) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, app_errors.NewAPIError(app_errors.ErrInternalServer, "streaming unsupported by connection"))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	resp, err := ps.client.SendStream(c.Request.Context(), body)
	if err != nil {
		apiErr := app_errors.ClassifyBackendError(err)
		ps.events.LogError("backend stream request failed", apiErr)
		writeStreamError(c.Writer, apiErr)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		msg := app_errors.ParseUpstreamError(errBody)
		if msg == "" {
			msg = fmt.Sprintf("backend returned status %d", resp.StatusCode)
		}
		apiErr := app_errors.NewAPIErrorWithUpstream(resp.StatusCode, "UPSTREAM_ERROR", msg)
		ps.events.LogError("backend rejected stream request", apiErr)
		writeStreamError(c.Writer, apiErr)
		return
	}

	NewRelay(ps.events).Run(c.Writer, resp.Body)
}

// writeStreamError delivers an error as one SSE chunk plus the terminal
// marker, for failures that happen after the response protocol is
// committed.
func writeStreamError(w streamWriter, apiErr *app_errors.APIError) {
	envelope, err := utils.MarshalJSON(response.NewErrorResponse(apiErr))
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal stream error envelope")
		envelope = []byte(`{"error":{"message":"internal error","type":"api_error"}}`)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", envelope); err != nil {
		return
	}
	w.Write(sseDoneEvent)
	w.Flush()
}
