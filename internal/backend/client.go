// Package backend implements the HTTP client for the configured
// OpenAI-protocol backend. One client instance serves all requests and
// holds both transport flavors: a buffered client with an overall request
// timeout and a stream client bounded only by the response header timeout.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	app_errors "chat-relay/internal/errors"
	"chat-relay/internal/httpclient"
	"chat-relay/internal/types"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Client talks to the configured backend.
type Client struct {
	cfg      types.BackendConfig
	buffered *http.Client
	stream   *http.Client
}

// NewClient creates a backend client sharing pooled transports from the
// client manager.
func NewClient(configManager types.ConfigManager, clientManager *httpclient.HTTPClientManager) *Client {
	cfg := configManager.GetBackendConfig()
	return &Client{
		cfg:      cfg,
		buffered: clientManager.GetClient(httpclient.BufferedClientConfig(cfg)),
		stream:   clientManager.GetClient(httpclient.StreamClientConfig(cfg)),
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	return req, nil
}

// Send posts a completion request for a buffered response. The stream flag
// is forced to false so the backend never switches protocols mid-request;
// the payload is otherwise untouched. Transport failures come back as
// classified APIErrors; non-2xx responses are returned as-is so the caller
// can pass the backend's status and body through.
func (c *Client) Send(ctx context.Context, body []byte) (*http.Response, error) {
	forced, err := sjson.SetBytes(body, "stream", false)
	if err != nil {
		// Leave an unmodifiable payload alone and let the backend judge it
		forced = body
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", forced)
	if err != nil {
		return nil, app_errors.ClassifyBackendError(err)
	}

	resp, err := c.buffered.Do(req)
	if err != nil {
		return nil, app_errors.ClassifyBackendError(err)
	}
	return resp, nil
}

// SendStream posts a completion request for a live SSE response using the
// stream client. The payload is forwarded byte-for-byte.
func (c *Client) SendStream(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/chat/completions", body)
	if err != nil {
		return nil, app_errors.ClassifyBackendError(err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, app_errors.ClassifyBackendError(err)
	}
	return resp, nil
}

// ListModels fetches the backend's model list. Both documented shapes are
// accepted: a bare JSON array and an object wrapping the array under
// "data". Model objects are preserved verbatim.
func (c *Client) ListModels(ctx context.Context) ([]json.RawMessage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/models", nil)
	if err != nil {
		return nil, app_errors.ClassifyBackendError(err)
	}

	resp, err := c.buffered.Do(req)
	if err != nil {
		return nil, app_errors.ClassifyBackendError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, app_errors.ClassifyBackendError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := app_errors.ParseUpstreamError(body)
		if msg == "" {
			msg = fmt.Sprintf("backend returned status %d", resp.StatusCode)
		}
		return nil, app_errors.NewAPIErrorWithUpstream(resp.StatusCode, "UPSTREAM_ERROR", msg)
	}

	return decodeModelList(body)
}

// decodeModelList normalizes the two accepted model-list shapes into a
// slice of verbatim model objects.
func decodeModelList(body []byte) ([]json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, app_errors.NewAPIError(app_errors.ErrBackendProtocol, "model list is not valid JSON")
	}

	parsed := gjson.ParseBytes(body)
	var list gjson.Result
	switch {
	case parsed.IsArray():
		list = parsed
	case parsed.IsObject() && parsed.Get("data").IsArray():
		list = parsed.Get("data")
	default:
		logrus.Warnf("Unexpected model list shape from backend: %s", gjson.ParseBytes(body).Type)
		return nil, app_errors.NewAPIError(app_errors.ErrBackendProtocol, "model list has an unrecognized shape")
	}

	models := make([]json.RawMessage, 0)
	list.ForEach(func(_, model gjson.Result) bool {
		models = append(models, json.RawMessage(model.Raw))
		return true
	})
	return models, nil
}
