package proxy

import (
	"encoding/json"
	"net/http"

	app_errors "chat-relay/internal/errors"
	"chat-relay/internal/response"

	"github.com/gin-gonic/gin"
)

// modelList is the normalized GET /v1/models response. Model objects are
// backend bytes passed through verbatim.
type modelList struct {
	Object string            `json:"object"`
	Data   []json.RawMessage `json:"data"`
}

// HandleModels serves GET /v1/models, normalizing both backend list shapes
// into the OpenAI wrapper.
func (ps *ProxyServer) HandleModels(c *gin.Context) {
	models, err := ps.client.ListModels(c.Request.Context())
	if err != nil {
		apiErr := app_errors.ClassifyBackendError(err)
		ps.events.LogError("model list request failed", apiErr)
		response.Error(c, apiErr)
		return
	}

	if models == nil {
		models = []json.RawMessage{}
	}
	c.JSON(http.StatusOK, modelList{Object: "list", Data: models})
}
