// Package handler holds the non-proxy HTTP endpoints.
package handler

import (
	"net/http"
	"time"

	"chat-relay/internal/types"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Health returns the liveness handler. It reports the configured backend
// without calling it; a healthy relay does not depend on a healthy backend.
func Health(configManager types.ConfigManager) gin.HandlerFunc {
	backendConfig := configManager.GetBackendConfig()
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"provider":    backendConfig.ProviderName,
			"backend_url": backendConfig.BaseURL,
			"uptime":      time.Since(startTime).Truncate(time.Second).String(),
		})
	}
}
