// Package router assembles the gin engine and route table.
package router

import (
	"net/http"

	"chat-relay/internal/handler"
	"chat-relay/internal/middleware"
	"chat-relay/internal/proxy"
	"chat-relay/internal/types"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the engine with the full middleware chain and routes.
func NewRouter(
	proxyServer *proxy.ProxyServer,
	configManager types.ConfigManager,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Register global middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(configManager.GetLogConfig()))
	router.Use(middleware.CORS(configManager.GetCORSConfig()))
	router.Use(middleware.RateLimiter(configManager.GetPerformanceConfig()))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestBodySizeLimit(configManager.GetPerformanceConfig().MaxRequestBodySize))

	// The completion endpoint is excluded from response compression: gzip
	// buffering would break per-chunk SSE delivery
	router.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/v1/chat/completions"})))

	registerRoutes(router, proxyServer, configManager)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Not Found", "type": "invalid_request_error"}})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": gin.H{"message": "Method not allowed", "type": "invalid_request_error"}})
	})

	return router
}

func registerRoutes(router *gin.Engine, proxyServer *proxy.ProxyServer, configManager types.ConfigManager) {
	router.GET("/health", handler.Health(configManager))

	v1 := router.Group("/v1")
	{
		v1.POST("/chat/completions", proxyServer.HandleChatCompletion)
		v1.GET("/models", proxyServer.HandleModels)
	}
}
