// Package config provides environment-based configuration management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"chat-relay/internal/types"
	"chat-relay/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Constants for default configuration values
const (
	defaultPort                    = 4242
	defaultHost                    = "0.0.0.0"
	defaultBackendURL              = "https://opencode.ai/zen/v1"
	defaultProviderName            = "opencode"
	defaultRequestTimeout          = 300
	defaultConnectTimeout          = 15
	defaultResponseHeaderTimeout   = 600
	defaultIdleConnTimeout         = 120
	defaultMaxIdleConns            = 100
	defaultMaxIdleConnsPerHost     = 50
	defaultMaxConcurrentRequests   = 100
	defaultMaxRequestBodySizeMB    = 32
	defaultReadTimeout             = 120
	defaultWriteTimeout            = 0 // unlimited, SSE responses can run for minutes
	defaultIdleTimeout             = 120
	defaultGracefulShutdownTimeout = 10
	defaultContentPreviewLength    = 150
	defaultChunkPreviewLength      = 100
)

// Manager implements types.ConfigManager. Configuration is read once at
// startup and immutable afterwards.
type Manager struct {
	serverConfig      types.ServerConfig
	backendConfig     types.BackendConfig
	corsConfig        types.CORSConfig
	performanceConfig types.PerformanceConfig
	logConfig         types.LogConfig
	eventLogConfig    types.EventLogConfig
}

// NewManager creates a new configuration manager, loading `.env` when
// present and falling back to process environment variables.
func NewManager() (*Manager, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	m := &Manager{}
	m.load()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load() {
	m.serverConfig = types.ServerConfig{
		Port:                    parseInteger(os.Getenv("PORT"), defaultPort),
		Host:                    getEnvOrDefault("HOST", defaultHost),
		ReadTimeout:             parseInteger(os.Getenv("READ_TIMEOUT"), defaultReadTimeout),
		WriteTimeout:            parseInteger(os.Getenv("WRITE_TIMEOUT"), defaultWriteTimeout),
		IdleTimeout:             parseInteger(os.Getenv("IDLE_TIMEOUT"), defaultIdleTimeout),
		GracefulShutdownTimeout: parseInteger(os.Getenv("GRACEFUL_SHUTDOWN_TIMEOUT"), defaultGracefulShutdownTimeout),
	}

	m.backendConfig = types.BackendConfig{
		BaseURL:               strings.TrimSuffix(getEnvOrDefault("BACKEND_URL", defaultBackendURL), "/"),
		APIKey:                os.Getenv("BACKEND_API_KEY"),
		ProviderName:          getEnvOrDefault("PROVIDER_NAME", defaultProviderName),
		RequestTimeout:        parseInteger(os.Getenv("REQUEST_TIMEOUT"), defaultRequestTimeout),
		ConnectTimeout:        parseInteger(os.Getenv("CONNECT_TIMEOUT"), defaultConnectTimeout),
		ResponseHeaderTimeout: parseInteger(os.Getenv("RESPONSE_HEADER_TIMEOUT"), defaultResponseHeaderTimeout),
		IdleConnTimeout:       parseInteger(os.Getenv("IDLE_CONN_TIMEOUT"), defaultIdleConnTimeout),
		MaxIdleConns:          parseInteger(os.Getenv("MAX_IDLE_CONNS"), defaultMaxIdleConns),
		MaxIdleConnsPerHost:   parseInteger(os.Getenv("MAX_IDLE_CONNS_PER_HOST"), defaultMaxIdleConnsPerHost),
	}

	m.corsConfig = types.CORSConfig{
		Enabled:          parseBoolean(os.Getenv("ENABLE_CORS"), true),
		AllowedOrigins:   parseArray(os.Getenv("ALLOWED_ORIGINS"), []string{"*"}),
		AllowedMethods:   parseArray(os.Getenv("ALLOWED_METHODS"), []string{"GET", "POST", "OPTIONS"}),
		AllowedHeaders:   parseArray(os.Getenv("ALLOWED_HEADERS"), []string{"*"}),
		AllowCredentials: parseBoolean(os.Getenv("ALLOW_CREDENTIALS"), false),
	}

	m.performanceConfig = types.PerformanceConfig{
		MaxConcurrentRequests: parseInteger(os.Getenv("MAX_CONCURRENT_REQUESTS"), defaultMaxConcurrentRequests),
		MaxRequestBodySize:    int64(parseInteger(os.Getenv("MAX_REQUEST_BODY_SIZE_MB"), defaultMaxRequestBodySizeMB)) * 1024 * 1024,
	}

	m.logConfig = types.LogConfig{
		Level:      getEnvOrDefault("LOG_LEVEL", "info"),
		Format:     getEnvOrDefault("LOG_FORMAT", "text"),
		EnableFile: parseBoolean(os.Getenv("ENABLE_FILE_LOG"), false),
		FilePath:   getEnvOrDefault("LOG_FILE_PATH", "./data/logs/app.log"),
	}

	m.eventLogConfig = types.EventLogConfig{
		ContentPreviewLength: parseInteger(os.Getenv("CONTENT_PREVIEW_LENGTH"), defaultContentPreviewLength),
		ChunkPreviewLength:   parseInteger(os.Getenv("CHUNK_PREVIEW_LENGTH"), defaultChunkPreviewLength),
	}
}

// Validate checks the loaded configuration for invalid values.
func (m *Manager) Validate() error {
	if m.serverConfig.Port < 1 || m.serverConfig.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", m.serverConfig.Port)
	}
	if m.backendConfig.BaseURL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	if !strings.HasPrefix(m.backendConfig.BaseURL, "http://") && !strings.HasPrefix(m.backendConfig.BaseURL, "https://") {
		return fmt.Errorf("BACKEND_URL must start with http:// or https://, got %q", m.backendConfig.BaseURL)
	}
	if m.backendConfig.RequestTimeout < 1 {
		return fmt.Errorf("request timeout cannot be less than 1 second")
	}
	if m.performanceConfig.MaxConcurrentRequests < 1 {
		return fmt.Errorf("max concurrent requests cannot be less than 1")
	}
	if m.performanceConfig.MaxRequestBodySize < 1 {
		return fmt.Errorf("max request body size cannot be less than 1MB")
	}
	if m.eventLogConfig.ContentPreviewLength < 0 || m.eventLogConfig.ChunkPreviewLength < 0 {
		return fmt.Errorf("preview lengths cannot be negative")
	}
	return nil
}

// GetEffectiveServerConfig returns the server configuration
func (m *Manager) GetEffectiveServerConfig() types.ServerConfig {
	return m.serverConfig
}

// GetBackendConfig returns the backend configuration
func (m *Manager) GetBackendConfig() types.BackendConfig {
	return m.backendConfig
}

// GetCORSConfig returns the CORS configuration
func (m *Manager) GetCORSConfig() types.CORSConfig {
	return m.corsConfig
}

// GetPerformanceConfig returns the performance configuration
func (m *Manager) GetPerformanceConfig() types.PerformanceConfig {
	return m.performanceConfig
}

// GetLogConfig returns the logging configuration
func (m *Manager) GetLogConfig() types.LogConfig {
	return m.logConfig
}

// GetEventLogConfig returns the event logging configuration
func (m *Manager) GetEventLogConfig() types.EventLogConfig {
	return m.eventLogConfig
}

// DisplayServerConfig logs the effective configuration at startup.
func (m *Manager) DisplayServerConfig() {
	apiKey := "(none)"
	if m.backendConfig.APIKey != "" {
		apiKey = utils.MaskAPIKey(m.backendConfig.APIKey)
	}
	logrus.Info("Server configuration:")
	logrus.Infof("  Listen: %s:%d", m.serverConfig.Host, m.serverConfig.Port)
	logrus.Infof("  Backend: %s (%s)", m.backendConfig.BaseURL, m.backendConfig.ProviderName)
	logrus.Infof("  Backend API key: %s", apiKey)
	logrus.Infof("  Request timeout: %ds, connect timeout: %ds", m.backendConfig.RequestTimeout, m.backendConfig.ConnectTimeout)
	logrus.Infof("  Max concurrent requests: %d", m.performanceConfig.MaxConcurrentRequests)
	logrus.Infof("  Log level: %s, format: %s", m.logConfig.Level, m.logConfig.Format)
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func parseInteger(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logrus.Warnf("Invalid integer value %q, using default %d", value, defaultValue)
		return defaultValue
	}
	return i
}

func parseBoolean(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		logrus.Warnf("Invalid boolean value %q, using default %t", value, defaultValue)
		return defaultValue
	}
	return b
}

func parseArray(value string, defaultValue []string) []string {
	if value == "" {
		return defaultValue
	}
	parts := utils.SplitAndTrim(value, ",")
	if len(parts) == 0 {
		return defaultValue
	}
	return parts
}
