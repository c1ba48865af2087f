package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewManager tests the creation of a new configuration manager
func TestNewManager(t *testing.T) {
	manager, err := NewManager()

	require.NoError(t, err)
	require.NotNil(t, manager)

	// Verify default values
	assert.Equal(t, 4242, manager.GetEffectiveServerConfig().Port)
	assert.Equal(t, "0.0.0.0", manager.GetEffectiveServerConfig().Host)
	assert.Equal(t, "https://opencode.ai/zen/v1", manager.GetBackendConfig().BaseURL)
	assert.Equal(t, "opencode", manager.GetBackendConfig().ProviderName)
	assert.Equal(t, 300, manager.GetBackendConfig().RequestTimeout)
	assert.Equal(t, 150, manager.GetEventLogConfig().ContentPreviewLength)
	assert.Equal(t, 100, manager.GetEventLogConfig().ChunkPreviewLength)
}

// TestManagerEnvOverrides tests environment variable overrides
func TestManagerEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("BACKEND_URL", "http://localhost:9999/v1/")
	t.Setenv("PROVIDER_NAME", "local-llm")
	t.Setenv("BACKEND_API_KEY", "sk-test-key")
	t.Setenv("MAX_CONCURRENT_REQUESTS", "200")
	t.Setenv("CONTENT_PREVIEW_LENGTH", "80")

	manager, err := NewManager()
	require.NoError(t, err)

	assert.Equal(t, 8080, manager.GetEffectiveServerConfig().Port)
	assert.Equal(t, "127.0.0.1", manager.GetEffectiveServerConfig().Host)
	// Trailing slash is stripped so URL joining stays predictable
	assert.Equal(t, "http://localhost:9999/v1", manager.GetBackendConfig().BaseURL)
	assert.Equal(t, "local-llm", manager.GetBackendConfig().ProviderName)
	assert.Equal(t, "sk-test-key", manager.GetBackendConfig().APIKey)
	assert.Equal(t, 200, manager.GetPerformanceConfig().MaxConcurrentRequests)
	assert.Equal(t, 80, manager.GetEventLogConfig().ContentPreviewLength)
}

// TestManagerValidation tests configuration validation
func TestManagerValidation(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			setupEnv:    func(t *testing.T) {},
			expectError: false,
		},
		{
			name: "invalid port - too low",
			setupEnv: func(t *testing.T) {
				t.Setenv("PORT", "0")
			},
			expectError: true,
			errorMsg:    "port must be between",
		},
		{
			name: "invalid port - too high",
			setupEnv: func(t *testing.T) {
				t.Setenv("PORT", "70000")
			},
			expectError: true,
			errorMsg:    "port must be between",
		},
		{
			name: "backend url without scheme",
			setupEnv: func(t *testing.T) {
				t.Setenv("BACKEND_URL", "localhost:9999")
			},
			expectError: true,
			errorMsg:    "must start with http",
		},
		{
			name: "invalid max concurrent requests",
			setupEnv: func(t *testing.T) {
				t.Setenv("MAX_CONCURRENT_REQUESTS", "0")
			},
			expectError: true,
			errorMsg:    "max concurrent requests cannot be less than 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv(t)

			_, err := NewManager()

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestManagerGetters tests all getter methods
func TestManagerGetters(t *testing.T) {
	t.Setenv("ENABLE_CORS", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")
	t.Setenv("LOG_LEVEL", "debug")

	manager, err := NewManager()
	require.NoError(t, err)

	corsConfig := manager.GetCORSConfig()
	assert.True(t, corsConfig.Enabled)
	assert.Len(t, corsConfig.AllowedOrigins, 2)

	perfConfig := manager.GetPerformanceConfig()
	assert.Greater(t, perfConfig.MaxConcurrentRequests, 0)
	assert.Equal(t, int64(32*1024*1024), perfConfig.MaxRequestBodySize)

	logConfig := manager.GetLogConfig()
	assert.Equal(t, "debug", logConfig.Level)
}

// TestParseHelpers tests the env parsing helpers
func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 42, parseInteger("42", 1))
	assert.Equal(t, 1, parseInteger("", 1))
	assert.Equal(t, 1, parseInteger("not-a-number", 1))

	assert.True(t, parseBoolean("true", false))
	assert.False(t, parseBoolean("", false))
	assert.False(t, parseBoolean("garbage", false))

	assert.Equal(t, []string{"a", "b"}, parseArray("a, b", nil))
	assert.Equal(t, []string{"*"}, parseArray("", []string{"*"}))
}
