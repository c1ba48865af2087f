package httpclient

import (
	"testing"
	"time"

	"chat-relay/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClient_ReusesByFingerprint(t *testing.T) {
	manager := NewHTTPClientManager()

	config := &Config{
		ConnectTimeout:      15 * time.Second,
		RequestTimeout:      300 * time.Second,
		IdleConnTimeout:     120 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 50,
	}

	client1 := manager.GetClient(config)
	client2 := manager.GetClient(config)

	require.NotNil(t, client1)
	assert.Same(t, client1, client2, "identical configs must share one client")
}

func TestGetClient_DistinctConfigs(t *testing.T) {
	manager := NewHTTPClientManager()

	buffered := manager.GetClient(&Config{RequestTimeout: 300 * time.Second})
	stream := manager.GetClient(&Config{RequestTimeout: 0, DisableCompression: true})

	assert.NotSame(t, buffered, stream)
	assert.Equal(t, 300*time.Second, buffered.Timeout)
	assert.Equal(t, time.Duration(0), stream.Timeout)
}

func TestBufferedClientConfig(t *testing.T) {
	bc := types.BackendConfig{
		ConnectTimeout:        15,
		RequestTimeout:        300,
		ResponseHeaderTimeout: 600,
		IdleConnTimeout:       120,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   50,
	}

	config := BufferedClientConfig(bc)
	assert.Equal(t, 300*time.Second, config.RequestTimeout)
	assert.Equal(t, 15*time.Second, config.ConnectTimeout)
	assert.False(t, config.DisableCompression)
}

func TestStreamClientConfig(t *testing.T) {
	bc := types.BackendConfig{
		ConnectTimeout:        15,
		RequestTimeout:        300,
		ResponseHeaderTimeout: 600,
		IdleConnTimeout:       120,
	}

	config := StreamClientConfig(bc)
	assert.Equal(t, time.Duration(0), config.RequestTimeout, "stream client must not carry an overall timeout")
	assert.Equal(t, 600*time.Second, config.ResponseHeaderTimeout)
	assert.True(t, config.DisableCompression)
}

func TestCloseIdleConnections(t *testing.T) {
	manager := NewHTTPClientManager()
	manager.GetClient(&Config{RequestTimeout: time.Second})

	// Must not panic with cached clients present
	manager.CloseIdleConnections()
}
