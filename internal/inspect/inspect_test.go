package inspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRequest(t *testing.T) {
	tests := []struct {
		name     string
		body     []byte
		expected Classification
	}{
		{
			name: "plain chat request",
			body: []byte(`{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`),
			expected: Classification{
				Model:        "gpt-4o",
				Stream:       false,
				MessageCount: 1,
			},
		},
		{
			name: "streaming request with tools",
			body: []byte(`{"model":"glm-4.7","stream":true,"messages":[{"role":"system","content":"s"},{"role":"user","content":"u"}],"tools":[{"type":"function","function":{"name":"get_weather","description":"Get current weather"}}]}`),
			expected: Classification{
				Model:        "glm-4.7",
				Stream:       true,
				MessageCount: 2,
				HasTools:     true,
				Tools:        []ToolInfo{{Name: "get_weather", Description: "Get current weather"}},
			},
		},
		{
			name: "empty tools array is not has_tools",
			body: []byte(`{"model":"m","messages":[],"tools":[]}`),
			expected: Classification{
				Model: "m",
			},
		},
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			expected: Classification{Model: "unknown"},
		},
		{
			name:     "invalid json",
			body:     []byte(`not json`),
			expected: Classification{Model: "unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyRequest(tt.body))
		})
	}
}

func TestLastUserContent(t *testing.T) {
	body := []byte(`{"messages":[{"role":"user","content":"first"},{"role":"assistant","content":"reply"},{"role":"user","content":"second"}]}`)
	assert.Equal(t, "second", LastUserContent(body))

	assert.Equal(t, "", LastUserContent([]byte(`{"messages":[{"role":"assistant","content":"x"}]}`)))
	assert.Equal(t, "", LastUserContent([]byte(`{}`)))
}

func TestHasReasoning(t *testing.T) {
	assert.True(t, HasReasoning([]byte(`{"content":"4","reasoning_content":"1+1=2, so 2+2=4"}`)))
	assert.False(t, HasReasoning([]byte(`{"content":"hello"}`)))
	assert.False(t, HasReasoning([]byte(`{"reasoning_content":""}`)))
	assert.False(t, HasReasoning([]byte(`{"reasoning_content":null}`)))
}

func TestExtractToolCalls(t *testing.T) {
	t.Run("complete call", func(t *testing.T) {
		body := []byte(`{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"city\":\"Paris\"}"}}]}`)
		calls := ExtractToolCalls(body)
		require.Len(t, calls, 1)
		assert.Equal(t, "call_1", calls[0].ID)
		assert.Equal(t, "get_weather", calls[0].Name)
		assert.Equal(t, `{"city":"Paris"}`, calls[0].Arguments)
	})

	t.Run("partial streaming fragment", func(t *testing.T) {
		// Deltas carry argument fragments that are not valid JSON on their own
		body := []byte(`{"tool_calls":[{"index":0,"function":{"arguments":"{\"ci"}}]}`)
		calls := ExtractToolCalls(body)
		require.Len(t, calls, 1)
		assert.Equal(t, 0, calls[0].Index)
		assert.Equal(t, `{"ci`, calls[0].Arguments)
		assert.Empty(t, calls[0].Name)
	})

	t.Run("multiple calls keep order", func(t *testing.T) {
		body := []byte(`{"tool_calls":[{"index":0,"id":"a","function":{"name":"f1"}},{"index":1,"id":"b","function":{"name":"f2"}}]}`)
		calls := ExtractToolCalls(body)
		require.Len(t, calls, 2)
		assert.Equal(t, "f1", calls[0].Name)
		assert.Equal(t, "f2", calls[1].Name)
	})

	t.Run("absent", func(t *testing.T) {
		assert.Nil(t, ExtractToolCalls([]byte(`{"content":"hi"}`)))
	})
}

func TestCategorizeDelta(t *testing.T) {
	tests := []struct {
		name     string
		delta    []byte
		expected Category
	}{
		{"tool call wins over content", []byte(`{"tool_calls":[{}],"content":"x"}`), CategoryToolCall},
		{"reasoning wins over content", []byte(`{"reasoning_content":"because","content":"x"}`), CategoryReasoning},
		{"content", []byte(`{"content":"hello"}`), CategoryContent},
		{"empty content still counts", []byte(`{"content":""}`), CategoryContent},
		{"role-only delta", []byte(`{"role":"assistant"}`), CategoryNone},
		{"empty delta", []byte(`{}`), CategoryNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizeDelta(tt.delta))
		})
	}
}

func TestExtractUsage(t *testing.T) {
	t.Run("with cached tokens", func(t *testing.T) {
		body := []byte(`{"usage":{"prompt_tokens":100,"completion_tokens":20,"total_tokens":120,"prompt_tokens_details":{"cached_tokens":80}}}`)
		u := ExtractUsage(body)
		assert.Equal(t, int64(100), u.PromptTokens)
		assert.Equal(t, int64(20), u.CompletionTokens)
		assert.Equal(t, int64(120), u.TotalTokens)
		require.NotNil(t, u.CachedTokens)
		assert.Equal(t, int64(80), *u.CachedTokens)
	})

	t.Run("without details", func(t *testing.T) {
		body := []byte(`{"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`)
		u := ExtractUsage(body)
		assert.Equal(t, int64(15), u.TotalTokens)
		assert.Nil(t, u.CachedTokens)
	})

	t.Run("missing usage", func(t *testing.T) {
		u := ExtractUsage([]byte(`{}`))
		assert.Equal(t, int64(0), u.TotalTokens)
		assert.Nil(t, u.CachedTokens)
	})
}

func TestFinishReason(t *testing.T) {
	assert.Equal(t, "stop", FinishReason([]byte(`{"choices":[{"finish_reason":"stop"}]}`)))
	assert.Equal(t, "tool_calls", FinishReason([]byte(`{"choices":[{"finish_reason":"tool_calls"}]}`)))
	assert.Equal(t, "unknown", FinishReason([]byte(`{"choices":[{"finish_reason":null}]}`)))
	assert.Equal(t, "unknown", FinishReason([]byte(`{"choices":[]}`)))
	assert.Equal(t, "unknown", FinishReason([]byte(`{}`)))
}
