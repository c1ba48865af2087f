// Package inspect performs read-only introspection of chat-completion
// payloads. All functions operate on raw JSON bytes via gjson and never
// modify or fail on the payloads they examine; malformed input degrades to
// zero values.
package inspect

import "github.com/tidwall/gjson"

// Category classifies what a streaming delta carries.
type Category string

const (
	CategoryToolCall  Category = "tool_call"
	CategoryReasoning Category = "reasoning"
	CategoryContent   Category = "content"
	CategoryNone      Category = "none"
)

// ToolInfo describes a tool definition advertised in a request.
type ToolInfo struct {
	Name        string
	Description string
}

// Classification summarizes an incoming chat-completion request.
type Classification struct {
	Model        string
	Stream       bool
	MessageCount int
	HasTools     bool
	Tools        []ToolInfo
}

// ToolCall is one tool invocation extracted from a message or delta.
// Arguments holds the raw argument text exactly as the backend sent it,
// including partial fragments from streaming deltas.
type ToolCall struct {
	Index     int
	ID        string
	Type      string
	Name      string
	Arguments string
}

// Usage holds token accounting from a response. CachedTokens is nil when
// the backend reports no prompt_tokens_details.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	CachedTokens     *int64
}

// ClassifyRequest extracts routing-relevant facts from a request body.
// It never fails; missing fields yield zero values and "unknown" model.
func ClassifyRequest(body []byte) Classification {
	c := Classification{Model: "unknown"}

	if model := gjson.GetBytes(body, "model"); model.Type == gjson.String {
		c.Model = model.String()
	}
	c.Stream = gjson.GetBytes(body, "stream").Bool()
	if messages := gjson.GetBytes(body, "messages"); messages.IsArray() {
		c.MessageCount = int(messages.Get("#").Int())
	}

	tools := gjson.GetBytes(body, "tools")
	if tools.IsArray() {
		tools.ForEach(func(_, tool gjson.Result) bool {
			c.Tools = append(c.Tools, ToolInfo{
				Name:        tool.Get("function.name").String(),
				Description: tool.Get("function.description").String(),
			})
			return true
		})
	}
	c.HasTools = len(c.Tools) > 0

	return c
}

// LastUserContent returns the content of the most recent user message,
// or "" when there is none.
func LastUserContent(body []byte) string {
	messages := gjson.GetBytes(body, "messages")
	if !messages.IsArray() {
		return ""
	}
	last := ""
	messages.ForEach(func(_, msg gjson.Result) bool {
		if msg.Get("role").String() == "user" {
			last = msg.Get("content").String()
		}
		return true
	})
	return last
}

// HasReasoning reports whether a message or delta carries non-empty
// reasoning_content.
func HasReasoning(messageOrDelta []byte) bool {
	return gjson.GetBytes(messageOrDelta, "reasoning_content").String() != ""
}

// Content returns the content field of a message or delta, "" when absent.
func Content(messageOrDelta []byte) string {
	return gjson.GetBytes(messageOrDelta, "content").String()
}

// ReasoningContent returns the reasoning_content field, "" when absent.
func ReasoningContent(messageOrDelta []byte) string {
	return gjson.GetBytes(messageOrDelta, "reasoning_content").String()
}

// ExtractToolCalls returns the tool calls carried by a message or delta.
// Partial streaming fragments come back with whatever fields were present;
// argument text is passed through raw, never parsed or validated.
func ExtractToolCalls(messageOrDelta []byte) []ToolCall {
	calls := gjson.GetBytes(messageOrDelta, "tool_calls")
	if !calls.IsArray() {
		return nil
	}

	var result []ToolCall
	calls.ForEach(func(_, call gjson.Result) bool {
		tc := ToolCall{
			Index:     int(call.Get("index").Int()),
			ID:        call.Get("id").String(),
			Type:      call.Get("type").String(),
			Name:      call.Get("function.name").String(),
			Arguments: call.Get("function.arguments").String(),
		}
		result = append(result, tc)
		return true
	})
	return result
}

// CategorizeDelta classifies a streaming delta by field presence, in
// priority order: tool_calls, reasoning_content, content.
func CategorizeDelta(delta []byte) Category {
	if gjson.GetBytes(delta, "tool_calls").Exists() {
		return CategoryToolCall
	}
	if gjson.GetBytes(delta, "reasoning_content").Exists() {
		return CategoryReasoning
	}
	if gjson.GetBytes(delta, "content").Exists() {
		return CategoryContent
	}
	return CategoryNone
}

// ExtractUsage reads token usage from a full response or a final stream
// chunk. Absent fields count as zero.
func ExtractUsage(body []byte) Usage {
	usage := gjson.GetBytes(body, "usage")
	u := Usage{
		PromptTokens:     usage.Get("prompt_tokens").Int(),
		CompletionTokens: usage.Get("completion_tokens").Int(),
		TotalTokens:      usage.Get("total_tokens").Int(),
	}
	if details := usage.Get("prompt_tokens_details"); details.Exists() {
		cached := details.Get("cached_tokens").Int()
		u.CachedTokens = &cached
	}
	return u
}

// FinishReason returns the first choice's finish reason, "unknown" when
// the response carries none.
func FinishReason(body []byte) string {
	reason := gjson.GetBytes(body, "choices.0.finish_reason")
	if reason.Type == gjson.String && reason.String() != "" {
		return reason.String()
	}
	return "unknown"
}
