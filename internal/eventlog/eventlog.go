// Package eventlog renders observability events for relayed chat traffic.
// Events are rendered as fixed-format blocks so a terminal reader can follow
// a conversation at a glance. Logging is best-effort: a missing or malformed
// field degrades to a placeholder and never affects the relay itself.
package eventlog

import (
	"fmt"

	"chat-relay/internal/inspect"
	"chat-relay/internal/types"
	"chat-relay/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	toolDescPreviewLength = 60
	toolArgsPreviewLength = 200

	requestRule  = "================================================================================"
	responseRule = "--------------------------------------------------------------------------------"
)

// Logger emits structured relay events through logrus.
type Logger struct {
	cfg types.EventLogConfig
	log *logrus.Logger
}

// NewLogger creates an event logger using the standard logrus logger.
func NewLogger(configManager types.ConfigManager) *Logger {
	return &Logger{
		cfg: configManager.GetEventLogConfig(),
		log: logrus.StandardLogger(),
	}
}

// NewLoggerWithOutput creates an event logger bound to a specific logrus
// instance. Used by tests to capture output through a hook.
func NewLoggerWithOutput(cfg types.EventLogConfig, log *logrus.Logger) *Logger {
	return &Logger{cfg: cfg, log: log}
}

// preview truncates s to max bytes, marking the cut with an ellipsis.
func preview(s string, max int) string {
	if max > 0 && len(s) > max {
		return utils.TruncateString(s, max) + "..."
	}
	return s
}

// LogRequest renders the [REQUEST] block for an incoming completion request.
func (l *Logger) LogRequest(body []byte) {
	c := inspect.ClassifyRequest(body)

	sb := utils.GetStringBuilder()
	defer utils.PutStringBuilder(sb)

	sb.WriteString("\n")
	sb.WriteString(requestRule)
	sb.WriteString("\n[REQUEST]\n")
	fmt.Fprintf(sb, "Model: %s\n", c.Model)
	fmt.Fprintf(sb, "Stream: %t\n", c.Stream)
	fmt.Fprintf(sb, "Messages count: %d\n", c.MessageCount)

	if lastUser := inspect.LastUserContent(body); lastUser != "" {
		fmt.Fprintf(sb, "Last user message: %s\n", preview(lastUser, l.cfg.ChunkPreviewLength))
	}

	if c.HasTools {
		fmt.Fprintf(sb, "[Tool Definitions] %d tools\n", len(c.Tools))
		for i, tool := range c.Tools {
			name := tool.Name
			if name == "" {
				name = "unknown"
			}
			desc := tool.Description
			if desc == "" {
				desc = "no description"
			}
			fmt.Fprintf(sb, "  [%d] %s: %s\n", i, name, utils.TruncateString(desc, toolDescPreviewLength))
		}
	}

	sb.WriteString(requestRule)
	l.log.Info(sb.String())
}

// LogResponse renders the [RESPONSE] block for a buffered completion
// response or an assembled stream summary.
func (l *Logger) LogResponse(body []byte) {
	sb := utils.GetStringBuilder()
	defer utils.PutStringBuilder(sb)

	sb.WriteString("\n")
	sb.WriteString(responseRule)
	sb.WriteString("\n[RESPONSE]\n")

	message := messageRaw(body)

	if content := inspect.Content(message); content != "" {
		fmt.Fprintf(sb, "Content: %s\n", preview(content, l.cfg.ContentPreviewLength))
	}
	if reasoning := inspect.ReasoningContent(message); reasoning != "" {
		fmt.Fprintf(sb, "[Reasoning] %s\n", preview(reasoning, l.cfg.ContentPreviewLength))
	}

	for _, tc := range inspect.ExtractToolCalls(message) {
		name := tc.Name
		if name == "" {
			name = "unknown"
		}
		fmt.Fprintf(sb, "[Tool Call] %s\n", name)
		if tc.Arguments != "" {
			fmt.Fprintf(sb, "Args: %s\n", utils.TruncateString(tc.Arguments, toolArgsPreviewLength))
		}
	}

	fmt.Fprintf(sb, "Finish reason: %s\n", inspect.FinishReason(body))

	usage := inspect.ExtractUsage(body)
	if usage.TotalTokens > 0 || usage.PromptTokens > 0 || usage.CompletionTokens > 0 {
		fmt.Fprintf(sb, "Usage - prompt: %d, completion: %d, total: %d\n",
			usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
		if usage.CachedTokens != nil && *usage.CachedTokens > 0 {
			fmt.Fprintf(sb, "[Cached Tokens: %d]\n", *usage.CachedTokens)
		}
	}

	sb.WriteString(responseRule)
	l.log.Info(sb.String())
}

// LogStreamChunk logs one streaming delta with its category marking.
func (l *Logger) LogStreamChunk(category inspect.Category, text string) {
	switch category {
	case inspect.CategoryReasoning:
		l.log.Infof("[STREAM CHUNK] [REASONING] %s", preview(text, l.cfg.ChunkPreviewLength))
	case inspect.CategoryToolCall:
		l.log.Infof("[STREAM CHUNK] [TOOL_CALL] %s", text)
	default:
		l.log.Infof("[STREAM CHUNK] %s", preview(text, l.cfg.ChunkPreviewLength))
	}
}

// LogToolCall logs one completed tool call with its accumulated arguments.
func (l *Logger) LogToolCall(tc inspect.ToolCall) {
	name := tc.Name
	if name == "" {
		name = "unknown"
	}
	if tc.Arguments != "" {
		l.log.Infof("[Tool Call] %s\nArgs: %s", name, utils.TruncateString(tc.Arguments, toolArgsPreviewLength))
		return
	}
	l.log.Infof("[Tool Call] %s", name)
}

// LogRawChunk logs a stream payload that could not be decoded. The payload
// is still forwarded to the caller untouched.
func (l *Logger) LogRawChunk(payload []byte) {
	l.log.Warnf("[STREAM CHUNK] [RAW] %s", preview(string(payload), l.cfg.ChunkPreviewLength))
}

// LogError logs a relay error in the [ERROR] format.
func (l *Logger) LogError(context string, err error) {
	if err == nil {
		return
	}
	l.log.Errorf("[ERROR] %s: %v", context, err)
}

// LogAbnormalTermination warns that a backend stream ended without the
// terminal marker and a synthetic one was emitted in its place.
func (l *Logger) LogAbnormalTermination(chunkCount int) {
	l.log.Warnf("Stream ended without terminal marker after %d chunks, synthesizing [DONE]", chunkCount)
}

func messageRaw(body []byte) []byte {
	if msg := gjson.GetBytes(body, "choices.0.message"); msg.Exists() {
		return []byte(msg.Raw)
	}
	return []byte("{}")
}
