package proxy

import (
	"io"
	"net/http"
	"sort"

	"chat-relay/internal/backend"
	"chat-relay/internal/eventlog"
	"chat-relay/internal/inspect"

	"github.com/tidwall/gjson"
)

var (
	ssePrefix    = []byte("data: ")
	sseSeparator = []byte("\n\n")
	sseDoneEvent = []byte("data: [DONE]\n\n")
	sseNewline   = []byte("\n")
)

// streamWriter is the caller-facing side of a relay: an SSE response that
// can be flushed per event.
type streamWriter interface {
	io.Writer
	http.Flusher
}

// Relay forwards a backend SSE stream to the caller one event at a time,
// preserving order and payload bytes exactly while logging each chunk.
type Relay struct {
	events *eventlog.Logger

	// tool-call deltas accumulated per index until a finish boundary
	pending map[int]*inspect.ToolCall
	order   []int
	chunks  int
}

// NewRelay creates a relay for one streaming response.
func NewRelay(events *eventlog.Logger) *Relay {
	return &Relay{
		events:  events,
		pending: make(map[int]*inspect.ToolCall),
	}
}

// Run pumps events from the backend body to the caller until the terminal
// marker, end of stream, or a write failure. The caller always receives a
// final [DONE]: a backend stream that ends without one gets a synthesized
// marker after a logged warning.
func (r *Relay) Run(w streamWriter, body io.Reader) {
	reader := backend.NewStreamReader(body)

	for {
		ev, err := reader.Next()
		if err != nil {
			if err != io.EOF {
				r.events.LogError("stream read failed", err)
			}
			r.flushPendingToolCalls()
			r.events.LogAbnormalTermination(r.chunks)
			r.writeDone(w)
			return
		}

		switch ev.Kind {
		case backend.EventDone:
			r.flushPendingToolCalls()
			r.writeDone(w)
			return

		case backend.EventRaw:
			if _, err := w.Write(append(ev.Payload, sseNewline...)); err != nil {
				return
			}
			w.Flush()

		case backend.EventData:
			r.inspectChunk(ev.Payload)
			if !r.writeData(w, ev.Payload) {
				return
			}
			r.chunks++
		}
	}
}

// inspectChunk logs one data payload and accumulates tool-call fragments.
// Inspection is best-effort and never blocks forwarding.
func (r *Relay) inspectChunk(payload []byte) {
	if !gjson.ValidBytes(payload) {
		r.events.LogRawChunk(payload)
		return
	}

	choice := gjson.GetBytes(payload, "choices.0")
	delta := []byte(choice.Get("delta").Raw)

	switch inspect.CategorizeDelta(delta) {
	case inspect.CategoryToolCall:
		r.accumulateToolCalls(delta)
	case inspect.CategoryReasoning:
		if text := inspect.ReasoningContent(delta); text != "" {
			r.events.LogStreamChunk(inspect.CategoryReasoning, text)
		}
	case inspect.CategoryContent:
		if text := inspect.Content(delta); text != "" {
			r.events.LogStreamChunk(inspect.CategoryContent, text)
		}
	}

	if reason := choice.Get("finish_reason"); reason.Type == gjson.String && reason.String() != "" {
		r.flushPendingToolCalls()
	}
}

// accumulateToolCalls merges streaming tool-call fragments by index. The
// first fragment of a call carries id and name; later fragments append
// argument text. Calls are logged once, at the finish boundary.
func (r *Relay) accumulateToolCalls(delta []byte) {
	for _, fragment := range inspect.ExtractToolCalls(delta) {
		call, exists := r.pending[fragment.Index]
		if !exists {
			call = &inspect.ToolCall{Index: fragment.Index}
			r.pending[fragment.Index] = call
			r.order = append(r.order, fragment.Index)
		}
		if fragment.ID != "" {
			call.ID = fragment.ID
		}
		if fragment.Type != "" {
			call.Type = fragment.Type
		}
		if fragment.Name != "" {
			call.Name = fragment.Name
			r.events.LogStreamChunk(inspect.CategoryToolCall, fragment.Name)
		}
		call.Arguments += fragment.Arguments
	}
}

// flushPendingToolCalls logs accumulated calls in arrival order.
func (r *Relay) flushPendingToolCalls() {
	if len(r.pending) == 0 {
		return
	}
	sort.Ints(r.order)
	for _, index := range r.order {
		r.events.LogToolCall(*r.pending[index])
	}
	r.pending = make(map[int]*inspect.ToolCall)
	r.order = nil
}

func (r *Relay) writeData(w streamWriter, payload []byte) bool {
	if _, err := w.Write(ssePrefix); err != nil {
		return false
	}
	if _, err := w.Write(payload); err != nil {
		return false
	}
	if _, err := w.Write(sseSeparator); err != nil {
		return false
	}
	w.Flush()
	return true
}

func (r *Relay) writeDone(w streamWriter) {
	if _, err := w.Write(sseDoneEvent); err != nil {
		return
	}
	w.Flush()
}
