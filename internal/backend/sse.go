package backend

import (
	"bufio"
	"bytes"
	"io"
)

// EventKind distinguishes what an SSE line carries.
type EventKind int

const (
	// EventData is a data line with a JSON payload.
	EventData EventKind = iota
	// EventDone is the terminal [DONE] marker.
	EventDone
	// EventRaw is any non-data line (comments, event fields). These are
	// forwarded untouched so the relay stays transparent to extensions.
	EventRaw
)

// Event is one server-sent event read from the backend stream.
type Event struct {
	Kind    EventKind
	Payload []byte
}

const (
	initialScanBufferSize = 64 * 1024
	maxScanTokenSize      = 4 * 1024 * 1024
)

var dataPrefix = []byte("data:")

// StreamReader reads server-sent events from a backend response body,
// one event per Next call. It is forward-only and not safe for concurrent
// use, matching the one-goroutine-per-request model.
type StreamReader struct {
	scanner *bufio.Scanner
}

// NewStreamReader wraps a backend response body.
func NewStreamReader(r io.Reader) *StreamReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialScanBufferSize), maxScanTokenSize)
	return &StreamReader{scanner: scanner}
}

// Next returns the next event. io.EOF signals a clean end of the stream
// without a terminal marker; any other error is a mid-stream transport
// failure. Blank separator lines are consumed silently.
func (s *StreamReader) Next() (Event, error) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		if !bytes.HasPrefix(line, dataPrefix) {
			return Event{Kind: EventRaw, Payload: copyBytes(line)}, nil
		}

		payload := bytes.TrimSpace(line[len(dataPrefix):])
		if bytes.Equal(payload, []byte("[DONE]")) {
			return Event{Kind: EventDone}, nil
		}
		return Event{Kind: EventData, Payload: copyBytes(payload)}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// copyBytes detaches a payload from the scanner's reused buffer.
func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
