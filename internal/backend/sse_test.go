package backend

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamReader_DataAndDone(t *testing.T) {
	stream := "data: {\"id\":\"1\"}\n\n" +
		"data: {\"id\":\"2\"}\n\n" +
		"data: [DONE]\n\n"

	r := NewStreamReader(strings.NewReader(stream))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventData, ev.Kind)
	assert.Equal(t, `{"id":"1"}`, string(ev.Payload))

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventData, ev.Kind)
	assert.Equal(t, `{"id":"2"}`, string(ev.Payload))

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventDone, ev.Kind)
}

func TestStreamReader_RawLines(t *testing.T) {
	stream := ": keepalive\n" +
		"event: message\n" +
		"data: {\"x\":1}\n\n"

	r := NewStreamReader(strings.NewReader(stream))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventRaw, ev.Kind)
	assert.Equal(t, ": keepalive", string(ev.Payload))

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventRaw, ev.Kind)
	assert.Equal(t, "event: message", string(ev.Payload))

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventData, ev.Kind)
}

func TestStreamReader_NoSpaceAfterColon(t *testing.T) {
	r := NewStreamReader(strings.NewReader("data:{\"compact\":true}\n"))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventData, ev.Kind)
	assert.Equal(t, `{"compact":true}`, string(ev.Payload))
}

func TestStreamReader_EOFWithoutDone(t *testing.T) {
	r := NewStreamReader(strings.NewReader("data: {\"id\":\"1\"}\n\n"))

	_, err := r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStreamReader_EmptyStream(t *testing.T) {
	r := NewStreamReader(strings.NewReader(""))

	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStreamReader_PayloadDetachedFromBuffer(t *testing.T) {
	stream := "data: {\"first\":1}\n\ndata: {\"second\":2}\n\n"
	r := NewStreamReader(strings.NewReader(stream))

	ev1, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)

	// Reading the second event must not clobber the first payload
	assert.Equal(t, `{"first":1}`, string(ev1.Payload))
}
