package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
)

// maxPooledBufferSize is the maximum buffer size to return to pool.
// Buffers larger than this are discarded to prevent memory bloat.
const maxPooledBufferSize = 64 * 1024 // 64KB

// BufferPool manages a pool of bytes.Buffer to reduce garbage collection
// overhead on the request body read path.
var BufferPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves a buffer from the pool.
func GetBuffer() *bytes.Buffer {
	return BufferPool.Get().(*bytes.Buffer)
}

// PutBuffer resets the buffer and returns it to the pool.
// Buffers larger than 64KB are not returned to avoid memory bloat.
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	if buf.Cap() > maxPooledBufferSize {
		return
	}
	buf.Reset()
	BufferPool.Put(buf)
}

// jsonEncoderPool provides reusable JSON encoders with pooled buffers.
var jsonEncoderPool = sync.Pool{
	New: func() interface{} {
		buf := new(bytes.Buffer)
		return &JSONEncoder{
			buf:     buf,
			encoder: json.NewEncoder(buf),
		}
	},
}

// JSONEncoder wraps json.Encoder with a pooled buffer.
type JSONEncoder struct {
	buf     *bytes.Buffer
	encoder *json.Encoder
}

// GetJSONEncoder retrieves a JSON encoder from the pool.
func GetJSONEncoder() *JSONEncoder {
	enc := jsonEncoderPool.Get().(*JSONEncoder)
	enc.buf.Reset()
	return enc
}

// Encode encodes v to JSON and returns the bytes.
// The returned bytes are only valid until the next call to Encode
// or until PutJSONEncoder is called. Copy the bytes to keep them.
func (e *JSONEncoder) Encode(v interface{}) ([]byte, error) {
	e.buf.Reset()
	if err := e.encoder.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline added by json.Encoder.Encode
	b := e.buf.Bytes()
	if len(b) > 0 && b[len(b)-1] == '\n' {
		b = b[:len(b)-1]
	}
	return b, nil
}

// PutJSONEncoder returns the encoder to the pool.
func PutJSONEncoder(enc *JSONEncoder) {
	if enc == nil {
		return
	}
	if enc.buf.Cap() > maxPooledBufferSize {
		return
	}
	jsonEncoderPool.Put(enc)
}

// StringBuilderPool provides reusable string builders for rendering
// multi-line log blocks.
var StringBuilderPool = sync.Pool{
	New: func() interface{} {
		return new(strings.Builder)
	},
}

// GetStringBuilder retrieves a string builder from the pool.
func GetStringBuilder() *strings.Builder {
	sb := StringBuilderPool.Get().(*strings.Builder)
	sb.Reset()
	return sb
}

// PutStringBuilder returns a string builder to the pool.
func PutStringBuilder(sb *strings.Builder) {
	if sb == nil {
		return
	}
	if sb.Cap() > maxPooledBufferSize {
		return
	}
	StringBuilderPool.Put(sb)
}

// MarshalJSON uses a pooled encoder for JSON marshaling and returns a
// newly allocated byte slice containing the encoding.
func MarshalJSON(v interface{}) ([]byte, error) {
	enc := GetJSONEncoder()
	b, err := enc.Encode(v)
	if err != nil {
		PutJSONEncoder(enc)
		return nil, err
	}
	result := make([]byte, len(b))
	copy(result, b)
	PutJSONEncoder(enc)
	return result, nil
}
