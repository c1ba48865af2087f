package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestGetBuffer(t *testing.T) {
	t.Parallel()

	buf := GetBuffer()
	if buf == nil {
		t.Fatal("GetBuffer returned nil")
	}
	if buf.Len() != 0 {
		t.Errorf("expected empty buffer, got length %d", buf.Len())
	}
	PutBuffer(buf)
}

func TestPutBuffer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		setupBuf func() *bytes.Buffer
	}{
		{
			name: "nil_buffer",
			setupBuf: func() *bytes.Buffer {
				return nil
			},
		},
		{
			name: "small_buffer",
			setupBuf: func() *bytes.Buffer {
				buf := GetBuffer()
				buf.WriteString("test data")
				return buf
			},
		},
		{
			name: "large_buffer",
			setupBuf: func() *bytes.Buffer {
				return bytes.NewBuffer(make([]byte, 0, maxPooledBufferSize+1))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := tt.setupBuf()
			PutBuffer(buf)

			if buf != nil && buf.Cap() <= maxPooledBufferSize && buf.Len() != 0 {
				t.Error("buffer should be reset after PutBuffer")
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	t.Parallel()

	type payload struct {
		Model  string `json:"model"`
		Stream bool   `json:"stream"`
	}

	b, err := MarshalJSON(payload{Model: "gpt-4o", Stream: true})
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	want := `{"model":"gpt-4o","stream":true}`
	if string(b) != want {
		t.Errorf("expected %s, got %s", want, b)
	}
	if bytes.HasSuffix(b, []byte("\n")) {
		t.Error("trailing newline should be stripped")
	}
}

func TestMarshalJSON_Error(t *testing.T) {
	t.Parallel()

	if _, err := MarshalJSON(make(chan int)); err == nil {
		t.Error("expected error for unmarshalable value")
	}
}

func TestStringBuilderPool(t *testing.T) {
	t.Parallel()

	sb := GetStringBuilder()
	if sb == nil {
		t.Fatal("GetStringBuilder returned nil")
	}
	if sb.Len() != 0 {
		t.Errorf("expected empty builder, got length %d", sb.Len())
	}
	sb.WriteString("line")
	PutStringBuilder(sb)

	big := &strings.Builder{}
	big.Grow(maxPooledBufferSize + 1)
	PutStringBuilder(big)
	PutStringBuilder(nil)
}
