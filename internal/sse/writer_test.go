package sse_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbis-edu/orbis/internal/sse"
)

func TestNewWriter(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	sseWriter, err := sse.NewWriter(w)
	require.NoError(t, err)
	require.NotNil(t, sseWriter)

	headers := w.Header()
	assert.Equal(t, "text/event-stream", headers.Get("Content-Type"))
	assert.Equal(t, "no-cache", headers.Get("Cache-Control"))
	assert.Equal(t, "keep-alive", headers.Get("Connection"))
	assert.Equal(t, "no", headers.Get("X-Accel-Buffering"))
}

// noFlushWriter is a ResponseWriter that does NOT implement http.Flusher.
type noFlushWriter struct {
	header http.Header
}

func (w *noFlushWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (*noFlushWriter) Write([]byte) (int, error) { return 0, nil }

func (*noFlushWriter) WriteHeader(int) {}

func TestNewWriter_NoFlusher(t *testing.T) {
	t.Parallel()

	_, err := sse.NewWriter(&noFlushWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flusher")
}

func TestWriter_WriteJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	sseWriter, err := sse.NewWriter(w)
	require.NoError(t, err)

	err = sseWriter.WriteJSON(context.Background(), map[string]any{
		"type": "chunk",
		"text": "first line\nsecond line",
	})
	require.NoError(t, err)

	body := w.Body.String()
	assert.Contains(t, body, `data: {`)
	assert.Contains(t, body, `"type":"chunk"`)
	assert.Contains(t, body, `first line\nsecond line`, "newlines stay JSON-escaped")
	assert.True(t, w.Flushed, "each event must be flushed")

	// Frame terminator.
	assert.Contains(t, body, "}\n\n")
}

func TestWriter_WriteJSON_CanceledContext(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	sseWriter, err := sse.NewWriter(w)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sseWriter.WriteJSON(ctx, map[string]string{"type": "done"})
	require.Error(t, err)
	assert.Empty(t, w.Body.String())
}
