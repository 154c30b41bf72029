package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	require.NotNil(t, New(Config{}))
}

func TestNewWithWriter_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelDebug})

	logger.Info("course indexed", "code", "CS101")

	out := buf.String()
	assert.Contains(t, out, "course indexed")
	assert.Contains(t, out, "code=CS101")
}

func TestNewWithWriter_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{JSON: true})

	logger.Info("chunk stored", "document_id", 7)

	out := buf.String()
	assert.Contains(t, out, `"msg":"chunk stored"`)
	assert.Contains(t, out, `"document_id":7`)
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelWarn})

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestNewWithWriter_ComponentContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{})

	logger.With("component", "ingest").Info("run started")

	assert.Contains(t, buf.String(), "component=ingest")
}

func TestNewNop_Discards(t *testing.T) {
	logger := NewNop()
	require.NotNil(t, logger)

	// Must not panic and must produce nothing observable.
	logger.Error("discarded")
}
