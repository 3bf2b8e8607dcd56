package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Format: "json", Output: &buf})

	l.Info("dropped")
	l.Warn("header.session_check_failed", "err", "boom")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "header.session_check_failed", line["msg"])
	assert.Equal(t, "boom", line["err"])
	assert.Contains(t, line["time"], "Z")
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Format: "text", Output: &buf}).Info("http.request", "path", "/docs")
	assert.Contains(t, buf.String(), "msg=http.request")
	assert.Contains(t, buf.String(), "path=/docs")
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Format: "text", Output: &buf})
	ctx := WithLogger(context.Background(), l.With("device", "d1"))

	From(ctx).Info("x")
	assert.Contains(t, buf.String(), "device=d1")
	assert.Same(t, slog.Default(), From(context.Background()))
}
