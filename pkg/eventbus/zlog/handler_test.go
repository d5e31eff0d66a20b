package zlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandlerAndBuf() (*Handler, *bytes.Buffer) {
	var buf bytes.Buffer
	z := zerolog.New(&buf)
	return &Handler{log: z}, &buf
}

func TestHandlerWritesLevelAndMessage(t *testing.T) {
	h, buf := newTestHandlerAndBuf()
	logger := slog.New(h)

	logger.Info("bus started")

	var data map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "info", data["level"])
	assert.Equal(t, "bus started", data["message"])
}

func TestHandlerWithAttrsAddsFields(t *testing.T) {
	h, buf := newTestHandlerAndBuf()
	logger := slog.New(h).With("component", "eventbus")

	logger.Warn("posting queue backlog")

	var data map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "eventbus", data["component"])
}

func TestHandlerWithGroupNamespacesKeys(t *testing.T) {
	h, buf := newTestHandlerAndBuf()
	logger := slog.New(h).WithGroup("dispatch").With("event", "OrderPlaced")

	logger.Debug("delivered")

	var data map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "OrderPlaced", data["dispatch.event"])
}

func TestHandlerEnabledRespectsLevel(t *testing.T) {
	h, _ := newTestHandlerAndBuf()
	h.log = h.log.Level(zerolog.WarnLevel)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
}

func TestSlogLevelToZerologMapping(t *testing.T) {
	assert.Equal(t, zerolog.ErrorLevel, slogLevelToZerolog(slog.LevelError))
	assert.Equal(t, zerolog.WarnLevel, slogLevelToZerolog(slog.LevelWarn))
	assert.Equal(t, zerolog.InfoLevel, slogLevelToZerolog(slog.LevelInfo))
	assert.Equal(t, zerolog.DebugLevel, slogLevelToZerolog(slog.LevelDebug))
}
