package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("contacthub", "info", &buf)

	log.Info("server started", slog.Int("port", 8000))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "contacthub", entry["service"])
	assert.Equal(t, "server started", entry["msg"])
	assert.Equal(t, float64(8000), entry["port"])
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("contacthub", "warn", &buf)

	log.Info("dropped")
	assert.Empty(t, buf.String())

	log.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("contacthub", "verbose", &buf)

	log.Debug("dropped")
	assert.Empty(t, buf.String())

	log.Info("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-123")
	assert.Equal(t, "corr-123", CorrelationIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestUserID_RoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-1")
	assert.Equal(t, "user-1", UserIDFromContext(ctx))
	assert.Empty(t, UserIDFromContext(context.Background()))
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	var buf bytes.Buffer
	log := NewWithWriter("contacthub", "info", &buf)
	ctx := NewContext(context.Background(), log)
	assert.Equal(t, log, FromContext(ctx))
}

func TestWithContext_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("contacthub", "info", &buf)

	ctx := WithCorrelationID(context.Background(), "corr-123")
	ctx = WithUserID(ctx, "user-1")

	WithContext(ctx, log).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "corr-123", entry["correlation_id"])
	assert.Equal(t, "user-1", entry["user_id"])
}
