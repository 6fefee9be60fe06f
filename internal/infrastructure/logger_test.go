package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"northstar/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestInitializeLoggerToFile(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	path := filepath.Join(t.TempDir(), "logs", "test.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: path,
	})
	require.NoError(t, err)

	ctx := WithTraceID(context.Background(), "trace-abc")
	logger.InfoContext(ctx, "report generated", slog.Int("players", 12))
	require.NoError(t, CloseLogFile())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &record))
	assert.Equal(t, "report generated", record["msg"])
	assert.Equal(t, float64(12), record["players"])
	assert.Equal(t, "trace-abc", record["trace_id"], "trace ID is injected from context")
}

func TestInitializeLoggerOnce(t *testing.T) {
	ResetLoggerForTesting()
	t.Cleanup(ResetLoggerForTesting)

	first, err := InitializeLogger(config.LoggingConfig{Level: "info", Output: "console"})
	require.NoError(t, err)

	second, err := InitializeLogger(config.LoggingConfig{Level: "debug", Output: "console"})
	require.NoError(t, err)

	assert.Same(t, first, second, "initialization is once per process")
}

func TestTraceID(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "abc-123")
		assert.Equal(t, "abc-123", GetTraceID(ctx))
	})

	t.Run("absent", func(t *testing.T) {
		assert.Empty(t, GetTraceID(context.Background()))
	})

	t.Run("generated IDs are unique", func(t *testing.T) {
		assert.NotEqual(t, GenerateTraceID(), GenerateTraceID())
	})

	t.Run("ensure keeps an existing ID", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "keep-me")
		assert.Equal(t, "keep-me", GetTraceID(EnsureTraceID(ctx)))
	})

	t.Run("ensure fills a missing ID", func(t *testing.T) {
		ctx := EnsureTraceID(context.Background())
		assert.NotEmpty(t, GetTraceID(ctx))
	})
}
