package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/pgn-l0-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level   string
		enabled slog.Level
		hidden  slog.Level
	}{
		{"debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"info", slog.LevelInfo, slog.LevelDebug},
		{"warn", slog.LevelWarn, slog.LevelInfo},
		{"error", slog.LevelError, slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "json"})
			require.NotNil(t, logger)
			assert.True(t, logger.Enabled(context.Background(), tt.enabled))
			assert.False(t, logger.Enabled(context.Background(), tt.hidden))
		})
	}
}

func TestNewLogger_Formats(t *testing.T) {
	jsonLogger := NewLogger(&config.Config{LogLevel: "info", LogFormat: "json"})
	assert.IsType(t, &slog.JSONHandler{}, jsonLogger.Handler())

	textLogger := NewLogger(&config.Config{LogLevel: "info", LogFormat: "text"})
	assert.IsType(t, &slog.TextHandler{}, textLogger.Handler())
}
