package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "console to stdout", cfg: Config{Level: "info", Format: "console", Output: "stdout"}},
		{name: "json to stderr", cfg: Config{Level: "debug", Format: "json", Output: "stderr"}},
		{name: "empty config falls back", cfg: Config{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.cfg)
			require.NotNil(t, logger)
			logger.Info("test message")
		})
	}
}

func TestNewForEnvironment(t *testing.T) {
	require.NotNil(t, NewForEnvironment("production"))
	require.NotNil(t, NewForEnvironment("development"))
	require.NotNil(t, NewForEnvironment(""))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), "level %q", tt.in)
	}
}
