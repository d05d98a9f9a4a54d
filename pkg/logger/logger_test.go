package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(tt.level, false)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("chatty", true)
	assert.Error(t, err)
}

func TestGetBeforeInitIsNop(t *testing.T) {
	if globalLogger != nil {
		t.Skip("global logger already initialized")
	}
	assert.NotNil(t, Get())
	assert.NoError(t, Sync())
}

func TestInitOnce(t *testing.T) {
	require.NoError(t, Init("info", true, zap.String("service", "test")))
	first := Get()

	require.NoError(t, Init("debug", false))
	assert.Same(t, first, Get())
}
