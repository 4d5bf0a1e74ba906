package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestTraceLevel_BelowDebug(t *testing.T) {
	assert.Equal(t, zapcore.Level(-2), TraceLevel)
	assert.True(t, TraceLevel < zapcore.DebugLevel)

	// Per-frame entries only show up when logging.level is trace.
	assert.True(t, TraceLevel.Enabled(TraceLevel))
	assert.False(t, zapcore.DebugLevel.Enabled(TraceLevel))
	assert.False(t, zapcore.InfoLevel.Enabled(TraceLevel))
	assert.True(t, TraceLevel.Enabled(zapcore.DebugLevel))
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"trace", TraceLevel},
		{"TRACE", TraceLevel},
		{" trace ", TraceLevel},
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"InFo", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		// zap treats an empty level as info.
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := LevelFromString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevelFromString_Invalid(t *testing.T) {
	for _, input := range []string{"verbose", "123", "info extra", "frame"} {
		t.Run(input, func(t *testing.T) {
			got, err := LevelFromString(input)
			assert.Error(t, err)
			assert.Equal(t, zapcore.InfoLevel, got)
		})
	}
}

func TestLevelName_RoundTrip(t *testing.T) {
	for _, name := range []string{"trace", "debug", "info", "warn", "error"} {
		lvl, err := LevelFromString(name)
		require.NoError(t, err)
		assert.Equal(t, name, LevelName(lvl))
	}
}
