package logging

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/svclocator/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampledLogger(core zapcore.Core, cfg SamplingConfig) *Logger {
	return &Logger{
		zap:    zap.New(newSampledCore(core, cfg)),
		config: NewDefaultConfig(),
	}
}

func TestNewSampledCore_Disabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	sampled := newSampledCore(core, SamplingConfig{Enabled: false})
	assert.Equal(t, core, sampled)
}

func TestNewSampledCore_ErrorsNeverSampled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := sampledLogger(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels:  DefaultLevelSamplingConfig(),
	})

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		logger.Error(ctx, "update panicked")
	}

	assert.Len(t, observed.FilterMessage("update panicked").All(), 100)
}

func TestNewSampledCore_WarnSampled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := sampledLogger(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels: map[zapcore.Level]LevelSamplingConfig{
			zapcore.WarnLevel: {Initial: 5, Thereafter: 0},
		},
	})

	ctx := context.Background()
	for i := 0; i < 60; i++ {
		logger.Warn(ctx, "[alpha] service already started")
	}
	for i := 0; i < 20; i++ {
		logger.Info(ctx, "unsampled info")
	}

	assert.Len(t, observed.FilterMessage("[alpha] service already started").All(), 5)
	assert.Len(t, observed.FilterMessage("unsampled info").All(), 20, "levels without config pass through")
}

func TestNewSampledCore_Thereafter(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := sampledLogger(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels: map[zapcore.Level]LevelSamplingConfig{
			zapcore.InfoLevel: {Initial: 5, Thereafter: 10},
		},
	})

	ctx := context.Background()
	for i := 0; i < 105; i++ {
		logger.Info(ctx, "repeated message")
	}

	// 5 initial, then every 10th of the remaining 100
	assert.Len(t, observed.FilterMessage("repeated message").All(), 15)
}

func TestNewSampledCore_RespectsCoreLevel(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	logger := sampledLogger(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels:  DefaultLevelSamplingConfig(),
	})

	ctx := context.Background()
	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")

	logs := observed.All()
	if assert.Len(t, logs, 1) {
		assert.Equal(t, "warn", logs[0].Message)
	}
}

func TestLevelFilterCore_With(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	logger := &Logger{
		zap:    zap.New(newLevelRange(core, zapcore.ErrorLevel, zapcore.FatalLevel)),
		config: NewDefaultConfig(),
	}

	ctx := context.Background()
	child := logger.With(zap.String("component", "loop"))

	child.Info(ctx, "info message")
	child.Warn(ctx, "warn message")
	child.Error(ctx, "error message")

	logs := observed.All()
	if assert.Len(t, logs, 1, "only error should pass through") {
		assert.Equal(t, "error message", logs[0].Message)
		assert.Equal(t, "loop", logs[0].ContextMap()["component"])
	}
}

func TestLevelFilterCore_InfoBounds(t *testing.T) {
	// InfoLevel is the zero value of zapcore.Level; bounds at Info must still apply.
	core, _ := observer.New(TraceLevel)
	info := newLevelRange(core, zapcore.InfoLevel, zapcore.InfoLevel)

	assert.False(t, info.Enabled(zapcore.DebugLevel))
	assert.True(t, info.Enabled(zapcore.InfoLevel))
	assert.False(t, info.Enabled(zapcore.WarnLevel))
}
