package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestTestLogger_Creation(t *testing.T) {
	tl := NewTestLogger()
	assert.NotNil(t, tl.Logger)
	assert.NotNil(t, tl.observed)
	assert.True(t, tl.Enabled(TraceLevel))
}

func TestTestLogger_AssertLogged(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "registered service", zap.String("service", "alpha"))

	tl.AssertLogged(t, zapcore.InfoLevel, "registered")
	tl.AssertNotLogged(t, zapcore.ErrorLevel, "registered")
}

func TestTestLogger_AssertField(t *testing.T) {
	tl := NewTestLogger()
	tl.Info(context.Background(), "registered service", zap.String("service", "alpha"), zap.Bool("host_managed", true))

	tl.AssertField(t, "registered", "service", "alpha")
	tl.AssertField(t, "registered", "host_managed", true)
}

func TestTestLogger_CountAndReset(t *testing.T) {
	tl := NewTestLogger()
	ctx := context.Background()
	tl.Warn(ctx, "already started")
	tl.Warn(ctx, "already started")
	tl.Underlying().Warn("already started")

	assert.Equal(t, 3, tl.Count(zapcore.WarnLevel, "already"))
	assert.Len(t, tl.FilterMessage("started").All(), 3)

	tl.Reset()
	assert.Empty(t, tl.All())
}
