package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/svclocator/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNew_DisabledTelemetry(t *testing.T) {
	tel, err := New(context.Background(), NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, tel)

	assert.NotNil(t, tel.Tracer("test"))
	assert.NotNil(t, tel.Meter("test"))
	assert.NotNil(t, tel.LoggerProvider())
	assert.False(t, tel.IsEnabled())
	assert.Equal(t, HealthStatus{Healthy: true}, tel.Health())
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := &Config{Enabled: true}

	tel, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Nil(t, tel)
	assert.Contains(t, err.Error(), "invalid telemetry config")
}

func TestNew_EnabledWithExporter(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Enabled = true
	cfg.Metrics.Enabled = false
	exp := tracetest.NewInMemoryExporter()

	tel, err := New(context.Background(), cfg, withTraceExporter(exp))
	require.NoError(t, err)
	assert.True(t, tel.IsEnabled())

	_, span := tel.Tracer("svclocator/loop").Start(context.Background(), "registry.update")
	span.End()

	require.NoError(t, tel.ForceFlush(context.Background()))
	require.Len(t, exp.GetSpans(), 1)

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.Health().Healthy)
}

func TestTelemetry_NilSafe(t *testing.T) {
	var tel *Telemetry

	assert.NotPanics(t, func() {
		_ = tel.Tracer("test")
		_ = tel.Meter("test")
		_ = tel.LoggerProvider()
		_ = tel.IsEnabled()
		_ = tel.Shutdown(context.Background())
		_ = tel.ForceFlush(context.Background())
	})

	assert.Equal(t, HealthStatus{Healthy: false, Degraded: true}, tel.Health())
}

func TestTelemetry_ShutdownWithTimeout(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Shutdown.Timeout = config.Duration(100 * time.Millisecond)

	tel, err := New(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, tel.Shutdown(ctx))
	assert.False(t, tel.Health().Healthy)
}

func TestTestTelemetry_Spans(t *testing.T) {
	tt := NewTestTelemetry()
	tracer := tt.Tracer("test")

	for i := 0; i < 3; i++ {
		_, span := tracer.Start(context.Background(), "registry.update")
		span.SetAttributes(attribute.Int64("frame", int64(i)), attribute.Bool("teardown", false))
		span.End()
	}
	_, other := tracer.Start(context.Background(), "registry.teardown")
	other.SetAttributes(attribute.String("reason", "shutdown"), attribute.Float64("ratio", 0.5))
	other.End()

	assert.Len(t, tt.Spans(), 4)
	assert.Equal(t, 3, tt.SpanCount("registry.update"))
	assert.Nil(t, tt.SpanByName("missing"))
	tt.AssertSpanExists(t, "registry.teardown")
	tt.AssertSpanAttribute(t, "registry.update", "frame", int64(0))
	tt.AssertSpanAttribute(t, "registry.update", "teardown", false)
	tt.AssertSpanAttribute(t, "registry.teardown", "reason", "shutdown")
	tt.AssertSpanAttribute(t, "registry.teardown", "ratio", 0.5)
}

func TestTestTelemetry_Metric(t *testing.T) {
	tt := NewTestTelemetry()
	ctx := context.Background()

	counter, err := tt.Meter("test").Int64Counter("svcloc.frames")
	require.NoError(t, err)
	counter.Add(ctx, 1)
	counter.Add(ctx, 2)

	m, ok := tt.Metric(ctx, "svcloc.frames")
	require.True(t, ok)
	assert.Equal(t, "svcloc.frames", m.Name)

	_, ok = tt.Metric(ctx, "svcloc.missing")
	assert.False(t, ok)

	require.NoError(t, tt.Shutdown(ctx))
}
