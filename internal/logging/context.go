// internal/logging/context.go
package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	// Trace correlation (from OpenTelemetry)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if frame, ok := FrameFromContext(ctx); ok {
		fields = append(fields, zap.Uint64("loop.frame", frame))
	}

	if name := ServiceFromContext(ctx); name != "" {
		fields = append(fields, zap.String("registry.service", name))
	}

	if requestID := RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request.id", requestID))
	}

	return fields
}

type frameCtxKey struct{}
type serviceCtxKey struct{}
type requestCtxKey struct{}

// WithFrame records the loop frame number being processed.
func WithFrame(ctx context.Context, frame uint64) context.Context {
	return context.WithValue(ctx, frameCtxKey{}, frame)
}

// FrameFromContext extracts the loop frame number.
func FrameFromContext(ctx context.Context) (uint64, bool) {
	f, ok := ctx.Value(frameCtxKey{}).(uint64)
	return f, ok
}

// WithService records the display name of the service an operation targets.
func WithService(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, serviceCtxKey{}, name)
}

// ServiceFromContext extracts the targeted service name.
func ServiceFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(serviceCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithRequestID adds request ID to context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestCtxKey{}, requestID)
}

// RequestIDFromContext extracts request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(requestCtxKey{}).(string); ok {
		return r
	}
	return ""
}

// loggerCtxKey is the context key for Logger.
type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
