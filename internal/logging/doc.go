// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Dual output (stdout + OpenTelemetry log bridge)
//   - Context field injection (trace_id, loop.frame, registry.service)
//   - Per-level sampling (errors never sampled)
//
// The registry and its observers take the *zap.Logger returned by
// Underlying. The loop tags every frame with WithFrame and the HTTP server
// tags requests with WithRequestID and WithService, so their logs carry
// loop.frame, request.id and registry.service next to the trace IDs.
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, otelProvider)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithService(ctx, "heartbeat")
//	logger.Info(ctx, "service started")
//
// # Sampling
//
// A loop ticking at 60 Hz can repeat the same warning every frame:
//   - Trace: first 1 per tick, drop rest
//   - Debug: first 10 per tick, drop rest
//   - Info: first 100, then 1 every 10
//   - Warn: first 10, then 1 every 100
//   - Error+: never sampled
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	reg := services.NewRegistry(services.WithLogger(tl.Underlying()))
//	...
//	tl.AssertLogged(t, zapcore.WarnLevel, "already started")
package logging
