// Package telemetry provides OpenTelemetry instrumentation for svclocd.
//
// Traces and metrics are exported over OTLP (gRPC or HTTP/protobuf) to a
// collector. The loop wraps every registry update in a "registry.update"
// span and the HTTP control API records request metrics through Meter.
//
// # Usage
//
//	cfg := telemetry.FromObservability(appCfg.Observability, version)
//	tel, err := telemetry.New(ctx, cfg, telemetry.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	tracer := tel.Tracer("svclocator/loop")
//
// # Error Handling
//
// Exporter setup failures mark the instance degraded; Tracer and Meter then
// fall back to the global no-op providers. Health reports the degraded flag; svclocd
// surfaces it on GET /health.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	lp := loop.New(reg, cfg, logger, tt.Tracer("test"))
//	lp.Tick(ctx)
//	tt.AssertSpanExists(t, "registry.update")
package telemetry
