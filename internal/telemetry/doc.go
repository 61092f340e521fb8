// Package telemetry provides OpenTelemetry tracing and metrics for thoughtguard.
//
// # Overview
//
// Telemetry is disabled by default. When enabled, spans and metrics are
// exported over OTLP using gRPC or HTTP/protobuf. Exporter failures mark the
// instance degraded instead of failing startup, and classification never
// depends on telemetry being available.
//
// # Usage
//
//	cfg := telemetry.NewDefaultConfig()
//	cfg.Enabled = true
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	ctx, span := tel.Tracer("thoughtguard.guard").Start(ctx, "thoughtguard.evaluate")
//	defer span.End()
//
// # Configuration
//
// Insecure (plaintext) export is only permitted to loopback endpoints. Set
// tls_skip_verify to talk TLS to collectors with private certificates.
//
// # Testing
//
// NewTestTelemetry records spans and metrics in memory:
//
//	tt := telemetry.NewTestTelemetry()
//	// exercise code using tt.Telemetry
//	tt.AssertSpanExists(t, "thoughtguard.evaluate")
package telemetry
