// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// The package wraps Zap with:
//   - A Trace level (-2, below Debug) used for per-line verdicts
//   - Dual output (stdout + OpenTelemetry via the otelzap bridge)
//   - Context field injection (trace_id, request.id, message.destination, message.channel)
//   - Key and value redaction in the stdout encoder
//   - Per-level sampling (errors never sampled)
//   - Bounded message excerpts, since outgoing text is customer data
//
// # Usage
//
//	logger, err := logging.NewLogger(cfg, otelProvider)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, "req_123")
//	ctx, _ = logging.WithRoute(ctx, "34600111222", "whatsapp")
//	logger.Info(ctx, "message cancelled",
//	    zap.Int("score", 95),
//	    logger.Excerpt("text", body))
//
// # Configuration
//
// Defaults come from NewDefaultConfig, then the YAML file, then
// THOUGHTGUARD_LOGGING_* environment variables.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	svc := guard.New(cfg, tl.Logger, ...)
//	tl.AssertLogged(t, zapcore.InfoLevel, "message cancelled")
//	tl.AssertField(t, "message cancelled", "decision", "cancel")
//	tl.AssertNoSecrets(t)
package logging
