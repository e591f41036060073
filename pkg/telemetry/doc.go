// Package telemetry provides observability instrumentation for junoctl.
//
// The package integrates structured logging (zerolog), tracing
// (OpenTelemetry) and metrics (Prometheus) behind a single Telemetry value
// that travels in the context.
//
// # Usage
//
// Initialize telemetry at startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = version
//	cfg.Metrics.TextfilePath = "/var/lib/node_exporter/junoctl.prom"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
//	logger := telemetry.FromContext(ctx).NewComponentLogger("cleaner")
//	logger.WithResource("volume", "juno_data").Debug("removing volume")
//
// Log levels: trace, debug, info, warn, error, fatal. Logs go to stderr by
// default so that report output on stdout stays machine-readable.
//
// # Tracing
//
// Each sweep gets a root span; phases and daemon invocations are children:
//
//	ctx = telemetry.WithSweepContext(ctx, telemetry.NewRunID(), dryRun)
//	defer telemetry.EndSweepContext(ctx, "completed", err)
//
//	err := telemetry.RecordDaemonOperation(ctx, "volume.rm", func(ctx context.Context) error {
//	    return client.RemoveVolume(ctx, "juno_data")
//	})
//
// Exporters: stdout (pretty-printed, to stderr), otlp (gRPC) and none.
//
// # Metrics
//
// A CLI process is too short-lived to be scraped, so the registry is
// written once at shutdown to MetricsConfig.TextfilePath in Prometheus text
// format for node_exporter's textfile collector. Every Record method is a
// no-op when metrics are disabled.
package telemetry
