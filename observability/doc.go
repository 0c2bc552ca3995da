// Package observability provides OpenTelemetry tracing and metrics integration
// for storage and identity operations.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("archive-dev"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanStorageRequest)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("archive-dev"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("archive-dev"))
//	metrics.RecordOperation(ctx, "objstore.swift", "put_object", "ok", duration)
//
// Health Checks:
//
//	health := observability.NewServiceHealth("archive-dev", version.Version)
//	health.AddComponent(checker.CheckHealth(ctx))
package observability
