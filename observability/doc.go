// Package observability wires a flowrun process's stage invocations and
// queue depths into OpenTelemetry tracing and metrics.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("checkout-flow")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanStageInvoke)
//	defer span.End()
//
// Metrics:
//
//	cfg := observability.DefaultMeterConfig("checkout-flow")
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("checkout-flow"))
//	metrics.RecordOperation(ctx, "checkout-flow", "transform", "ok", duration)
//	metrics.RecordQueueDepth(ctx, "q1", 42)
package observability
