package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/flowmesh/runtime/logger"
)

// MeterConfig configures the OpenTelemetry meter provider a flowrun
// process exports its stage and queue metrics through.
type MeterConfig struct {
	// ServiceName identifies the flowrun process, typically the flow name.
	ServiceName string
	// ServiceVersion is the flowrun binary's version string.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for a locally run flow.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on flowrun exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"flow", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments a flowrun process records stage and queue
// activity through. RecordOperation and RecordError are the instruments
// stagerunner drives per stage invocation; RecordQueueDepth is driven by
// the orchestrator's wait loop.
type Metrics struct {
	stageInvocations metric.Int64Counter
	stageDuration    metric.Float64Histogram
	activeWorkers    metric.Int64UpDownCounter
	queueDepth       metric.Int64Gauge
	errorTotal       metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	stageInvocations, err := meter.Int64Counter("flow.stage.invocations",
		metric.WithDescription("Total number of stage invocations, by stage and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.stage.invocations counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("flow.stage.duration",
		metric.WithDescription("Duration of a single stage invocation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.stage.duration histogram: %w", err)
	}

	activeWorkers, err := meter.Int64UpDownCounter("flow.stage.active_workers",
		metric.WithDescription("Number of stage worker threads currently running"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.stage.active_workers counter: %w", err)
	}

	queueDepth, err := meter.Int64Gauge("flow.queue.depth",
		metric.WithDescription("Number of items currently buffered in a queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.queue.depth gauge: %w", err)
	}

	errorTotal, err := meter.Int64Counter("flow.error.total",
		metric.WithDescription("Total errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating flow.error.total counter: %w", err)
	}

	return &Metrics{
		stageInvocations: stageInvocations,
		stageDuration:    stageDuration,
		activeWorkers:    activeWorkers,
		queueDepth:       queueDepth,
		errorTotal:       errorTotal,
	}, nil
}

// RecordWorkerStart increments the active stage-worker count. Called once
// per worker goroutine as it starts running.
func (m *Metrics) RecordWorkerStart(ctx context.Context, stage string) {
	m.activeWorkers.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordWorkerStop decrements the active stage-worker count. Called once
// per worker goroutine as it exits, regardless of outcome.
func (m *Metrics) RecordWorkerStop(ctx context.Context, stage string) {
	m.activeWorkers.Add(ctx, -1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordOperation records a single stage invocation's outcome and
// duration. This is the instrument stagerunner drives once per
// Process/Produce/Consume call.
func (m *Metrics) RecordOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("flow", service),
		attribute.String("stage", operation),
		attribute.String("status", status),
	)
	m.stageInvocations.Add(ctx, 1, attrs)
	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("flow", service),
		attribute.String("stage", operation),
	))
}

// RecordError records an error by type and stage. stagerunner drives it with
// "worker_fault" when a stage invocation returns an error and with
// "schema_mismatch" when a payload is dropped by a queue's schema check.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("stage", component),
	))
}

// RecordQueueDepth records a point-in-time reading of a queue's buffered
// item count, polled by the orchestrator's wait loop.
func (m *Metrics) RecordQueueDepth(ctx context.Context, queueName string, depth int64) {
	m.queueDepth.Record(ctx, depth, metric.WithAttributes(attribute.String("queue", queueName)))
}
