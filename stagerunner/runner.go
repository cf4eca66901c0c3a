// Package stagerunner implements the per-role worker loops that wrap a
// stage instance's produce/process/consume call with dequeue, enqueue,
// timing, schema validation, tracing, and fault isolation, so stage
// implementations themselves stay trivial.
package stagerunner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	runtimeerrors "github.com/flowmesh/runtime/errors"
	"github.com/flowmesh/runtime/observability"
	"github.com/flowmesh/runtime/payload"
	"github.com/flowmesh/runtime/queue"
	"github.com/flowmesh/runtime/token"
)

const tracerName = "github.com/flowmesh/runtime/stagerunner"

// MetricsRecorder is the subset of observability.Metrics a runner needs.
// Decoupled into its own interface so runners can be tested without an
// OTel meter provider wired up, and so a nil facade can be swapped for a
// no-op implementation.
type MetricsRecorder interface {
	RecordOperation(ctx context.Context, service, operation, status string, duration time.Duration)
	RecordError(ctx context.Context, errType, component string)
	RecordWorkerStart(ctx context.Context, stage string)
	RecordWorkerStop(ctx context.Context, stage string)
	RecordQueueDepth(ctx context.Context, queueName string, depth int64)
}

type noopRecorder struct{}

func (noopRecorder) RecordOperation(ctx context.Context, service, operation, status string, duration time.Duration) {
}
func (noopRecorder) RecordError(ctx context.Context, errType, component string)          {}
func (noopRecorder) RecordWorkerStart(ctx context.Context, stage string)                 {}
func (noopRecorder) RecordWorkerStop(ctx context.Context, stage string)                  {}
func (noopRecorder) RecordQueueDepth(ctx context.Context, queueName string, depth int64) {}

func recorderOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopRecorder{}
	}
	return m
}

// applyOutputSchema implements the output-side schema contract: if the
// queue has no schema id, the payload passes through unchanged; if the
// payload's schema id is empty, it is stamped with the queue's; if set and
// mismatched, the payload is dropped and an error is recorded.
func applyOutputSchema(q queue.Interface, p payload.Payload, metrics MetricsRecorder, stageName string) (payload.Payload, bool) {
	want := q.SchemaID()
	if want == "" {
		return p, true
	}

	meta := p.Meta()
	if meta.SchemaID == "" {
		meta.SchemaID = want
		return p.WithMeta(meta), true
	}
	if meta.SchemaID != want {
		metrics.RecordError(context.Background(), "schema_mismatch", stageName)
		return payload.Payload{}, false
	}
	return p, true
}

// applyInputSchema implements the input-side schema contract: if the queue
// has no schema id, every payload is accepted; otherwise the payload's
// schema id must be non-empty and equal to the queue's.
func applyInputSchema(q queue.Interface, p payload.Payload, metrics MetricsRecorder, stageName string) bool {
	want := q.SchemaID()
	if want == "" {
		return true
	}
	got := p.Meta().SchemaID
	if got == "" || got != want {
		metrics.RecordError(context.Background(), "schema_mismatch", stageName)
		return false
	}
	return true
}

// stampEnqueueTime returns p with Meta.EnqueueTSNano set to the current
// monotonic time, stamped by the runtime rather than by the stage.
func stampEnqueueTime(p payload.Payload) payload.Payload {
	meta := p.Meta()
	meta.EnqueueTSNano = time.Now().UnixNano()
	return p.WithMeta(meta)
}

// startInvocationSpan starts a span named after stageName. If p carries a
// non-zero remote trace context, the span is linked to it as a remote
// parent; otherwise it starts as a fresh root (or child of ctx, if any).
func startInvocationSpan(ctx context.Context, stageName string, p payload.Payload, enableTracing bool) (context.Context, trace.Span) {
	if !enableTracing {
		return ctx, trace.SpanFromContext(ctx)
	}

	meta := p.Meta()
	if meta.HasTrace() {
		remote := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    meta.TraceID,
			SpanID:     meta.SpanID,
			TraceFlags: trace.FlagsSampled,
			Remote:     true,
		})
		ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
	}

	ctx, span := observability.Tracer(tracerName).Start(ctx, stageName)
	observability.SetSpanAttribute(ctx, observability.AttrStageName, stageName)
	return ctx, span
}

// writeSpanToMeta writes the active span's trace and span ids back into
// p's meta so a downstream runner can reconstruct the remote parent.
func writeSpanToMeta(ctx context.Context, p payload.Payload) payload.Payload {
	span := trace.SpanFromContext(ctx)
	sc := span.SpanContext()
	if !sc.IsValid() {
		return p
	}
	meta := p.Meta()
	meta.TraceID = sc.TraceID()
	meta.SpanID = sc.SpanID()
	return p.WithMeta(meta)
}

// fatal wraps cause as a worker-fault error, records it on the active span
// and the error metric.
func fatal(ctx context.Context, metrics MetricsRecorder, stageName string, threadIndex int, cause error) error {
	observability.SetSpanError(ctx, cause)
	metrics.RecordError(context.Background(), "worker_fault", stageName)
	return runtimeerrors.WorkerFault(stageName, threadIndex, cause)
}

// Config carries the shared per-worker context every runner needs.
type Config struct {
	StageName     string
	ThreadIndex   int
	Tok           *token.Token
	Metrics       MetricsRecorder
	EnableTracing bool
}
