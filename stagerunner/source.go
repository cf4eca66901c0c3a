package stagerunner

import (
	"context"
	"time"

	"github.com/flowmesh/runtime/payload"
	"github.com/flowmesh/runtime/queue"
	"github.com/flowmesh/runtime/stage"
)

// SourceConfig configures RunSource.
type SourceConfig struct {
	Config
	Instance stage.Source
	Output   queue.Interface
}

// RunSource loops: produce one payload, validate/stamp its output schema,
// stamp its enqueue time, and push it into Output. It returns nil on a
// clean end-of-stream or push failure (normal shutdown), and a worker-fault
// error if the stage's Produce call returns an error.
//
// On loop exit this function never closes Output; closure is the
// orchestrator's decision, driven by the queue's producer count.
func RunSource(ctx context.Context, cfg SourceConfig) error {
	metrics := recorderOrNoop(cfg.Metrics)

	for !cfg.Tok.StopRequested() {
		spanCtx, span := startInvocationSpan(ctx, cfg.StageName, payload.Payload{}, cfg.EnableTracing)

		start := time.Now()
		p, ok, err := cfg.Instance.Produce(spanCtx)
		duration := time.Since(start)

		if err != nil {
			werr := fatal(spanCtx, metrics, cfg.StageName, cfg.ThreadIndex, err)
			if cfg.EnableTracing {
				span.End()
			}
			return werr
		}
		if !ok {
			metrics.RecordOperation(ctx, cfg.StageName, "produce", "end_of_stream", duration)
			if cfg.EnableTracing {
				span.End()
			}
			return nil
		}

		p, accepted := applyOutputSchema(cfg.Output, p, metrics, cfg.StageName)
		if !accepted {
			if cfg.EnableTracing {
				span.End()
			}
			continue
		}

		p = stampEnqueueTime(p)
		if cfg.EnableTracing {
			p = writeSpanToMeta(spanCtx, p)
			span.End()
		}

		if !cfg.Output.Push(p, cfg.Tok) {
			return nil
		}
		metrics.RecordOperation(ctx, cfg.StageName, "produce", "ok", duration)
	}
	return nil
}
