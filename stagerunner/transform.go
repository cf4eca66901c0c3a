package stagerunner

import (
	"context"
	"time"

	"github.com/flowmesh/runtime/queue"
	"github.com/flowmesh/runtime/stage"
)

// TransformConfig configures RunTransform.
type TransformConfig struct {
	Config
	Instance stage.Transform
	Input    queue.Interface
	Output   queue.Interface
}

// RunTransform loops: pop from Input, validate the input schema, call the
// stage to produce one output payload, validate/stamp the output schema,
// stamp the enqueue time, and push into Output. Returns nil on clean
// exhaustion of Input or push failure; a worker-fault error if Process
// returns an error.
func RunTransform(ctx context.Context, cfg TransformConfig) error {
	metrics := recorderOrNoop(cfg.Metrics)

	for !cfg.Tok.StopRequested() {
		in, ok := cfg.Input.Pop(cfg.Tok)
		if !ok {
			return nil
		}
		metrics.RecordOperation(ctx, cfg.StageName, "dequeue", "ok", 0)

		if !applyInputSchema(cfg.Input, in, metrics, cfg.StageName) {
			continue
		}

		spanCtx, span := startInvocationSpan(ctx, cfg.StageName, in, cfg.EnableTracing)

		start := time.Now()
		out, err := cfg.Instance.Process(spanCtx, in)
		duration := time.Since(start)

		if err != nil {
			werr := fatal(spanCtx, metrics, cfg.StageName, cfg.ThreadIndex, err)
			if cfg.EnableTracing {
				span.End()
			}
			return werr
		}

		out, accepted := applyOutputSchema(cfg.Output, out, metrics, cfg.StageName)
		if !accepted {
			if cfg.EnableTracing {
				span.End()
			}
			continue
		}

		out = stampEnqueueTime(out)
		if cfg.EnableTracing {
			out = writeSpanToMeta(spanCtx, out)
			span.End()
		}

		if !cfg.Output.Push(out, cfg.Tok) {
			return nil
		}
		metrics.RecordOperation(ctx, cfg.StageName, "process", "ok", duration)
	}
	return nil
}
