package stagerunner

import (
	"context"
	"time"

	"github.com/flowmesh/runtime/payload"
	"github.com/flowmesh/runtime/pipeline"
	"github.com/flowmesh/runtime/queue"
	"github.com/flowmesh/runtime/stage"
)

// SinkConfig configures RunSink.
type SinkConfig struct {
	Config
	Instance stage.Sink
	Input    queue.Interface
}

// RunSink drains Input through a pipeline built over the queue's iterator:
// for each item, validate the input schema, then call the stage to consume
// it. Sinks have no output queue. Returns nil on clean exhaustion of Input
// (the queue closes or the token's stop is requested); a worker-fault error
// if Consume returns an error.
func RunSink(ctx context.Context, cfg SinkConfig) error {
	metrics := recorderOrNoop(cfg.Metrics)
	src := pipeline.From(queue.Iterator(cfg.Input, cfg.Tok))

	consume := func(ctx context.Context, in payload.Payload) error {
		metrics.RecordOperation(ctx, cfg.StageName, "dequeue", "ok", 0)

		if !applyInputSchema(cfg.Input, in, metrics, cfg.StageName) {
			return nil
		}

		spanCtx, span := startInvocationSpan(ctx, cfg.StageName, in, cfg.EnableTracing)

		start := time.Now()
		err := cfg.Instance.Consume(spanCtx, in)
		duration := time.Since(start)

		if err != nil {
			werr := fatal(spanCtx, metrics, cfg.StageName, cfg.ThreadIndex, err)
			if cfg.EnableTracing {
				span.End()
			}
			return werr
		}
		if cfg.EnableTracing {
			span.End()
		}
		metrics.RecordOperation(ctx, cfg.StageName, "consume", "ok", duration)
		return nil
	}

	err := pipeline.Drain(src, consume).Run(ctx)
	if err == context.Canceled || err == context.DeadlineExceeded {
		return nil
	}
	return err
}
