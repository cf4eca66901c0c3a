package queue

import (
	"context"

	"github.com/flowmesh/runtime/payload"
	"github.com/flowmesh/runtime/pipeline"
	"github.com/flowmesh/runtime/token"
)

// asIterator adapts a Queue to pipeline.Iterator[payload.Payload] so a
// stage worker can drain it with pipeline's terminals (Drain, Collect,
// ForEach) instead of a hand-rolled pop loop.
type asIterator struct {
	q   Interface
	tok *token.Token
}

// Iterator returns q adapted to pipeline.Iterator[payload.Payload]. The
// returned iterator's Close is a no-op — the queue's lifetime is owned by
// the orchestrator, not by whoever happens to be draining it.
func Iterator(q Interface, tok *token.Token) pipeline.Iterator[payload.Payload] {
	return &asIterator{q: q, tok: tok}
}

func (it *asIterator) Next(ctx context.Context) (payload.Payload, bool, error) {
	select {
	case <-ctx.Done():
		return payload.Payload{}, false, ctx.Err()
	default:
	}
	item, ok := it.q.Pop(it.tok)
	return item, ok, nil
}

func (it *asIterator) Close() error { return nil }
