// Package pipeline provides a small, lazy, pull-based iterator wrapper
// used to drain a queue through a uniform set of terminals instead of a
// bespoke pop loop per stage role.
//
// A Pipeline does no work until values are pulled via Collect, Drain, or
// ForEach. Its usual source is a queue adapted through queue.Iterator, so
// draining it naturally blocks on an empty queue and exits cleanly once the
// queue closes or the run's cancellation token is stopped.
//
// # Usage
//
//	src := pipeline.From(queue.Iterator(q, tok))
//	err := pipeline.Drain(src, func(ctx context.Context, p payload.Payload) error {
//	    return sink.Consume(ctx, p)
//	}).Run(ctx)
package pipeline
