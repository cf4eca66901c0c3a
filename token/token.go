// Package token implements the runtime's cooperative cancellation primitive:
// a flag shared across one flow run that every blocking primitive observes.
package token

import "sync/atomic"

// Token is a one-way cancellation flag shared by reference across every
// queue, worker, and orchestrator loop in a single flow run. Once stop is
// requested it never retracts.
type Token struct {
	stopped atomic.Bool
}

// New returns a Token in the not-stopped state.
func New() *Token {
	return &Token{}
}

// RequestStop idempotently marks the token as stopped. Safe to call from any
// goroutine, including a signal handler's relay step.
func (t *Token) RequestStop() {
	t.stopped.Store(true)
}

// StopRequested reports whether RequestStop has ever been called.
func (t *Token) StopRequested() bool {
	return t.stopped.Load()
}
