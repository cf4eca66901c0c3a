// Package queue implements the bounded, closable FIFO that moves payloads
// between stage workers, plus a durable file-backed variant of the same
// interface.
package queue

import (
	"sync"

	"github.com/gammazero/deque"

	"github.com/flowmesh/runtime/payload"
	"github.com/flowmesh/runtime/token"
)

// Interface is satisfied by both the in-memory Queue and the durable,
// file-backed Queue variant, so the stage runner and orchestrator never need
// to know which backing a given flow's queues use.
type Interface interface {
	Name() string
	SchemaID() string
	Capacity() int
	Push(item payload.Payload, tok *token.Token) bool
	Pop(tok *token.Token) (payload.Payload, bool)
	Close()
	Closed() bool
	Len() int
}

// Queue is the in-memory bounded FIFO described in the runtime's component
// design: a fixed-capacity ring guarded by one mutex and two condition
// variables, push/pop blocking while neither closed nor stopped.
type Queue struct {
	name     string
	capacity int
	schemaID string

	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	items    deque.Deque[payload.Payload]
	closed   bool
}

// New creates an in-memory bounded queue. capacity must be >= 1; the
// orchestrator's validation step rejects capacity 0 before this is called.
func New(name string, capacity int, schemaID string) *Queue {
	q := &Queue{name: name, capacity: capacity, schemaID: schemaID}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

func (q *Queue) Name() string     { return q.name }
func (q *Queue) SchemaID() string { return q.schemaID }
func (q *Queue) Capacity() int    { return q.capacity }

// Push blocks while the queue is full and neither closed nor stopped. It
// returns false if it wakes without room to store (closure or stop raced
// ahead of the caller), true once the item is appended.
func (q *Queue) Push(item payload.Payload, tok *token.Token) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && !tok.StopRequested() && q.items.Len() >= q.capacity {
		q.notFull.Wait()
	}
	if q.closed || tok.StopRequested() || q.items.Len() >= q.capacity {
		return false
	}

	q.items.PushBack(item)
	q.notEmpty.Signal()
	return true
}

// Pop blocks while the queue is empty and neither closed nor stopped. It
// returns (zero, false) once it wakes with nothing to return.
func (q *Queue) Pop(tok *token.Token) (payload.Payload, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.closed && !tok.StopRequested() && q.items.Len() == 0 {
		q.notEmpty.Wait()
	}
	if q.items.Len() == 0 {
		return payload.Payload{}, false
	}

	item := q.items.PopFront()
	q.notFull.Signal()
	return item, true
}

// Close marks the queue closed and wakes every blocked push/pop. Idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the current number of buffered items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
