// Package payload defines the single record type that flows through every
// queue in the runtime: an owned byte buffer plus metadata.
package payload

import (
	"go.opentelemetry.io/otel/trace"
)

// Meta carries per-record metadata attached at enqueue time.
type Meta struct {
	// EnqueueTSNano is monotonic nanoseconds stamped at push time by the
	// runtime itself, never by a stage.
	EnqueueTSNano int64
	// TraceID and SpanID reuse the OpenTelemetry fixed-size array types so a
	// payload's tracing context round-trips without a conversion layer.
	TraceID trace.TraceID
	SpanID  trace.SpanID
	Flags   uint32
	// SchemaID is an opaque string; empty means unset.
	SchemaID string
}

// HasTrace reports whether this meta carries a non-zero trace context.
func (m Meta) HasTrace() bool {
	return m.TraceID != [16]byte{} || m.SpanID != [8]byte{}
}

// Payload is an owned, immutable-after-creation record: a shared-ownership
// byte buffer plus its metadata. Go slices already share their backing
// array by reference, so copying a Payload value never copies bytes;
// consumers are expected to treat Bytes() as read-only.
type Payload struct {
	buf  []byte
	meta Meta
}

// New creates a Payload over buf with the given meta. If buf is nil the
// payload carries zero bytes, matching the "buffer is null implies size
// zero" invariant.
func New(buf []byte, meta Meta) Payload {
	return Payload{buf: buf, meta: meta}
}

// Bytes returns the payload's buffer. Callers must not mutate it.
func (p Payload) Bytes() []byte { return p.buf }

// Size returns the valid prefix length of the buffer.
func (p Payload) Size() int { return len(p.buf) }

// Meta returns the payload's metadata.
func (p Payload) Meta() Meta { return p.meta }

// WithMeta returns a copy of the payload with meta replaced. The underlying
// buffer is shared, not copied.
func (p Payload) WithMeta(meta Meta) Payload {
	return Payload{buf: p.buf, meta: meta}
}

// IsZero reports whether this is the zero-value Payload (nil buffer, zero
// meta), used as the sentinel returned alongside ok=false.
func (p Payload) IsZero() bool {
	return p.buf == nil && p.meta == Meta{}
}
