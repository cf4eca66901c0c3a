package payload

import (
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestNewPreservesBytesAndMeta(t *testing.T) {
	meta := Meta{EnqueueTSNano: 42, SchemaID: "s1"}
	p := New([]byte("hello"), meta)

	if string(p.Bytes()) != "hello" {
		t.Errorf("expected bytes 'hello', got %q", p.Bytes())
	}
	if p.Size() != 5 {
		t.Errorf("expected size 5, got %d", p.Size())
	}
	if p.Meta() != meta {
		t.Errorf("expected meta %+v, got %+v", meta, p.Meta())
	}
}

func TestNilBufferImpliesZeroSize(t *testing.T) {
	p := New(nil, Meta{})
	if p.Size() != 0 {
		t.Errorf("expected size 0 for nil buffer, got %d", p.Size())
	}
	if !p.IsZero() {
		t.Error("expected nil-buffer zero-meta payload to be IsZero")
	}
}

func TestWithMetaSharesBuffer(t *testing.T) {
	buf := []byte("shared")
	p1 := New(buf, Meta{SchemaID: "a"})
	p2 := p1.WithMeta(Meta{SchemaID: "b"})

	if &p1.Bytes()[0] != &p2.Bytes()[0] {
		t.Error("expected WithMeta to share the underlying buffer")
	}
	if p1.Meta().SchemaID != "a" || p2.Meta().SchemaID != "b" {
		t.Error("expected independent meta after WithMeta")
	}
}

func TestHasTrace(t *testing.T) {
	var zero Meta
	if zero.HasTrace() {
		t.Error("expected zero meta to report no trace")
	}

	withTrace := Meta{TraceID: trace.TraceID{1}}
	if !withTrace.HasTrace() {
		t.Error("expected non-zero trace id to report HasTrace")
	}
}
