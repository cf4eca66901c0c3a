// Package stage declares the capability interfaces a plugin-supplied stage
// instance implements, and the role classification that the registry and
// topology orchestrator use to wire it into a flow. It is kept separate
// from the registry and stage-runner packages so that neither needs to
// import the other to share these types.
package stage

import (
	"context"
	"fmt"

	"github.com/flowmesh/runtime/payload"
)

// Role classifies a stage instance by which capability interfaces it
// implements. A stage must implement exactly one of Source, Transform, Sink.
type Role int

const (
	RoleUnknown Role = iota
	RoleSource
	RoleTransform
	RoleSink
)

func (r Role) String() string {
	switch r {
	case RoleSource:
		return "source"
	case RoleTransform:
		return "transform"
	case RoleSink:
		return "sink"
	default:
		return "unknown"
	}
}

// Source produces payloads with no input queue. Produce returns
// (payload, true, nil) for a delivered record, (zero, false, nil) at
// end-of-stream, or (zero, false, err) on a fatal error.
type Source interface {
	Produce(ctx context.Context) (payload.Payload, bool, error)
}

// Transform consumes one payload and produces one payload.
type Transform interface {
	Process(ctx context.Context, in payload.Payload) (payload.Payload, error)
}

// Sink consumes payloads and produces no output.
type Sink interface {
	Consume(ctx context.Context, in payload.Payload) error
}

// Configurable is implemented by stages that accept opaque configuration at
// creation time. Configure returning an error rejects the instance.
type Configurable interface {
	Configure(cfg map[string]any) error
}

// Instance is the minimal surface the registry needs from a created stage:
// enough to classify its role and tear it down. The concrete instance also
// implements one of Source, Transform, Sink and optionally Configurable.
type Instance interface {
	Close() error
}

// Factory creates one stage instance from opaque configuration. Each worker
// thread owns its own instance; the factory is called once per worker.
type Factory func(cfg map[string]any) (Instance, error)

// ClassifyRole inspects instance for which capability interfaces it
// implements and returns the corresponding Role. It is an error for an
// instance to implement more than one of Source, Transform, Sink, or none.
func ClassifyRole(instance Instance) (Role, error) {
	_, isSource := instance.(Source)
	_, isTransform := instance.(Transform)
	_, isSink := instance.(Sink)

	count := 0
	if isSource {
		count++
	}
	if isTransform {
		count++
	}
	if isSink {
		count++
	}

	switch {
	case count == 0:
		return RoleUnknown, fmt.Errorf("stage: instance implements none of source, transform, sink")
	case count > 1:
		return RoleUnknown, fmt.Errorf("stage: instance implements more than one role capability")
	case isSource:
		return RoleSource, nil
	case isTransform:
		return RoleTransform, nil
	default:
		return RoleSink, nil
	}
}

// WiringMatches reports whether a spec declaring hasInput/hasOutput queues
// is consistent with role: source wants output only, sink wants input only,
// transform wants both.
func WiringMatches(role Role, hasInput, hasOutput bool) bool {
	switch role {
	case RoleSource:
		return !hasInput && hasOutput
	case RoleTransform:
		return hasInput && hasOutput
	case RoleSink:
		return hasInput && !hasOutput
	default:
		return false
	}
}
