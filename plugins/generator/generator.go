// Package generator is a sample source stage: it emits a configured number
// of sequential payloads (or runs indefinitely when count is unset or not
// positive, whatever the flow's mode) and is
// registered in-process rather than loaded as a dynamic library.
package generator

import (
	"context"
	"fmt"

	"github.com/flowmesh/runtime/payload"
	"github.com/flowmesh/runtime/registry"
	"github.com/flowmesh/runtime/stage"
)

// PluginName is the conventional derived plugin reference for this stage
// type when a flow spec omits an explicit plugin path.
const PluginName = "libstage_generator.so"

// Register wires this package's factory into reg under PluginName.
func Register(reg *registry.Registry) {
	reg.RegisterFactory(PluginName, newInstance)
}

type generator struct {
	prefix string
	count  int64 // <= 0 means unbounded
	next   int64
}

func newInstance(cfg map[string]any) (stage.Instance, error) {
	g := &generator{count: 0}
	if v, ok := cfg["prefix"].(string); ok {
		g.prefix = v
	}
	if v, ok := cfg["count"]; ok {
		n, err := toInt64(v)
		if err != nil {
			return nil, fmt.Errorf("generator: invalid count: %w", err)
		}
		g.count = n
	}
	return g, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func (g *generator) Configure(cfg map[string]any) error {
	if v, ok := cfg["prefix"].(string); ok {
		g.prefix = v
	}
	if v, ok := cfg["count"]; ok {
		n, err := toInt64(v)
		if err != nil {
			return fmt.Errorf("generator: invalid count: %w", err)
		}
		g.count = n
	}
	return nil
}

// Produce implements stage.Source.
func (g *generator) Produce(ctx context.Context) (payload.Payload, bool, error) {
	if g.count > 0 && g.next >= g.count {
		return payload.Payload{}, false, nil
	}
	body := []byte(fmt.Sprintf("%s%d", g.prefix, g.next))
	g.next++
	return payload.New(body, payload.Meta{}), true, nil
}

func (g *generator) Close() error { return nil }
