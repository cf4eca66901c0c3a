// Package redisdedup provides a sample transform stage that drops payloads
// it has already seen, using Redis SETNX on a hash of the payload bytes as
// the dedup ledger so the check survives across worker restarts.
package redisdedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowmesh/runtime/payload"
	"github.com/flowmesh/runtime/registry"
	"github.com/flowmesh/runtime/stage"
)

// PluginName is the conventional derived plugin reference for this stage
// type when a flow spec omits an explicit plugin path.
const PluginName = "libstage_redisdedup.so"

// Register wires this package's factory into reg under PluginName.
func Register(reg *registry.Registry) {
	reg.RegisterFactory(PluginName, newInstance)
}

// duplicateSchemaID is stamped onto a payload recognized as a duplicate so
// the stage runner's own output-schema contract drops it, rather than
// this stage trying to signal a per-record drop through an error (which
// the runner always treats as fatal). Pair this stage's output queue with
// a real schema id for the drop to take effect.
const duplicateSchemaID = "redisdedup:duplicate"

type dedup struct {
	client *redis.Client
	ttl    time.Duration
}

func newInstance(cfg map[string]any) (stage.Instance, error) {
	addr, _ := cfg["addr"].(string)
	if addr == "" {
		addr = "localhost:6379"
	}
	ttlSeconds := 3600
	if v, ok := cfg["ttl_seconds"]; ok {
		if n, ok := toInt(v); ok {
			ttlSeconds = n
		}
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	return &dedup{client: client, ttl: time.Duration(ttlSeconds) * time.Second}, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func keyFor(p payload.Payload) string {
	sum := sha256.Sum256(p.Bytes())
	return "flowdedup:" + hex.EncodeToString(sum[:])
}

// Process implements stage.Transform. A payload seen before within ttl is
// stamped with duplicateSchemaID so it is dropped downstream by the output
// queue's schema contract instead of being delivered twice.
func (d *dedup) Process(ctx context.Context, in payload.Payload) (payload.Payload, error) {
	key := keyFor(in)
	ok, err := d.client.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return payload.Payload{}, fmt.Errorf("redisdedup: setnx: %w", err)
	}
	if !ok {
		meta := in.Meta()
		meta.SchemaID = duplicateSchemaID
		return in.WithMeta(meta), nil
	}
	return in, nil
}

func (d *dedup) Close() error {
	return d.client.Close()
}
