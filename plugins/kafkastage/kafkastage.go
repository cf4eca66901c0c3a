// Package kafkastage provides sample source and sink stages backed by
// Kafka topics, using segmentio/kafka-go's Reader and Writer directly
// rather than wrapping them behind a broker-agnostic abstraction.
package kafkastage

import (
	"context"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/flowmesh/runtime/payload"
	"github.com/flowmesh/runtime/registry"
	"github.com/flowmesh/runtime/stage"
)

// Plugin names under the conventional libstage_<type>.so derivation.
const (
	SourcePluginName = "libstage_kafka_source.so"
	SinkPluginName   = "libstage_kafka_sink.so"
)

// Register wires both factories into reg.
func Register(reg *registry.Registry) {
	reg.RegisterFactory(SourcePluginName, newSource)
	reg.RegisterFactory(SinkPluginName, newSink)
}

func stringSliceFromConfig(cfg map[string]any, key string) []string {
	raw, ok := cfg[key]
	if !ok {
		return nil
	}
	list, ok := raw.([]any)
	if !ok {
		if s, ok := raw.(string); ok {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

type kafkaSource struct {
	reader *kafkago.Reader
}

func newSource(cfg map[string]any) (stage.Instance, error) {
	brokers := stringSliceFromConfig(cfg, "brokers")
	topic, _ := cfg["topic"].(string)
	groupID, _ := cfg["group_id"].(string)

	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafkastage: source requires non-empty \"brokers\" and \"topic\"")
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &kafkaSource{reader: reader}, nil
}

// Produce implements stage.Source. A read deadline/context error is treated
// as end-of-stream rather than a fatal error, since it usually means the
// caller stopped the flow rather than that Kafka failed.
func (s *kafkaSource) Produce(ctx context.Context) (payload.Payload, bool, error) {
	msg, err := s.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return payload.Payload{}, false, nil
		}
		return payload.Payload{}, false, fmt.Errorf("kafkastage: read message: %w", err)
	}
	return payload.New(msg.Value, payload.Meta{}), true, nil
}

func (s *kafkaSource) Close() error { return s.reader.Close() }

type kafkaSink struct {
	writer *kafkago.Writer
}

func newSink(cfg map[string]any) (stage.Instance, error) {
	brokers := stringSliceFromConfig(cfg, "brokers")
	topic, _ := cfg["topic"].(string)

	if len(brokers) == 0 || topic == "" {
		return nil, fmt.Errorf("kafkastage: sink requires non-empty \"brokers\" and \"topic\"")
	}

	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafkago.LeastBytes{},
	}
	return &kafkaSink{writer: writer}, nil
}

// Consume implements stage.Sink.
func (s *kafkaSink) Consume(ctx context.Context, in payload.Payload) error {
	if err := s.writer.WriteMessages(ctx, kafkago.Message{Value: in.Bytes()}); err != nil {
		return fmt.Errorf("kafkastage: write message: %w", err)
	}
	return nil
}

func (s *kafkaSink) Close() error { return s.writer.Close() }
