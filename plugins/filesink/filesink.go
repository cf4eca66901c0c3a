// Package filesink is a sample sink stage: it appends each payload's bytes
// as one line to a configured file path.
package filesink

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/flowmesh/runtime/payload"
	"github.com/flowmesh/runtime/registry"
	"github.com/flowmesh/runtime/stage"
)

// PluginName is the conventional derived plugin reference for this stage
// type when a flow spec omits an explicit plugin path.
const PluginName = "libstage_filesink.so"

// Register wires this package's factory into reg under PluginName.
func Register(reg *registry.Registry) {
	reg.RegisterFactory(PluginName, newInstance)
}

type fileSink struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func newInstance(cfg map[string]any) (stage.Instance, error) {
	s := &fileSink{}
	if err := s.Configure(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileSink) Configure(cfg map[string]any) error {
	path, _ := cfg["path"].(string)
	if path == "" {
		return fmt.Errorf("filesink: missing required config key \"path\"")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("filesink: open %q: %w", path, err)
	}
	s.path = path
	s.f = f
	return nil
}

// Consume implements stage.Sink.
func (s *fileSink) Consume(ctx context.Context, in payload.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("filesink: not configured with a path")
	}
	if _, err := s.f.Write(append(append([]byte{}, in.Bytes()...), '\n')); err != nil {
		return fmt.Errorf("filesink: write: %w", err)
	}
	return nil
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
