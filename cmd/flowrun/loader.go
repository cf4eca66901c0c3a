package main

import (
	"fmt"
	"os"

	"github.com/flowmesh/runtime/flowspec"
)

// loadFlow reads path, parses it against its extension, and returns a
// normalized, validated flow ready for the orchestrator.
func loadFlow(path string) (*flowspec.Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}

	flow, err := flowspec.LoadFile(path, data)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}

	flow = flowspec.Normalize(flow)
	if err := flowspec.Validate(flow); err != nil {
		return nil, err
	}
	return flow, nil
}
