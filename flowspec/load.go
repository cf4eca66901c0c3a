package flowspec

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	goccyyaml "github.com/goccy/go-yaml"
)

// LoadFile loads a Flow from path, dispatching on its extension: .yaml and
// .yml decode through goccy/go-yaml, .json through encoding/json, and any
// other extension is an error. The typed fields (names, Capacity, Threads
// and the like) decode the same way on both paths. Values inside a stage's
// free-form Config map are not converted: they keep the Go type each decoder
// produces, so a number there is a float64 from JSON but an integer type
// from YAML, and YAML scalars there are not turned into strings.
func LoadFile(path string, data []byte) (*Flow, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var flow Flow
	switch ext {
	case ".yaml", ".yml":
		if err := goccyyaml.Unmarshal(data, &flow); err != nil {
			return nil, fmt.Errorf("flowspec: parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &flow); err != nil {
			return nil, fmt.Errorf("flowspec: parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("flowspec: unrecognized extension %q, expected .yaml, .yml, or .json", ext)
	}

	return &flow, nil
}
