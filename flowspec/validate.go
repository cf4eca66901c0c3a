package flowspec

import (
	"fmt"

	"github.com/flowmesh/runtime/queue"
	"github.com/flowmesh/runtime/util"
)

// Error represents one semantic validation failure, naming the field it
// was found on.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate performs semantic validation of a Flow. It does not classify
// stage roles against plugin instances — that happens once stages are
// instantiated — but it does check every wiring constraint Validate can
// know from the spec alone: reject capacity 0, duplicate queue names,
// schemas with an empty id, stage thread counts below 1, queue types other
// than the in-memory and durable variants, source/transform/sink wiring
// violations, and references to undeclared queues.
func Validate(f *Flow) error {
	if f == nil {
		return &Error{"flow", "flow spec is nil"}
	}
	if err := util.ValidateNonEmpty("name", f.Name); err != nil {
		return &Error{"name", err.Error()}
	}
	if !util.Contains([]Mode{ModeJob, ModeStreaming}, f.Execution.Mode) {
		return &Error{"execution.mode", fmt.Sprintf("must be %q or %q, got %q", ModeJob, ModeStreaming, f.Execution.Mode)}
	}
	if len(f.Stages) == 0 {
		return &Error{"stages", "flow must contain at least one stage"}
	}

	queueNames := make(map[string]struct{}, len(f.Queues))
	for _, q := range f.Queues {
		if err := util.ValidateNonEmpty("queues.name", q.Name); err != nil {
			return &Error{"queues.name", err.Error()}
		}
		if _, exists := queueNames[q.Name]; exists {
			return &Error{"queues.name", fmt.Sprintf("duplicate queue name %q", q.Name)}
		}
		queueNames[q.Name] = struct{}{}

		if q.Capacity <= 0 {
			return &Error{"queues.capacity", fmt.Sprintf("queue %q must declare a positive capacity", q.Name)}
		}
		if q.Type != "" && !util.Contains([]QueueType{QueueTypeMemory, QueueTypeDurable}, q.Type) {
			return &Error{"queues.type", fmt.Sprintf("queue %q declares unsupported type %q", q.Name, q.Type)}
		}
		if q.Schema != nil && q.Schema.SchemaID == "" {
			return &Error{"queues.schema.schema_id", fmt.Sprintf("queue %q declares a schema block with an empty schema id", q.Name)}
		}
		if q.Type == QueueTypeDurable {
			if q.DurablePath == "" {
				return &Error{"queues.durable_path", fmt.Sprintf("durable queue %q requires durable_path", q.Name)}
			}
			if q.DurableCompactionThreshold != "" {
				if _, err := queue.ParseSize(q.DurableCompactionThreshold); err != nil {
					return &Error{"queues.durable_compaction_threshold", fmt.Sprintf("queue %q: %s", q.Name, err.Error())}
				}
			}
		}
	}

	stageNames := make(map[string]struct{}, len(f.Stages))
	for _, s := range f.Stages {
		if err := util.ValidateNonEmpty("stages.name", s.Name); err != nil {
			return &Error{"stages.name", err.Error()}
		}
		if _, exists := stageNames[s.Name]; exists {
			return &Error{"stages.name", fmt.Sprintf("duplicate stage %q", s.Name)}
		}
		stageNames[s.Name] = struct{}{}

		if s.Type == "" {
			return &Error{"stages.type", fmt.Sprintf("stage %q missing type", s.Name)}
		}
		threads := s.Threads
		if threads == 0 {
			threads = 1
		}
		if threads < 1 {
			return &Error{"stages.threads", fmt.Sprintf("stage %q must declare at least one thread", s.Name)}
		}

		if s.HasInput() {
			if _, ok := queueNames[s.InputQueue]; !ok {
				return &Error{"stages.input_queue", fmt.Sprintf("stage %q references unknown input queue %q", s.Name, s.InputQueue)}
			}
		}
		if s.HasOutput() {
			if _, ok := queueNames[s.OutputQueue]; !ok {
				return &Error{"stages.output_queue", fmt.Sprintf("stage %q references unknown output queue %q", s.Name, s.OutputQueue)}
			}
		}
		if !s.HasInput() && !s.HasOutput() {
			return &Error{"stages", fmt.Sprintf("stage %q declares neither an input nor an output queue", s.Name)}
		}
	}

	producers := make(map[string]int)
	for _, s := range f.Stages {
		if s.HasOutput() {
			threads := s.Threads
			if threads == 0 {
				threads = 1
			}
			producers[s.OutputQueue] += threads
		}
	}
	for name := range queueNames {
		if producers[name] == 0 {
			return &Error{"queues", fmt.Sprintf("queue %q has no producer stage", name)}
		}
	}

	return nil
}
