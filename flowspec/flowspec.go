// Package flowspec is the object model for a flow specification: named
// queues and named stages wired together, plus the loading, validation,
// normalization, fingerprinting, and diffing operations the CLI exposes
// around it.
package flowspec

// Mode selects whether a flow stops when its workers finish naturally or
// runs until externally stopped.
type Mode string

const (
	ModeJob       Mode = "JOB"
	ModeStreaming Mode = "STREAMING"
)

// QueueType distinguishes the in-memory queue from the durable, file-backed
// variant. Both are instantiated by the orchestrator; see Validate.
type QueueType string

const (
	QueueTypeMemory  QueueType = "memory"
	QueueTypeDurable QueueType = "durable"
)

// Schema names the schema id a queue enforces on payloads passing through
// it. A non-nil Schema with an empty SchemaID is invalid; see Validate.
type Schema struct {
	SchemaID string `json:"schema_id" yaml:"schema_id"`
}

// QueueSpec declares one named queue. DurablePath and
// DurableCompactionThreshold are only meaningful when Type is
// QueueTypeDurable: DurablePath names the backing file, and
// DurableCompactionThreshold (a human-readable size such as "4Mi", parsed by
// queue.ParseSize) is the unused-prefix size past which the queue
// compacts its file.
type QueueSpec struct {
	Name                       string    `json:"name" yaml:"name"`
	Capacity                   int       `json:"capacity" yaml:"capacity"`
	Type                       QueueType `json:"type,omitempty" yaml:"type,omitempty"`
	Schema                     *Schema   `json:"schema,omitempty" yaml:"schema,omitempty"`
	DurablePath                string    `json:"durable_path,omitempty" yaml:"durable_path,omitempty"`
	DurableCompactionThreshold string    `json:"durable_compaction_threshold,omitempty" yaml:"durable_compaction_threshold,omitempty"`
}

// StageSpec declares one named processing stage.
type StageSpec struct {
	Name             string         `json:"name" yaml:"name"`
	Type             string         `json:"type" yaml:"type"`
	Plugin           string         `json:"plugin,omitempty" yaml:"plugin,omitempty"`
	Threads          int            `json:"threads,omitempty" yaml:"threads,omitempty"`
	InputQueue       string         `json:"input_queue,omitempty" yaml:"input_queue,omitempty"`
	OutputQueue      string         `json:"output_queue,omitempty" yaml:"output_queue,omitempty"`
	Config           map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
	RealtimePriority int            `json:"realtime_priority,omitempty" yaml:"realtime_priority,omitempty"`
}

// HasInput reports whether the stage declares an input queue.
func (s StageSpec) HasInput() bool { return s.InputQueue != "" }

// HasOutput reports whether the stage declares an output queue.
func (s StageSpec) HasOutput() bool { return s.OutputQueue != "" }

// Execution carries the flow's run mode.
type Execution struct {
	Mode Mode `json:"mode" yaml:"mode"`
}

// KubernetesHints carries optional CPU-pinning hints. They are parsed and
// kept on the Flow; the orchestrator does not read them.
type KubernetesHints struct {
	CPUPinning map[string][]int `json:"cpu_pinning,omitempty" yaml:"cpu_pinning,omitempty"`
}

// Flow is the full specification object: a name, an execution mode, the
// queues and stages that make it up, and optional hint blocks forwarded
// opaquely to collaborators outside the core engine.
type Flow struct {
	Name          string           `json:"name" yaml:"name"`
	Execution     Execution        `json:"execution" yaml:"execution"`
	Queues        []QueueSpec      `json:"queues" yaml:"queues"`
	Stages        []StageSpec      `json:"stages" yaml:"stages"`
	Kubernetes    *KubernetesHints `json:"kubernetes,omitempty" yaml:"kubernetes,omitempty"`
	Observability map[string]any   `json:"observability,omitempty" yaml:"observability,omitempty"`
}

// QueueByName returns the queue spec with the given name, if present.
func (f *Flow) QueueByName(name string) (QueueSpec, bool) {
	for _, q := range f.Queues {
		if q.Name == name {
			return q, true
		}
	}
	return QueueSpec{}, false
}
