package topology

import (
	"fmt"

	"github.com/flowmesh/runtime/flowspec"
)

// validateRuntimeConstraints applies the orchestrator's own validation on
// top of flowspec.Validate's generic object-model checks: constraints that
// only the runtime, not the spec format itself, cares about. The
// orchestrator materialises both the in-memory and the durable, file-backed
// queue variant; any other declared type is rejected here.
func validateRuntimeConstraints(f *flowspec.Flow) error {
	for _, q := range f.Queues {
		if q.Type != "" && q.Type != flowspec.QueueTypeMemory && q.Type != flowspec.QueueTypeDurable {
			return &flowspec.Error{
				Field:   "queues.type",
				Message: fmt.Sprintf("queue %q declares type %q; the runtime instantiates only the in-memory and durable queue variants", q.Name, q.Type),
			}
		}
	}

	if err := checkReferenceGraph(f); err != nil {
		return err
	}
	return nil
}

// checkReferenceGraph builds a stage/queue reference graph and runs cycle
// detection over it. A cycle here means a queue feeds itself, transitively,
// through a chain of stages — a topology shape the orchestrator cannot run
// since it would require a queue to both be fully produced and consumed
// before any of its own producers can start.
func checkReferenceGraph(f *flowspec.Flow) error {
	g := newRefGraph()
	for _, q := range f.Queues {
		g.addNode("queue:" + q.Name)
	}
	for _, s := range f.Stages {
		g.addNode("stage:" + s.Name)
		if s.HasInput() {
			g.addEdge("queue:"+s.InputQueue, "stage:"+s.Name)
		}
		if s.HasOutput() {
			g.addEdge("stage:"+s.Name, "queue:"+s.OutputQueue)
		}
	}

	if _, err := g.buildLevels(); err != nil {
		return &flowspec.Error{Field: "stages", Message: err.Error()}
	}
	return nil
}
