package flowspec

import "fmt"

// Diff returns a human-readable structural diff between two Flows. Both
// must already be normalized, or differences in declaration order will be
// reported as queue/stage changes that aren't semantically real.
func Diff(a, b *Flow) []string {
	var out []string

	if a.Name != b.Name {
		out = append(out, fmt.Sprintf("name: %q -> %q", a.Name, b.Name))
	}
	if a.Execution.Mode != b.Execution.Mode {
		out = append(out, fmt.Sprintf("execution.mode: %q -> %q", a.Execution.Mode, b.Execution.Mode))
	}

	diffQueues(&out, a.Queues, b.Queues)
	diffStages(&out, a.Stages, b.Stages)

	return out
}

func diffQueues(out *[]string, a, b []QueueSpec) {
	byName := make(map[string]QueueSpec, len(b))
	for _, q := range b {
		byName[q.Name] = q
	}
	seen := make(map[string]bool, len(a))

	for _, qa := range a {
		seen[qa.Name] = true
		qb, ok := byName[qa.Name]
		if !ok {
			*out = append(*out, fmt.Sprintf("queues: removed %q", qa.Name))
			continue
		}
		if qa.Capacity != qb.Capacity {
			*out = append(*out, fmt.Sprintf("queues.%s.capacity: %d -> %d", qa.Name, qa.Capacity, qb.Capacity))
		}
		if schemaID(qa.Schema) != schemaID(qb.Schema) {
			*out = append(*out, fmt.Sprintf("queues.%s.schema: %q -> %q", qa.Name, schemaID(qa.Schema), schemaID(qb.Schema)))
		}
	}
	for _, qb := range b {
		if !seen[qb.Name] {
			*out = append(*out, fmt.Sprintf("queues: added %q", qb.Name))
		}
	}
}

func schemaID(s *Schema) string {
	if s == nil {
		return ""
	}
	return s.SchemaID
}

func diffStages(out *[]string, a, b []StageSpec) {
	byName := make(map[string]StageSpec, len(b))
	for _, s := range b {
		byName[s.Name] = s
	}
	seen := make(map[string]bool, len(a))

	for _, sa := range a {
		seen[sa.Name] = true
		sb, ok := byName[sa.Name]
		if !ok {
			*out = append(*out, fmt.Sprintf("stages: removed %q", sa.Name))
			continue
		}
		if sa.Threads != sb.Threads {
			*out = append(*out, fmt.Sprintf("stages.%s.threads: %d -> %d", sa.Name, sa.Threads, sb.Threads))
		}
		if sa.InputQueue != sb.InputQueue {
			*out = append(*out, fmt.Sprintf("stages.%s.input_queue: %q -> %q", sa.Name, sa.InputQueue, sb.InputQueue))
		}
		if sa.OutputQueue != sb.OutputQueue {
			*out = append(*out, fmt.Sprintf("stages.%s.output_queue: %q -> %q", sa.Name, sa.OutputQueue, sb.OutputQueue))
		}
	}
	for _, sb := range b {
		if !seen[sb.Name] {
			*out = append(*out, fmt.Sprintf("stages: added %q", sb.Name))
		}
	}
}
