package flowspec

import (
	"sort"

	"github.com/flowmesh/runtime/util"
)

// Normalize returns a copy of in with queues and stages sorted by name and
// every stage's Threads defaulted to 1 where unset, so two specs that
// differ only in declaration order or an omitted default fingerprint
// identically. It does not touch Capacity: a missing capacity is a
// validation error, not something to default away.
func Normalize(in *Flow) *Flow {
	if in == nil {
		return nil
	}

	out := *in
	out.Queues = append([]QueueSpec(nil), in.Queues...)
	out.Stages = append([]StageSpec(nil), in.Stages...)

	sort.Slice(out.Queues, func(i, j int) bool {
		return out.Queues[i].Name < out.Queues[j].Name
	})

	for i := range out.Stages {
		out.Stages[i].Threads = util.Coalesce(out.Stages[i].Threads, 1)
	}
	sort.Slice(out.Stages, func(i, j int) bool {
		return out.Stages[i].Name < out.Stages[j].Name
	})

	return &out
}
