package topology

import "fmt"

// refGraph tracks stage-to-queue reference edges for cycle detection during
// specification validation. Nodes are queue and stage names sharing one
// namespace; an edge records that a stage reads from or writes to a queue.
type refGraph struct {
	nodes map[string]bool
	edges []refEdge
}

type refEdge struct {
	from string
	to   string
}

func newRefGraph() *refGraph {
	return &refGraph{nodes: make(map[string]bool)}
}

func (g *refGraph) addNode(name string) {
	g.nodes[name] = true
}

func (g *refGraph) addEdge(from, to string) {
	g.edges = append(g.edges, refEdge{from: from, to: to})
}

// buildLevels groups nodes by dependency level using Kahn's algorithm.
// Nodes within the same level have no edges between them. Returns an error
// if the reference graph contains a cycle, which for this topology means a
// queue that (transitively, through stages) feeds itself.
func (g *refGraph) buildLevels() ([][]string, error) {
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)

	for name := range g.nodes {
		inDegree[name] = 0
	}

	for _, e := range g.edges {
		if !g.nodes[e.from] {
			return nil, fmt.Errorf("topology: edge references unknown node %q", e.from)
		}
		if !g.nodes[e.to] {
			return nil, fmt.Errorf("topology: edge references unknown node %q", e.to)
		}
		inDegree[e.to]++
		dependents[e.from] = append(dependents[e.from], e.to)
	}

	var queue []string
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0

	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range dependents[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		queue = next
	}

	if visited != len(g.nodes) {
		return nil, fmt.Errorf("topology: cycle detected among stage/queue references, processed %d of %d nodes", visited, len(g.nodes))
	}

	return levels, nil
}
