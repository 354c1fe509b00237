package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/fhegraph/internal/ir"
)

// Cycle is a strongly connected set of nodes in a graph that should be
// acyclic. Builders cannot produce one; deserialized programs can.
type Cycle struct {
	Path    []ir.NodeID `json:"path"`    // Cycle path: [3, 5, 3]
	Message string      `json:"message"` // Human-readable description
}

// dependencyGraph maps a node to the nodes that consume it.
type dependencyGraph map[ir.NodeID][]ir.NodeID

func buildDependencyGraph(g ir.Graph) dependencyGraph {
	graph := make(dependencyGraph, len(g.Nodes))
	for _, n := range g.Nodes {
		if graph[n.ID] == nil {
			graph[n.ID] = []ir.NodeID{}
		}
		for _, in := range n.Inputs {
			graph[in] = append(graph[in], n.ID)
		}
	}
	return graph
}

// FindCycles reports every cycle in g, ordered by the smallest node id it
// contains.
//
// The algorithm:
//  1. Build producer → consumer edges from node inputs
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1, or with a self-loop, as a cycle
func FindCycles(g ir.Graph) []Cycle {
	graph := buildDependencyGraph(g)

	var cycles []Cycle
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			cycles = append(cycles, sccToCycle(scc, graph))
		}
	}
	slices.SortFunc(cycles, func(a, b Cycle) int {
		return int(slices.Min(a.Path) - slices.Min(b.Path))
	})
	return cycles
}

func hasSelfLoop(node ir.NodeID, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in ascending id order so the result is deterministic.
func tarjanSCC(graph dependencyGraph) [][]ir.NodeID {
	var (
		index   = 0
		stack   []ir.NodeID
		indices = make(map[ir.NodeID]int)
		lowlink = make(map[ir.NodeID]int)
		onStack = make(map[ir.NodeID]bool)
		sccs    [][]ir.NodeID
	)

	var strongConnect func(ir.NodeID)
	strongConnect = func(v ir.NodeID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is the root of an SCC: pop it
		if lowlink[v] == indices[v] {
			var scc []ir.NodeID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]ir.NodeID, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToCycle(scc []ir.NodeID, graph dependencyGraph) Cycle {
	var path []ir.NodeID
	if len(scc) == 1 {
		path = []ir.NodeID{scc[0], scc[0]}
	} else {
		path = reconstructCyclePath(scc, graph)
	}

	parts := make([]string, len(path))
	for i, id := range path {
		parts[i] = fmt.Sprintf("n%d", id)
	}
	return Cycle{
		Path:    path,
		Message: fmt.Sprintf("cycle detected: %s", strings.Join(parts, " → ")),
	}
}

// reconstructCyclePath follows edges inside the SCC from its smallest node
// until it returns there.
func reconstructCyclePath(scc []ir.NodeID, graph dependencyGraph) []ir.NodeID {
	members := make(map[ir.NodeID]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := slices.Min(scc)
	current := start
	path := []ir.NodeID{current}
	visited := make(map[ir.NodeID]bool)

	for {
		visited[current] = true

		next, found := ir.InvalidNode, false
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next, found = neighbor, true
				break
			}
		}
		if !found {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
