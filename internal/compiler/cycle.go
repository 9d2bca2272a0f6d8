package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/dynql/internal/catalog"
)

// CycleWarning reports a loop in the relation graph.
//
// Cycles are informational: Post.author -> User.posts -> Post is normal in
// a graph API. They mean a request can nest without bound, and every level
// of nesting adds one join to the compiled plan.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["Post", "User", "Post"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "info"
}

// AnalyzeCycles finds strongly connected components of the entity relation
// graph (Tarjan's algorithm) and reports each one that forms a loop.
//
// An acyclic catalog returns an empty list.
func AnalyzeCycles(cat *catalog.Catalog) []CycleWarning {
	if cat == nil {
		return []CycleWarning{}
	}

	graph := buildRelationGraph(cat)
	sccs := tarjanSCC(graph)

	warnings := []CycleWarning{}
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}

	sort.Slice(warnings, func(i, j int) bool {
		return warnings[i].Message < warnings[j].Message
	})
	return warnings
}

// relationGraph maps entity name -> related entity names, in declaration order.
type relationGraph map[string][]string

func buildRelationGraph(cat *catalog.Catalog) relationGraph {
	graph := make(relationGraph)
	for _, e := range cat.Entities() {
		// Ensure every entity is a node even without relations.
		if graph[e.Name] == nil {
			graph[e.Name] = []string{}
		}
		for _, r := range e.Relations {
			graph[e.Name] = append(graph[e.Name], r.Target)
		}
	}
	return graph
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph relationGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so the result is deterministic.
func tarjanSCC(graph relationGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
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

		// v is a root node: pop the stack and emit an SCC.
		if lowlink[v] == indices[v] {
			var scc []string
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

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func cycleSCCToWarning(scc []string, graph relationGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Self-referencing entity: %s -> %s", name, name),
			Level:   "info",
		}
	}

	sorted := append([]string(nil), scc...)
	sort.Strings(sorted)
	path := reconstructCyclePath(sorted, graph)

	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Relation cycle: %s", strings.Join(path, " -> ")),
		Level:   "info",
	}
}

// reconstructCyclePath follows edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []string, graph relationGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}

		if next == "" {
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
