package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/katalvlaran/lvlath/graph/core"
)

// Cycle is a set of definitions that reach each other through calls.
type Cycle struct {
	// Path walks the cycle and ends where it started: ["A", "B", "A"].
	Path    []string `json:"path"`
	Message string   `json:"message"`
}

// callGraph is the directed call relation between definitions. Calls to
// names outside the definition set have no edge.
type callGraph struct {
	*core.Graph
}

func buildCallGraph(specs []*Spec) callGraph {
	g := core.NewGraph(true, false)
	for _, s := range specs {
		g.AddVertex(&core.Vertex{ID: s.Name})
	}
	for _, s := range specs {
		for _, callee := range s.Calls() {
			if g.HasVertex(callee) && !g.HasEdge(s.Name, callee) {
				g.AddEdge(s.Name, callee, 0)
			}
		}
	}
	return callGraph{g}
}

// names returns every definition, sorted.
func (g callGraph) names() []string {
	vs := g.Vertices()
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	slices.Sort(out)
	return out
}

// callees returns the definitions name calls, sorted.
func (g callGraph) callees(name string) []string {
	vs := g.Neighbors(name)
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	slices.Sort(out)
	return out
}

// AnalyzeCycles reports every cycle in the call relation of specs. An empty
// result means the definitions can be linked callees first.
//
// Strongly connected components are found with Tarjan's algorithm; each
// component with more than one member, or with a self-call, is a cycle.
func AnalyzeCycles(specs []*Spec) []Cycle {
	g := buildCallGraph(specs)
	var cycles []Cycle
	for _, scc := range tarjanSCC(g) {
		if len(scc) > 1 || hasSelfLoop(scc[0], g) {
			cycles = append(cycles, sccToCycle(scc, g))
		}
	}
	return cycles
}

// linkOrder returns definition names with every callee before its callers.
// It is only meaningful when AnalyzeCycles found nothing.
func linkOrder(specs []*Spec) []string {
	var order []string
	for _, scc := range tarjanSCC(buildCallGraph(specs)) {
		order = append(order, scc...)
	}
	return order
}

func hasSelfLoop(node string, g callGraph) bool {
	return g.HasEdge(node, node)
}

// tarjanSCC finds strongly connected components. Components come out in
// reverse topological order: a component is emitted after everything it
// calls. Nodes are visited in sorted order so the result is deterministic.
func tarjanSCC(g callGraph) [][]string {
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

		for _, w := range g.callees(v) {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

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
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	for _, n := range g.names() {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

func sccToCycle(scc []string, g callGraph) Cycle {
	if len(scc) == 1 {
		name := scc[0]
		return Cycle{
			Path:    []string{name, name},
			Message: fmt.Sprintf("%s calls itself", name),
		}
	}
	path := reconstructCyclePath(scc, g)
	return Cycle{
		Path:    path,
		Message: "call cycle: " + strings.Join(path, " -> "),
	}
}

// reconstructCyclePath follows calls inside the component from its first
// member until it returns there.
func reconstructCyclePath(scc []string, g callGraph) []string {
	start := scc[0]
	current := start
	path := []string{current}
	visited := map[string]bool{}

	for {
		visited[current] = true
		next := ""
		for _, n := range g.callees(current) {
			if slices.Contains(scc, n) && (!visited[n] || n == start) {
				next = n
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
