package cost

import (
	"fmt"
	"strings"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
)

// CallGraph records which ops call which, and how often. Nodes are keyed by
// op identity, so an op reached along several paths appears once.
type CallGraph struct {
	Root   string
	Metric string

	nodes map[string]*CallNode
	order []string
}

// CallNode is one distinct op in a CallGraph.
type CallNode struct {
	Key      string
	Name     string
	Op       circuit.Op
	Cost     Counts
	Children []CallEdge
	// Leaf is set when the cost came from the op itself.
	Leaf bool
	// Opaque is set when the op could not be expanded and contributed an
	// unknown marker.
	Opaque bool
}

// CallEdge is a call from a node to a child with a multiplicity.
type CallEdge struct {
	Key   string
	Count sym.Expr
}

func newCallGraph(metric string) *CallGraph {
	return &CallGraph{Metric: metric, nodes: map[string]*CallNode{}}
}

func (g *CallGraph) add(op circuit.Op, key, name string) *CallNode {
	if n, ok := g.nodes[key]; ok {
		return n
	}
	n := &CallNode{Key: key, Name: name, Op: op}
	g.nodes[key] = n
	g.order = append(g.order, key)
	return n
}

// Node returns the node for an op key.
func (g *CallGraph) Node(key string) (*CallNode, bool) {
	n, ok := g.nodes[key]
	return n, ok
}

// RootNode returns the node for the op the graph was built from.
func (g *CallGraph) RootNode() *CallNode {
	return g.nodes[g.Root]
}

// Nodes returns every node in discovery order, root first.
func (g *CallGraph) Nodes() []*CallNode {
	out := make([]*CallNode, len(g.order))
	for i, k := range g.order {
		out[i] = g.nodes[k]
	}
	return out
}

// Len is the number of distinct ops.
func (g *CallGraph) Len() int { return len(g.order) }

// Sigma returns, for every leaf and opaque node, the total number of times
// it is reached from the root.
func (g *CallGraph) Sigma() map[string]sym.Expr {
	out := map[string]sym.Expr{}
	if g.Root == "" {
		return out
	}
	var walk func(key string, mult sym.Expr)
	walk = func(key string, mult sym.Expr) {
		n := g.nodes[key]
		if n.Leaf || n.Opaque || len(n.Children) == 0 {
			out[key] = sym.Add(out[key], mult)
			return
		}
		for _, e := range n.Children {
			walk(e.Key, sym.Mul(mult, e.Count))
		}
	}
	walk(g.Root, sym.Int(1))
	return out
}

// Format renders the graph as an indented tree. Nodes already printed are
// shown by reference.
func (g *CallGraph) Format() string { return g.format(true) }

// Outline is Format without op keys. Its text only changes when names,
// counts or costs change, which suits golden files.
func (g *CallGraph) Outline() string { return g.format(false) }

func (g *CallGraph) format(withKeys bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "metric: %s\n", g.Metric)
	if g.Root == "" {
		return sb.String()
	}
	seen := map[string]bool{}
	var write func(key string, count sym.Expr, indent int)
	write = func(key string, count sym.Expr, indent int) {
		n := g.nodes[key]
		pad := strings.Repeat("  ", indent)
		prefix := ""
		if count != nil {
			prefix = count.String() + " x "
		}
		label := pad + prefix + n.Name
		if withKeys {
			label += " [" + ir.ShortKey(n.Key) + "]"
		}
		if seen[key] {
			fmt.Fprintf(&sb, "%s ...\n", label)
			return
		}
		seen[key] = true
		tag := ""
		switch {
		case n.Leaf:
			tag = " leaf"
		case n.Opaque:
			tag = " opaque"
		}
		fmt.Fprintf(&sb, "%s%s %s\n", label, tag, n.Cost.String())
		for _, e := range n.Children {
			write(e.Key, e.Count, indent+1)
		}
	}
	write(g.Root, nil, 0)
	return sb.String()
}
