package circuit

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/qwire/internal/ir"
)

// NodeID identifies an instance within a graph. The dangling nodes stand for
// the graph's own inputs and outputs.
type NodeID int

const (
	LeftDangle  NodeID = -1
	RightDangle NodeID = -2
)

func (n NodeID) String() string {
	switch n {
	case LeftDangle:
		return "LeftDangle"
	case RightDangle:
		return "RightDangle"
	}
	return fmt.Sprintf("#%d", int(n))
}

// Slot is one wire position on a node: a port and a flattened element index.
type Slot struct {
	Node  NodeID
	Port  string
	Index int
}

func (s Slot) String() string {
	return fmt.Sprintf("%s.%s[%d]", s.Node, s.Port, s.Index)
}

// Instance is one occurrence of an op inside a graph.
type Instance struct {
	ID NodeID
	Op Op
}

// Connection carries one wire from a producing slot to a consuming slot.
type Connection struct {
	From Slot
	To   Slot
}

// Graph is a finalized, immutable circuit: a DAG of instances connected by
// single-producer, single-consumer wires. A Graph is itself an Op of kind
// "Composite" whose decomposition is its own contents.
type Graph struct {
	sig   ir.Signature
	insts []Instance
	cxns  []Connection
	in    map[Slot]int // consuming slot -> connection index
	out   map[Slot]int // producing slot -> connection index
	order []NodeID
	// content hashes the graph body; key is the identity as an op.
	content string
	key     string
}

func newGraph(sig ir.Signature, insts []Instance, cxns []Connection) *Graph {
	g := &Graph{
		sig:   sig,
		insts: slices.Clone(insts),
		cxns:  slices.Clone(cxns),
		in:    make(map[Slot]int, len(cxns)),
		out:   make(map[Slot]int, len(cxns)),
	}
	for i, c := range g.cxns {
		g.in[c.To] = i
		g.out[c.From] = i
	}
	// Builders only connect already-produced wires, so the graph is acyclic.
	g.order, _ = g.topoSort()
	g.content = g.contentKey()
	g.key = ir.MustOperationKey("Composite", g.Params())
	return g
}

// contentKey hashes the signature, instance ops and connections.
func (g *Graph) contentKey() string {
	insts := make(ir.IRArray, len(g.insts))
	for i, inst := range g.insts {
		insts[i] = ir.IRString(Key(inst.Op))
	}
	sorted := slices.Clone(g.cxns)
	slices.SortFunc(sorted, func(a, b Connection) int { return compareSlot(a.To, b.To) })
	cxns := make(ir.IRArray, len(sorted))
	for i, c := range sorted {
		cxns[i] = ir.IRArray{
			ir.IRInt(c.From.Node), ir.IRString(c.From.Port), ir.IRInt(c.From.Index),
			ir.IRInt(c.To.Node), ir.IRString(c.To.Port), ir.IRInt(c.To.Index),
		}
	}
	key, err := ir.GraphKey(ir.IRObject{
		"signature":   g.sig.Object(),
		"instances":   insts,
		"connections": cxns,
	})
	if err != nil {
		panic(err)
	}
	return key
}

func compareSlot(a, b Slot) int {
	return cmp.Or(
		cmp.Compare(a.Node, b.Node),
		cmp.Compare(a.Port, b.Port),
		cmp.Compare(a.Index, b.Index),
	)
}

// topoSort is Kahn's algorithm with ties broken by instance id.
func (g *Graph) topoSort() ([]NodeID, error) {
	indeg := make([]int, len(g.insts))
	succ := make([][]NodeID, len(g.insts))
	for _, c := range g.cxns {
		if c.From.Node < 0 || c.To.Node < 0 {
			continue
		}
		indeg[c.To.Node]++
		succ[c.From.Node] = append(succ[c.From.Node], c.To.Node)
	}
	var ready []NodeID
	for i, d := range indeg {
		if d == 0 {
			ready = append(ready, NodeID(i))
		}
	}
	order := make([]NodeID, 0, len(g.insts))
	for len(ready) > 0 {
		slices.Sort(ready)
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, s := range succ[n] {
			indeg[s]--
			if indeg[s] == 0 {
				ready = append(ready, s)
			}
		}
	}
	if len(order) != len(g.insts) {
		return order, &Error{Kind: KindCyclicDefinition, Message: "graph contains a cycle"}
	}
	return order, nil
}

// Kind implements Op.
func (g *Graph) Kind() string { return "Composite" }

// Params implements Op; a graph is identified by its content hash.
func (g *Graph) Params() ir.IRObject {
	return ir.IRObject{"graph": ir.IRString(g.content)}
}

// Key returns the structural identity of the graph as an op.
func (g *Graph) Key() string { return g.key }

// Signature implements Op.
func (g *Graph) Signature() ir.Signature { return g.sig }

// Decompose implements Decomposer by replaying the graph's instances.
func (g *Graph) Decompose(bb *Builder, in Wiring) (Wiring, error) {
	return g.Replay(bb, in, nil)
}

func (g *Graph) String() string {
	return fmt.Sprintf("Composite[%s]", ir.ShortKey(g.key))
}

// Instances returns the instances in id order.
func (g *Graph) Instances() []Instance { return slices.Clone(g.insts) }

// Instance returns the instance with the given id.
func (g *Graph) Instance(id NodeID) (Instance, bool) {
	if id < 0 || int(id) >= len(g.insts) {
		return Instance{}, false
	}
	return g.insts[id], true
}

// NumInstances is the number of op instances.
func (g *Graph) NumInstances() int { return len(g.insts) }

// Connections returns the connections in creation order.
func (g *Graph) Connections() []Connection { return slices.Clone(g.cxns) }

// Incoming returns the connection consuming into slot.
func (g *Graph) Incoming(to Slot) (Connection, bool) {
	i, ok := g.in[to]
	if !ok {
		return Connection{}, false
	}
	return g.cxns[i], true
}

// Outgoing returns the connection produced from slot.
func (g *Graph) Outgoing(from Slot) (Connection, bool) {
	i, ok := g.out[from]
	if !ok {
		return Connection{}, false
	}
	return g.cxns[i], true
}

// TopoOrder returns instance ids in a deterministic topological order.
func (g *Graph) TopoOrder() []NodeID { return slices.Clone(g.order) }

// Validate re-checks the structural invariants: every slot of every
// instance and dangling port is connected exactly once, and the graph is
// acyclic.
func (g *Graph) Validate() error {
	seenTo := map[Slot]bool{}
	seenFrom := map[Slot]bool{}
	for _, c := range g.cxns {
		if seenTo[c.To] {
			return &Error{Kind: KindUseAfterConsume, Port: c.To.Port, Message: fmt.Sprintf("slot %s consumes two wires", c.To)}
		}
		if seenFrom[c.From] {
			return &Error{Kind: KindUseAfterConsume, Port: c.From.Port, Message: fmt.Sprintf("slot %s feeds two consumers", c.From)}
		}
		seenTo[c.To] = true
		seenFrom[c.From] = true
	}

	expected := 0
	check := func(node NodeID, ports []ir.Port, seen map[Slot]bool, kind ErrorKind, what string) error {
		for _, p := range ports {
			shape, ok := p.ShapeInts()
			if !ok {
				return &Error{Kind: KindSymbolicShape, Port: p.Name, Message: "graph holds a symbolic port"}
			}
			if node != LeftDangle && kind == KindMissingConnection {
				expected += product(shape)
			}
			for i := range product(shape) {
				s := Slot{Node: node, Port: p.Name, Index: i}
				if !seen[s] {
					return &Error{Kind: kind, Port: p.Name, Message: fmt.Sprintf("slot %s is not %s", s, what)}
				}
			}
		}
		return nil
	}
	if err := check(LeftDangle, g.sig.Lefts(), seenFrom, KindDanglingValue, "consumed"); err != nil {
		return err
	}
	if err := check(RightDangle, g.sig.Rights(), seenTo, KindMissingConnection, "produced"); err != nil {
		return err
	}
	for _, inst := range g.insts {
		sig := inst.Op.Signature()
		if err := check(inst.ID, sig.Lefts(), seenTo, KindMissingConnection, "connected"); err != nil {
			return err
		}
		if err := check(inst.ID, sig.Rights(), seenFrom, KindDanglingValue, "consumed"); err != nil {
			return err
		}
	}
	if expected != len(g.cxns) {
		return &Error{Kind: KindUnknownPort, Message: fmt.Sprintf("%d connections for %d consuming slots", len(g.cxns), expected)}
	}
	_, err := g.topoSort()
	return err
}

// OpCount is the multiplicity of one distinct op within a graph.
type OpCount struct {
	Op    Op
	Key   string
	Count int
}

// Counts groups instances by structural identity, in order of first
// appearance in TopoOrder.
func (g *Graph) Counts() []OpCount {
	idx := map[string]int{}
	var out []OpCount
	for _, id := range g.order {
		op := g.insts[id].Op
		k := Key(op)
		if i, ok := idx[k]; ok {
			out[i].Count++
			continue
		}
		idx[k] = len(out)
		out = append(out, OpCount{Op: op, Key: k, Count: 1})
	}
	return out
}
