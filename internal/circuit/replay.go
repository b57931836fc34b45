package circuit

import (
	"slices"

	"github.com/roach88/qwire/internal/ir"
)

// MapFunc adds the replacement for inst to bb. For a forward replay `in` is
// keyed by inst.Op's LEFT ports and the result must be keyed by its RIGHT
// ports; for a reverse replay the roles are swapped.
type MapFunc func(bb *Builder, inst Instance, in Wiring) (Wiring, error)

// AddInstance is the identity MapFunc: it adds inst.Op unchanged.
func AddInstance(bb *Builder, inst Instance, in Wiring) (Wiring, error) {
	return bb.Add(inst.Op, in)
}

// Replay re-adds the graph's instances to bb in topological order, feeding
// `in` to the graph's LEFT ports and returning the values reaching its RIGHT
// ports. A nil fn adds each op unchanged.
func (g *Graph) Replay(bb *Builder, in Wiring, fn MapFunc) (Wiring, error) {
	if fn == nil {
		fn = AddInstance
	}
	edge := make([]WireID, len(g.cxns))
	if err := g.assign(bb, LeftDangle, g.sig.Lefts(), g.out, in, edge, nil); err != nil {
		return nil, err
	}
	for _, id := range g.order {
		inst := g.insts[id]
		sig := inst.Op.Signature()
		w := g.collect(bb, id, sig.Lefts(), g.in, edge)
		res, err := fn(bb, inst, w)
		if err != nil {
			return nil, err
		}
		if err := g.assign(bb, id, sig.Rights(), g.out, res, edge, inst.Op); err != nil {
			return nil, err
		}
	}
	return g.collect(bb, RightDangle, g.sig.Rights(), g.in, edge), nil
}

// ReplayReverse walks the graph backwards: `in` feeds the graph's RIGHT
// ports, each instance is visited in reverse topological order with the
// values on its RIGHT ports, fn returns values for its LEFT ports, and the
// result holds the values reaching the graph's LEFT ports.
func (g *Graph) ReplayReverse(bb *Builder, in Wiring, fn MapFunc) (Wiring, error) {
	if fn == nil {
		return nil, &Error{Kind: KindUnsupportedAdjoint, Message: "reverse replay needs a mapping"}
	}
	edge := make([]WireID, len(g.cxns))
	if err := g.assign(bb, RightDangle, g.sig.Rights(), g.in, in, edge, nil); err != nil {
		return nil, err
	}
	order := slices.Clone(g.order)
	slices.Reverse(order)
	for _, id := range order {
		inst := g.insts[id]
		sig := inst.Op.Signature()
		w := g.collect(bb, id, sig.Rights(), g.out, edge)
		res, err := fn(bb, inst, w)
		if err != nil {
			return nil, err
		}
		if err := g.assign(bb, id, sig.Lefts(), g.in, res, edge, inst.Op); err != nil {
			return nil, err
		}
	}
	return g.collect(bb, LeftDangle, g.sig.Lefts(), g.out, edge), nil
}

// assign records the wires of w on the connections attached to node's ports.
func (g *Graph) assign(bb *Builder, node NodeID, ports []ir.Port, index map[Slot]int, w Wiring, edge []WireID, op Op) error {
	for _, p := range ports {
		v, ok := w[p.Name]
		if !ok || v.IsZero() {
			return errorf(KindMissingConnection, op, p.Name, "replay produced no value for port %q", p.Name)
		}
		if v.owner != bb.id {
			return errorf(KindTypeMismatch, op, p.Name, "replay value for port %q comes from another builder", p.Name)
		}
		for i, id := range v.ids {
			ci, ok := index[Slot{Node: node, Port: p.Name, Index: i}]
			if !ok {
				return errorf(KindTypeMismatch, op, p.Name, "replay value for port %q has %d wires, expected fewer", p.Name, len(v.ids))
			}
			edge[ci] = id
		}
		if shape, ok := p.ShapeInts(); ok && product(shape) != len(v.ids) {
			return errorf(KindTypeMismatch, op, p.Name, "replay value for port %q has %d wires, expected %d", p.Name, len(v.ids), product(shape))
		}
	}
	return nil
}

// collect gathers the wires of bb on the connections attached to node's
// ports.
func (g *Graph) collect(bb *Builder, node NodeID, ports []ir.Port, index map[Slot]int, edge []WireID) Wiring {
	out := make(Wiring, len(ports))
	for _, p := range ports {
		shape, _ := p.ShapeInts()
		ids := make([]WireID, product(shape))
		for i := range ids {
			ids[i] = edge[index[Slot{Node: node, Port: p.Name, Index: i}]]
		}
		out[p.Name] = newValue(bb.id, shape, ids)
	}
	return out
}
