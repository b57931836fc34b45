package circuit

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/roach88/qwire/internal/ir"
)

type wireEntry struct {
	from     Slot
	dtype    ir.DType
	consumed bool
}

// Builder assembles a circuit graph. Every wire in its arena is produced
// exactly once and consumed at most once; Finalize requires every wire to be
// consumed or returned.
//
// A Builder is not safe for concurrent use. Each method either succeeds or
// leaves the builder unchanged.
type Builder struct {
	id     uint64
	wires  []wireEntry
	insts  []Instance
	cxns   []Connection
	inputs []ir.Port
	target *ir.Signature
	closed bool
}

// NewBuilder returns a free-form builder whose signature is inferred from
// AddInput calls and the outputs passed to Finalize.
func NewBuilder() *Builder {
	return &Builder{id: builderIDs.Add(1)}
}

var builderIDs atomic.Uint64

// FromSignature returns a builder bound to sig together with the wiring of
// sig's LEFT ports. Finalize checks the outputs against sig's RIGHT ports.
func FromSignature(sig ir.Signature) (*Builder, Wiring, error) {
	bb := NewBuilder()
	in := Wiring{}
	for _, p := range sig.Lefts() {
		shape, ok := p.ShapeInts()
		if !ok {
			return nil, nil, errorf(KindSymbolicShape, nil, p.Name, "cannot instantiate shape %v", p.Shape)
		}
		v, err := bb.addInput(p.Name, p.DType, shape)
		if err != nil {
			return nil, nil, err
		}
		in[p.Name] = v
	}
	bb.target = &sig
	return bb, in, nil
}

// AddInput registers a new LEFT port of a free-form builder and returns its
// wires.
func (bb *Builder) AddInput(name string, dt ir.DType, shape ...int) (Value, error) {
	if bb.closed {
		return Value{}, errorf(KindBuilderClosed, nil, name, "builder already finalized")
	}
	if bb.target != nil {
		return Value{}, errorf(KindUnknownPort, nil, name, "inputs of a bound builder are fixed by its signature")
	}
	for _, d := range shape {
		if d < 0 {
			return Value{}, errorf(KindTypeMismatch, nil, name, "negative dimension in shape %v", shape)
		}
	}
	return bb.addInput(name, dt, shape)
}

func (bb *Builder) addInput(name string, dt ir.DType, shape []int) (Value, error) {
	if name == "" || dt == nil {
		return Value{}, errorf(KindTypeMismatch, nil, name, "input needs a name and a dtype")
	}
	if slices.ContainsFunc(bb.inputs, func(p ir.Port) bool { return p.Name == name }) {
		return Value{}, errorf(KindDuplicatePortName, nil, name, "input %q already registered", name)
	}
	bb.inputs = append(bb.inputs, ir.NewLeftPort(name, dt, shape...))
	ids := bb.newWires(LeftDangle, name, dt, product(shape))
	return newValue(bb.id, shape, ids), nil
}

// Add instantiates op, consuming the wires in `in` for its LEFT ports and
// returning fresh wires for its RIGHT ports.
func (bb *Builder) Add(op Op, in Wiring) (Wiring, error) {
	if bb.closed {
		return nil, errorf(KindBuilderClosed, op, "", "builder already finalized")
	}
	sig := op.Signature()
	lefts := sig.Lefts()
	rights := sig.Rights()

	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if _, ok := sig.Left(name); !ok {
			return nil, errorf(KindUnknownPort, op, name, "%s has no left port %q", op.Kind(), name)
		}
	}

	for _, p := range sig.Ports() {
		if _, ok := p.ShapeInts(); !ok {
			return nil, errorf(KindSymbolicShape, op, p.Name, "cannot instantiate shape %v", p.Shape)
		}
	}

	seen := map[WireID]bool{}
	for _, p := range lefts {
		v, ok := in[p.Name]
		if !ok || v.IsZero() {
			return nil, errorf(KindMissingConnection, op, p.Name, "left port %q is not connected", p.Name)
		}
		if err := bb.checkValue(op, p, v, seen); err != nil {
			return nil, err
		}
	}
	rightShapes := make([][]int, len(rights))
	for i, p := range rights {
		rightShapes[i], _ = p.ShapeInts()
	}

	// All checks passed; mutate.
	id := NodeID(len(bb.insts))
	bb.insts = append(bb.insts, Instance{ID: id, Op: op})
	for _, p := range lefts {
		for i, w := range in[p.Name].ids {
			bb.connect(w, Slot{Node: id, Port: p.Name, Index: i})
		}
	}
	out := make(Wiring, len(rights))
	for i, p := range rights {
		ids := bb.newWires(id, p.Name, p.DType, product(rightShapes[i]))
		out[p.Name] = newValue(bb.id, rightShapes[i], ids)
	}
	return out, nil
}

// checkValue verifies that v can be consumed by port p: same shape, same
// dtype on every wire, every wire live and not used twice in this call.
func (bb *Builder) checkValue(op Op, p ir.Port, v Value, seen map[WireID]bool) error {
	shape, ok := p.ShapeInts()
	if !ok {
		return errorf(KindSymbolicShape, op, p.Name, "cannot instantiate shape %v", p.Shape)
	}
	if !slices.Equal(shape, v.shape) {
		return errorf(KindTypeMismatch, op, p.Name, "shape %v does not match port shape %v", v.shape, shape)
	}
	if len(v.ids) != product(shape) {
		return errorf(KindTypeMismatch, op, p.Name, "value holds %d wires, port needs %d", len(v.ids), product(shape))
	}
	if v.owner != bb.id {
		return errorf(KindTypeMismatch, op, p.Name, "value comes from another builder")
	}
	for _, w := range v.ids {
		if w < 0 || int(w) >= len(bb.wires) {
			return errorf(KindTypeMismatch, op, p.Name, "wire %d does not belong to this builder", w)
		}
		e := bb.wires[w]
		if e.consumed || seen[w] {
			return errorf(KindUseAfterConsume, op, p.Name, "wire %d (from %s) already consumed", w, e.from)
		}
		if !ir.DTypeEqual(e.dtype, p.DType) {
			return errorf(KindTypeMismatch, op, p.Name, "wire dtype %s does not match port dtype %s", e.dtype, p.DType)
		}
		seen[w] = true
	}
	return nil
}

// Finalize closes the builder and returns the graph. Every wire must be
// consumed by an instance or appear in out.
func (bb *Builder) Finalize(out Wiring) (*Graph, error) {
	if bb.closed {
		return nil, errorf(KindBuilderClosed, nil, "", "builder already finalized")
	}

	rights, err := bb.outputPorts(out)
	if err != nil {
		return nil, err
	}

	returned := map[WireID]bool{}
	for _, p := range rights {
		if err := bb.checkValue(nil, p, out[p.Name], returned); err != nil {
			return nil, err
		}
	}
	for id, e := range bb.wires {
		if !e.consumed && !returned[WireID(id)] {
			return nil, &Error{
				Kind:    KindDanglingValue,
				Port:    e.from.Port,
				Message: fmt.Sprintf("wire %d produced at %s is never consumed", id, e.from),
			}
		}
	}

	var sig ir.Signature
	if bb.target != nil {
		sig = *bb.target
	} else {
		sig, err = inferSignature(bb.inputs, rights)
		if err != nil {
			return nil, err
		}
	}

	for _, p := range rights {
		for i, w := range out[p.Name].ids {
			bb.connect(w, Slot{Node: RightDangle, Port: p.Name, Index: i})
		}
	}
	bb.closed = true
	return newGraph(sig, bb.insts, bb.cxns), nil
}

// outputPorts returns the RIGHT ports the outputs must satisfy: the bound
// signature's, or ports inferred from the values themselves.
func (bb *Builder) outputPorts(out Wiring) ([]ir.Port, error) {
	names := make([]string, 0, len(out))
	for name := range out {
		names = append(names, name)
	}
	slices.Sort(names)

	if bb.target != nil {
		rights := bb.target.Rights()
		for _, name := range names {
			if _, ok := bb.target.Right(name); !ok {
				return nil, errorf(KindTypeMismatch, nil, name, "output %q is not a right port of the signature", name)
			}
		}
		for _, p := range rights {
			if v, ok := out[p.Name]; !ok || v.IsZero() {
				return nil, errorf(KindTypeMismatch, nil, p.Name, "right port %q is not produced", p.Name)
			}
		}
		return rights, nil
	}

	rights := make([]ir.Port, 0, len(names))
	for _, name := range names {
		v := out[name]
		if v.IsZero() {
			return nil, errorf(KindMissingConnection, nil, name, "output %q is empty", name)
		}
		var dt ir.DType
		for _, w := range v.ids {
			if w < 0 || int(w) >= len(bb.wires) {
				return nil, errorf(KindTypeMismatch, nil, name, "wire %d does not belong to this builder", w)
			}
			if dt == nil {
				dt = bb.wires[w].dtype
			} else if !ir.DTypeEqual(dt, bb.wires[w].dtype) {
				return nil, errorf(KindTypeMismatch, nil, name, "output mixes dtypes %s and %s", dt, bb.wires[w].dtype)
			}
		}
		rights = append(rights, ir.NewRightPort(name, dt, v.shape...))
	}
	return rights, nil
}

// inferSignature merges a LEFT and RIGHT port of the same name and type into
// one THRU port.
func inferSignature(lefts, rights []ir.Port) (ir.Signature, error) {
	ports := make([]ir.Port, 0, len(lefts)+len(rights))
	merged := map[string]bool{}
	for _, l := range lefts {
		for _, r := range rights {
			if r.Name == l.Name && r.Key() == l.Key() {
				l = l.WithSide(ir.SideThru)
				merged[r.Name] = true
			}
		}
		ports = append(ports, l)
	}
	for _, r := range rights {
		if !merged[r.Name] {
			ports = append(ports, r)
		}
	}
	sig, err := ir.NewSignature(ports...)
	if err != nil {
		return ir.Signature{}, &Error{Kind: KindDuplicatePortName, Message: "inferred signature", Cause: err}
	}
	return sig, nil
}

func (bb *Builder) newWires(node NodeID, port string, dt ir.DType, n int) []WireID {
	ids := make([]WireID, n)
	for i := range n {
		ids[i] = WireID(len(bb.wires))
		bb.wires = append(bb.wires, wireEntry{
			from:  Slot{Node: node, Port: port, Index: i},
			dtype: dt,
		})
	}
	return ids
}

func (bb *Builder) connect(w WireID, to Slot) {
	bb.wires[w].consumed = true
	bb.cxns = append(bb.cxns, Connection{From: bb.wires[w].from, To: to})
}

// NumInstances is the number of ops added so far.
func (bb *Builder) NumInstances() int { return len(bb.insts) }

// Closed reports whether Finalize has succeeded.
func (bb *Builder) Closed() bool { return bb.closed }

// DType returns the dtype carried by a scalar value.
func (bb *Builder) DType(v Value) (ir.DType, bool) {
	if len(v.ids) == 0 || int(v.ids[0]) >= len(bb.wires) || v.ids[0] < 0 {
		return nil, false
	}
	return bb.wires[v.ids[0]].dtype, true
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
