package transform

import (
	"fmt"
	"maps"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
)

// ControlSystem is a controlled version of some op together with the names
// needed to wire it: CtrlPorts are the control ports in CtrlSpec order and
// PortMap renames the original op's ports on the controlled op. Ports absent
// from PortMap keep their names.
type ControlSystem struct {
	Op        circuit.Op
	CtrlPorts []string
	PortMap   map[string]string
}

// Port returns the controlled op's name for the original port name.
func (cs ControlSystem) Port(name string) string {
	if mapped, ok := cs.PortMap[name]; ok {
		return mapped
	}
	return name
}

// Controller is implemented by ops with a specialized controlled version,
// such as X whose singly controlled version is CNOT. Returning false falls
// back to the generic construction.
type Controller interface {
	ControlledBy(spec CtrlSpec) (ControlSystem, bool)
}

// ControlSystemFor derives the controlled version of op under spec.
func ControlSystemFor(op circuit.Op, spec CtrlSpec) (ControlSystem, error) {
	if c, ok := op.(Controller); ok {
		if cs, ok := c.ControlledBy(spec); ok {
			return cs, nil
		}
	}
	if circuit.IgnoresControl(op) || circuit.IsDecomposable(op) || declaresCallees(op) {
		cop, err := NewControlledOp(op, spec)
		if err != nil {
			return ControlSystem{}, err
		}
		return ControlSystem{Op: cop, CtrlPorts: cop.CtrlPorts()}, nil
	}
	return ControlSystem{}, &circuit.Error{
		Kind:    circuit.KindUnsupportedControl,
		Op:      circuit.Name(op),
		Message: fmt.Sprintf("leaf operation has no controlled version for %s", spec),
	}
}

// Controlled returns the controlled version of op.
func Controlled(op circuit.Op, spec CtrlSpec) (circuit.Op, error) {
	cs, err := ControlSystemFor(op, spec)
	if err != nil {
		return nil, err
	}
	return cs.Op, nil
}

// ControlledOp is the generic controlled version of an op. Its signature is
// the control ports followed by the wrapped op's ports. Control ports are
// named by CtrlSpec.PortNamesFor, so an op that already has a ctrl port,
// including another ControlledOp, gets ctrl_1.
type ControlledOp struct {
	sub   circuit.Op
	spec  CtrlSpec
	ctrls []string
	sig   ir.Signature
}

// NewControlledOp wraps sub.
func NewControlledOp(sub circuit.Op, spec CtrlSpec) (*ControlledOp, error) {
	ctrls := spec.PortNamesFor(sub.Signature())
	sig, err := controlledSignature(sub.Signature(), spec, ctrls)
	if err != nil {
		return nil, &circuit.Error{
			Kind:    circuit.KindDuplicatePortName,
			Op:      circuit.Name(sub),
			Message: "control ports collide with operation ports",
			Cause:   err,
		}
	}
	return &ControlledOp{sub: sub, spec: spec, ctrls: ctrls, sig: sig}, nil
}

func controlledSignature(sig ir.Signature, spec CtrlSpec, ctrls []string) (ir.Signature, error) {
	return ir.NewSignature(append(spec.ports(ctrls), sig.Ports()...)...)
}

// Sub returns the wrapped op.
func (c *ControlledOp) Sub() circuit.Op { return c.sub }

// Spec returns the control specification.
func (c *ControlledOp) Spec() CtrlSpec { return c.spec }

// CtrlPorts returns the control port names in CtrlSpec order.
func (c *ControlledOp) CtrlPorts() []string { return append([]string(nil), c.ctrls...) }

func (c *ControlledOp) Kind() string { return "Controlled" }

func (c *ControlledOp) Params() ir.IRObject {
	return ir.IRObject{
		"of":   ir.IRString(circuit.Key(c.sub)),
		"ctrl": c.spec.Params(),
	}
}

func (c *ControlledOp) Signature() ir.Signature { return c.sig }

// Adjoint controls the adjoint of the wrapped op.
func (c *ControlledOp) Adjoint() (circuit.Op, error) {
	adj, err := Adjoint(c.sub)
	if err != nil {
		return nil, err
	}
	return Controlled(adj, c.spec)
}

func (c *ControlledOp) Decompose(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
	if circuit.IgnoresControl(c.sub) {
		return passThrough(bb, c.sub, c.ctrls, in)
	}
	g, err := circuit.Decompose(c.sub)
	if err != nil {
		return nil, err
	}
	return controlReplay(bb, g, c.spec, c.ctrls, in)
}

// Callees controls each callee the wrapped op declares. Callees that ignore
// control are kept as they are. When the wrapped op declares nothing the
// decomposition is used.
func (c *ControlledOp) Callees() ([]cost.Callee, error) {
	cl, ok := c.sub.(cost.CalleeLister)
	if !ok {
		return nil, cost.ErrNoCallees
	}
	if circuit.IgnoresControl(c.sub) {
		return []cost.Callee{{Op: c.sub, Count: sym.Int(1)}}, nil
	}
	callees, err := cl.Callees()
	if err != nil {
		return nil, err
	}
	out := make([]cost.Callee, 0, len(callees))
	for _, callee := range callees {
		if circuit.IgnoresControl(callee.Op) {
			out = append(out, callee)
			continue
		}
		cs, err := ControlSystemFor(callee.Op, c.spec)
		if err != nil {
			return nil, err
		}
		out = append(out, cost.Callee{Op: cs.Op, Count: callee.Count})
	}
	return out, nil
}

func (c *ControlledOp) String() string {
	return fmt.Sprintf("%s(%s)", c.spec, circuit.Name(c.sub))
}

// ControlGraph replays g with one persistent control per register threaded
// through every instance in topological order. Instances that ignore control
// are copied unchanged. The result's signature is the control ports followed
// by g's ports, named as for a ControlledOp.
func ControlGraph(g *circuit.Graph, spec CtrlSpec) (*circuit.Graph, error) {
	ctrls := spec.PortNamesFor(g.Signature())
	sig, err := controlledSignature(g.Signature(), spec, ctrls)
	if err != nil {
		return nil, &circuit.Error{Kind: circuit.KindDuplicatePortName, Message: "control ports collide with graph ports", Cause: err}
	}
	bb, in, err := circuit.FromSignature(sig)
	if err != nil {
		return nil, err
	}
	out, err := controlReplay(bb, g, spec, ctrls, in)
	if err != nil {
		return nil, err
	}
	return bb.Finalize(out)
}

// controlReplay threads the control wires named by names through g.
func controlReplay(bb *circuit.Builder, g *circuit.Graph, spec CtrlSpec, names []string, in circuit.Wiring) (circuit.Wiring, error) {
	ctrl := make([]circuit.Value, len(names))
	sub := maps.Clone(in)
	for i, name := range names {
		ctrl[i] = in[name]
		delete(sub, name)
	}

	out, err := g.Replay(bb, sub, func(bb *circuit.Builder, inst circuit.Instance, w circuit.Wiring) (circuit.Wiring, error) {
		if circuit.IgnoresControl(inst.Op) {
			return bb.Add(inst.Op, w)
		}
		cs, err := ControlSystemFor(inst.Op, spec)
		if err != nil {
			return nil, err
		}
		mapped := make(circuit.Wiring, len(w)+len(ctrl))
		for name, v := range w {
			mapped[cs.Port(name)] = v
		}
		for i, name := range cs.CtrlPorts {
			mapped[name] = ctrl[i]
		}
		res, err := bb.Add(cs.Op, mapped)
		if err != nil {
			return nil, err
		}
		for i, name := range cs.CtrlPorts {
			ctrl[i] = res[name]
		}
		back := make(circuit.Wiring, len(res))
		for _, p := range inst.Op.Signature().Rights() {
			back[p.Name] = res[cs.Port(p.Name)]
		}
		return back, nil
	})
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		out[name] = ctrl[i]
	}
	return out, nil
}

// passThrough applies op unconditionally and hands the controls back.
func passThrough(bb *circuit.Builder, op circuit.Op, names []string, in circuit.Wiring) (circuit.Wiring, error) {
	sub := maps.Clone(in)
	for _, name := range names {
		delete(sub, name)
	}
	out, err := bb.Add(op, sub)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		out[name] = in[name]
	}
	return out, nil
}

// CheckControlConsistency verifies that decompose(Controlled(op)) equals
// ControlGraph(decompose(op)) structurally. It returns nil for leaves, whose
// controlled versions are specialized and have nothing to compare, and for
// ops that ignore control.
func CheckControlConsistency(op circuit.Op, spec CtrlSpec) error {
	if circuit.IgnoresControl(op) {
		return nil
	}
	g, err := circuit.Decompose(op)
	if circuit.IsDecomposeNotImplemented(err) {
		return nil
	}
	if err != nil {
		return err
	}
	want, err := ControlGraph(g, spec)
	if err != nil {
		return err
	}
	cop, err := Controlled(op, spec)
	if err != nil {
		return err
	}
	got, err := circuit.Decompose(cop)
	if err != nil {
		return err
	}
	if got.Key() != want.Key() {
		return &circuit.Error{
			Kind:    circuit.KindUnsupportedControl,
			Op:      circuit.Name(op),
			Message: fmt.Sprintf("controlled decomposition differs from control threading (%d vs %d instances)", got.NumInstances(), want.NumInstances()),
		}
	}
	return nil
}
