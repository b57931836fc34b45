package gates

import (
	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/transform"
	"github.com/roach88/qwire/internal/verify"
)

func qubitSig() ir.Signature { return ir.MustSignature(ir.NewPort("q", ir.QBit{})) }

// X is the Pauli X (NOT) gate.
type X struct{}

func (X) Kind() string            { return "X" }
func (X) Params() ir.IRObject     { return nil }
func (X) Signature() ir.Signature { return qubitSig() }
func (X) String() string          { return "X" }

func (X) LeafCost(m cost.Metric) (cost.Counts, bool) { return cost.ClassCost(m, cost.ClassClifford) }

func (X) Adjoint() (circuit.Op, error) { return X{}, nil }

// ControlledBy maps a singly controlled X to CNOT.
func (X) ControlledBy(spec transform.CtrlSpec) (transform.ControlSystem, bool) {
	if !spec.IsDefault() {
		return transform.ControlSystem{}, false
	}
	return transform.ControlSystem{
		Op:        CNOT{},
		CtrlPorts: []string{"ctrl"},
		PortMap:   map[string]string{"q": "target"},
	}, true
}

func (X) ApplyBasis(in verify.State) (verify.State, bool) {
	q := in["q"]
	if len(q) != 1 {
		return nil, false
	}
	return verify.State{"q": {verify.Not(q[0])}}, true
}

// Z is the Pauli Z gate.
type Z struct{}

func (Z) Kind() string            { return "Z" }
func (Z) Params() ir.IRObject     { return nil }
func (Z) Signature() ir.Signature { return qubitSig() }
func (Z) String() string          { return "Z" }

func (Z) LeafCost(m cost.Metric) (cost.Counts, bool) { return cost.ClassCost(m, cost.ClassClifford) }

func (Z) Adjoint() (circuit.Op, error) { return Z{}, nil }

// ControlledBy maps a singly controlled Z to CZ.
func (Z) ControlledBy(spec transform.CtrlSpec) (transform.ControlSystem, bool) {
	if !spec.IsDefault() {
		return transform.ControlSystem{}, false
	}
	return transform.ControlSystem{
		Op:        CZ{},
		CtrlPorts: []string{"q1"},
		PortMap:   map[string]string{"q": "q2"},
	}, true
}

func (Z) ApplyBasis(in verify.State) (verify.State, bool) { return phase(in) }

// H is the Hadamard gate. It has no basis action: its output is never a
// basis state.
type H struct{}

func (H) Kind() string            { return "H" }
func (H) Params() ir.IRObject     { return nil }
func (H) Signature() ir.Signature { return qubitSig() }
func (H) String() string          { return "H" }

func (H) LeafCost(m cost.Metric) (cost.Counts, bool) { return cost.ClassCost(m, cost.ClassClifford) }

func (H) Adjoint() (circuit.Op, error) { return H{}, nil }

// S is the phase gate; Adj selects S^dag.
type S struct {
	Adj bool
}

func (S) Kind() string                   { return "S" }
func (s S) Params() ir.IRObject          { return ir.IRObject{"adjoint": ir.IRBool(s.Adj)} }
func (S) Signature() ir.Signature        { return qubitSig() }
func (s S) String() string               { return dagger("S", s.Adj) }
func (s S) Adjoint() (circuit.Op, error) { return S{Adj: !s.Adj}, nil }

func (S) LeafCost(m cost.Metric) (cost.Counts, bool) { return cost.ClassCost(m, cost.ClassClifford) }

func (S) ApplyBasis(in verify.State) (verify.State, bool) { return phase(in) }

// T is the pi/8 gate; Adj selects T^dag.
type T struct {
	Adj bool
}

func (T) Kind() string                   { return "T" }
func (t T) Params() ir.IRObject          { return ir.IRObject{"adjoint": ir.IRBool(t.Adj)} }
func (T) Signature() ir.Signature        { return qubitSig() }
func (t T) String() string               { return dagger("T", t.Adj) }
func (t T) Adjoint() (circuit.Op, error) { return T{Adj: !t.Adj}, nil }

func (T) LeafCost(m cost.Metric) (cost.Counts, bool) { return cost.ClassCost(m, cost.ClassT) }

func (T) ApplyBasis(in verify.State) (verify.State, bool) { return phase(in) }

// Rz is a Z rotation by a named angle. Angles are labels: the adjoint of
// Rz(theta) is Rz(theta)^dag.
type Rz struct {
	Angle string
	Adj   bool
}

func (Rz) Kind() string                   { return "Rz" }
func (Rz) Signature() ir.Signature        { return qubitSig() }
func (r Rz) String() string               { return dagger("Rz("+r.Angle+")", r.Adj) }
func (r Rz) Adjoint() (circuit.Op, error) { return Rz{Angle: r.Angle, Adj: !r.Adj}, nil }

func (r Rz) Params() ir.IRObject {
	return ir.IRObject{"angle": ir.IRString(r.Angle), "adjoint": ir.IRBool(r.Adj)}
}

func (Rz) LeafCost(m cost.Metric) (cost.Counts, bool) { return cost.ClassCost(m, cost.ClassRotation) }

func (Rz) ApplyBasis(in verify.State) (verify.State, bool) { return phase(in) }

// phase is the basis action of diagonal gates.
func phase(in verify.State) (verify.State, bool) {
	q := in["q"]
	if len(q) != 1 {
		return nil, false
	}
	return verify.State{"q": q}, true
}

func dagger(name string, adj bool) string {
	if adj {
		return name + "^dag"
	}
	return name
}
