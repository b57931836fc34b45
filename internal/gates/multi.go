package gates

import (
	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/transform"
	"github.com/roach88/qwire/internal/verify"
)

// CNOT flips target when ctrl is 1.
type CNOT struct{}

func (CNOT) Kind() string        { return "CNOT" }
func (CNOT) Params() ir.IRObject { return nil }
func (CNOT) String() string      { return "CNOT" }

func (CNOT) Signature() ir.Signature {
	return ir.MustSignature(ir.NewPort("ctrl", ir.QBit{}), ir.NewPort("target", ir.QBit{}))
}

func (CNOT) LeafCost(m cost.Metric) (cost.Counts, bool) {
	return cost.ClassCost(m, cost.ClassClifford)
}

func (CNOT) Adjoint() (circuit.Op, error) { return CNOT{}, nil }

// ControlledBy maps a controlled CNOT to Toffoli. The new control is ctrl1
// and the existing one becomes ctrl2.
func (CNOT) ControlledBy(spec transform.CtrlSpec) (transform.ControlSystem, bool) {
	if !spec.IsDefault() {
		return transform.ControlSystem{}, false
	}
	return transform.ControlSystem{
		Op:        Toffoli{},
		CtrlPorts: []string{"ctrl1"},
		PortMap:   map[string]string{"ctrl": "ctrl2"},
	}, true
}

func (CNOT) ApplyBasis(in verify.State) (verify.State, bool) {
	c, t := in["ctrl"], in["target"]
	if len(c) != 1 || len(t) != 1 {
		return nil, false
	}
	return verify.State{
		"ctrl":   c,
		"target": {verify.Xor(t[0], c[0])},
	}, true
}

// CZ applies a phase when both qubits are 1.
type CZ struct{}

func (CZ) Kind() string        { return "CZ" }
func (CZ) Params() ir.IRObject { return nil }
func (CZ) String() string      { return "CZ" }

func (CZ) Signature() ir.Signature {
	return ir.MustSignature(ir.NewPort("q1", ir.QBit{}), ir.NewPort("q2", ir.QBit{}))
}

func (CZ) LeafCost(m cost.Metric) (cost.Counts, bool) {
	return cost.ClassCost(m, cost.ClassClifford)
}

func (CZ) Adjoint() (circuit.Op, error) { return CZ{}, nil }

func (CZ) ApplyBasis(in verify.State) (verify.State, bool) {
	a, b := in["q1"], in["q2"]
	if len(a) != 1 || len(b) != 1 {
		return nil, false
	}
	return verify.State{"q1": a, "q2": b}, true
}

// Toffoli flips target when both controls are 1.
type Toffoli struct{}

func (Toffoli) Kind() string        { return "Toffoli" }
func (Toffoli) Params() ir.IRObject { return nil }
func (Toffoli) String() string      { return "Toffoli" }

func (Toffoli) Signature() ir.Signature {
	return ir.MustSignature(
		ir.NewPort("ctrl1", ir.QBit{}),
		ir.NewPort("ctrl2", ir.QBit{}),
		ir.NewPort("target", ir.QBit{}),
	)
}

func (Toffoli) LeafCost(m cost.Metric) (cost.Counts, bool) {
	return cost.ClassCost(m, cost.ClassToffoli)
}

func (Toffoli) Adjoint() (circuit.Op, error) { return Toffoli{}, nil }

func (Toffoli) ApplyBasis(in verify.State) (verify.State, bool) {
	c1, c2, t := in["ctrl1"], in["ctrl2"], in["target"]
	if len(c1) != 1 || len(c2) != 1 || len(t) != 1 {
		return nil, false
	}
	return verify.State{
		"ctrl1":  c1,
		"ctrl2":  c2,
		"target": {verify.Xor(t[0], verify.And(c1[0], c2[0]))},
	}, true
}
