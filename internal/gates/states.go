package gates

import (
	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/verify"
)

// ZeroState prepares a fresh qubit in |0>. Preparing a known state needs no
// control, so it ignores control like Allocate.
type ZeroState struct{}

func (ZeroState) Kind() string         { return "ZeroState" }
func (ZeroState) Params() ir.IRObject  { return nil }
func (ZeroState) String() string       { return "ZeroState" }
func (ZeroState) IgnoresControl() bool { return true }

func (ZeroState) Signature() ir.Signature {
	return ir.MustSignature(ir.NewRightPort("q", ir.QBit{}))
}

func (ZeroState) LeafCost(m cost.Metric) (cost.Counts, bool) { return cost.ClassCost(m, cost.ClassFree) }

func (ZeroState) Adjoint() (circuit.Op, error) { return ZeroEffect{}, nil }

func (ZeroState) ApplyBasis(verify.State) (verify.State, bool) {
	return verify.State{"q": {verify.Zero}}, true
}

// ZeroEffect projects a qubit onto <0| and discards it.
type ZeroEffect struct{}

func (ZeroEffect) Kind() string         { return "ZeroEffect" }
func (ZeroEffect) Params() ir.IRObject  { return nil }
func (ZeroEffect) String() string       { return "ZeroEffect" }
func (ZeroEffect) IgnoresControl() bool { return true }

func (ZeroEffect) Signature() ir.Signature {
	return ir.MustSignature(ir.NewLeftPort("q", ir.QBit{}))
}

func (ZeroEffect) LeafCost(m cost.Metric) (cost.Counts, bool) { return cost.ClassCost(m, cost.ClassFree) }

func (ZeroEffect) Adjoint() (circuit.Op, error) { return ZeroState{}, nil }

func (ZeroEffect) ApplyBasis(verify.State) (verify.State, bool) { return verify.State{}, true }

// PlusState prepares a fresh qubit in |+>. It has no basis action.
type PlusState struct{}

func (PlusState) Kind() string        { return "PlusState" }
func (PlusState) Params() ir.IRObject { return nil }
func (PlusState) String() string      { return "PlusState" }

func (PlusState) Signature() ir.Signature {
	return ir.MustSignature(ir.NewRightPort("q", ir.QBit{}))
}

func (PlusState) LeafCost(m cost.Metric) (cost.Counts, bool) {
	return cost.ClassCost(m, cost.ClassClifford)
}

func (PlusState) Adjoint() (circuit.Op, error) { return PlusEffect{}, nil }

// PlusEffect projects a qubit onto <+| and discards it.
type PlusEffect struct{}

func (PlusEffect) Kind() string        { return "PlusEffect" }
func (PlusEffect) Params() ir.IRObject { return nil }
func (PlusEffect) String() string      { return "PlusEffect" }

func (PlusEffect) Signature() ir.Signature {
	return ir.MustSignature(ir.NewLeftPort("q", ir.QBit{}))
}

func (PlusEffect) LeafCost(m cost.Metric) (cost.Counts, bool) {
	return cost.ClassCost(m, cost.ClassClifford)
}

func (PlusEffect) Adjoint() (circuit.Op, error) { return PlusState{}, nil }

func (PlusEffect) ApplyBasis(verify.State) (verify.State, bool) { return verify.State{}, true }

// Measure reads a qubit in the computational basis into a classical bit.
// It has no adjoint.
type Measure struct{}

func (Measure) Kind() string        { return "Measure" }
func (Measure) Params() ir.IRObject { return nil }
func (Measure) String() string      { return "Measure" }

func (Measure) Signature() ir.Signature {
	return ir.MustSignature(ir.NewLeftPort("q", ir.QBit{}), ir.NewRightPort("c", ir.CBit{}))
}

func (Measure) LeafCost(m cost.Metric) (cost.Counts, bool) {
	return cost.ClassCost(m, cost.ClassMeasurement)
}

func (Measure) ApplyBasis(in verify.State) (verify.State, bool) {
	q := in["q"]
	if len(q) != 1 {
		return nil, false
	}
	return verify.State{"c": q}, true
}
