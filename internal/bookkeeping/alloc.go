package bookkeeping

import (
	"fmt"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/verify"
)

// free is embedded by every bookkeeping op: zero cost under every metric,
// no reaction to control.
type free struct{}

func (free) LeafCost(cost.Metric) (cost.Counts, bool) { return cost.Zero(), true }
func (free) IgnoresControl() bool                     { return true }
func (free) Bookkeeping() bool                        { return true }

// Allocate produces a fresh register in the zero state. A dirty allocation
// borrows a register in an unknown state.
type Allocate struct {
	free
	DType ir.DType
	Dirty bool
}

// NewAllocate allocates a clean register of type dt.
func NewAllocate(dt ir.DType) Allocate { return Allocate{DType: dt} }

func (a Allocate) Kind() string { return "Allocate" }

func (a Allocate) Params() ir.IRObject {
	return ir.IRObject{"dtype": ir.IRString(a.DType.String()), "dirty": ir.IRBool(a.Dirty)}
}

func (a Allocate) Signature() ir.Signature {
	return ir.MustSignature(ir.NewRightPort("reg", a.DType))
}

// Adjoint releases the register.
func (a Allocate) Adjoint() (circuit.Op, error) {
	return Free{DType: a.DType, Dirty: a.Dirty}, nil
}

func (a Allocate) ApplyBasis(verify.State) (verify.State, bool) {
	bits, ok := ir.ConcreteBits(a.DType)
	if !ok || a.Dirty {
		return nil, false
	}
	return verify.State{"reg": verify.Bits(bits, verify.Zero)}, true
}

func (a Allocate) String() string {
	if a.Dirty {
		return fmt.Sprintf("Allocate(%s, dirty)", a.DType)
	}
	return fmt.Sprintf("Allocate(%s)", a.DType)
}

// Free releases a register. A clean register must be returned in the zero
// state; verify checks this, the builder does not.
type Free struct {
	free
	DType ir.DType
	Dirty bool
}

// NewFree releases a clean register of type dt.
func NewFree(dt ir.DType) Free { return Free{DType: dt} }

func (f Free) Kind() string { return "Free" }

func (f Free) Params() ir.IRObject {
	return ir.IRObject{"dtype": ir.IRString(f.DType.String()), "dirty": ir.IRBool(f.Dirty)}
}

func (f Free) Signature() ir.Signature {
	return ir.MustSignature(ir.NewLeftPort("reg", f.DType))
}

// Adjoint allocates the register.
func (f Free) Adjoint() (circuit.Op, error) {
	return Allocate{DType: f.DType, Dirty: f.Dirty}, nil
}

// Releases lists the ports that must be zero. Dirty registers are exempt.
func (f Free) Releases() []string {
	if f.Dirty {
		return nil
	}
	return []string{"reg"}
}

func (f Free) ApplyBasis(verify.State) (verify.State, bool) {
	return verify.State{}, true
}

func (f Free) String() string {
	if f.Dirty {
		return fmt.Sprintf("Free(%s, dirty)", f.DType)
	}
	return fmt.Sprintf("Free(%s)", f.DType)
}
