package bookkeeping

import (
	"fmt"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
	"github.com/roach88/qwire/internal/verify"
)

// Split breaks a register into an array of its bits.
type Split struct {
	free
	DType ir.DType
}

// NewSplit splits a register of type dt.
func NewSplit(dt ir.DType) Split { return Split{DType: dt} }

func (s Split) Kind() string { return "Split" }

func (s Split) Params() ir.IRObject {
	return ir.IRObject{"dtype": ir.IRString(s.DType.String())}
}

func (s Split) Signature() ir.Signature {
	return ir.MustSignature(ir.NewLeftPort("reg", s.DType), bitsPort(s.DType, ir.SideRight))
}

// Adjoint joins the bits back.
func (s Split) Adjoint() (circuit.Op, error) { return Join{DType: s.DType}, nil }

func (s Split) ApplyBasis(in verify.State) (verify.State, bool) {
	bits := in["reg"]
	return verify.State{"reg": bits}, bits != nil
}

func (s Split) String() string { return fmt.Sprintf("Split(%s)", s.DType) }

// Join assembles an array of bits into a register.
type Join struct {
	free
	DType ir.DType
}

// NewJoin joins bits into a register of type dt.
func NewJoin(dt ir.DType) Join { return Join{DType: dt} }

func (j Join) Kind() string { return "Join" }

func (j Join) Params() ir.IRObject {
	return ir.IRObject{"dtype": ir.IRString(j.DType.String())}
}

func (j Join) Signature() ir.Signature {
	return ir.MustSignature(bitsPort(j.DType, ir.SideLeft), ir.NewRightPort("reg", j.DType))
}

// Adjoint splits the register again.
func (j Join) Adjoint() (circuit.Op, error) { return Split{DType: j.DType}, nil }

func (j Join) ApplyBasis(in verify.State) (verify.State, bool) {
	bits := in["reg"]
	return verify.State{"reg": bits}, bits != nil
}

func (j Join) String() string { return fmt.Sprintf("Join(%s)", j.DType) }

// bitsPort is the one-bit-per-element view of dt.
func bitsPort(dt ir.DType, side ir.Side) ir.Port {
	return ir.Port{
		Name:  "reg",
		DType: dt.Unit(),
		Shape: []sym.Expr{dt.BitSize()},
		Side:  side,
	}
}
