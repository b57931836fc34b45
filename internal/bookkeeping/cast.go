package bookkeeping

import (
	"fmt"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
	"github.com/roach88/qwire/internal/verify"
)

// Cast reinterprets a register as another type of the same width. Casts
// are built with NewCast, which enforces the width and quantum/classical
// rules.
type Cast struct {
	free
	from  ir.DType
	to    ir.DType
	allow bool
}

// NewCast checks that from and to have the same width and, unless
// allowQuantumClassical is set, are both quantum or both classical.
func NewCast(from, to ir.DType, allowQuantumClassical bool) (Cast, error) {
	if from == nil || to == nil {
		return Cast{}, &circuit.Error{Kind: circuit.KindTypeMismatch, Op: "Cast", Message: "cast needs both dtypes"}
	}
	if !sym.Equal(from.BitSize(), to.BitSize()) {
		return Cast{}, &circuit.Error{
			Kind:    circuit.KindTypeMismatch,
			Op:      "Cast",
			Message: fmt.Sprintf("cannot cast %s to %s: widths differ", from, to),
		}
	}
	if from.IsQuantum() != to.IsQuantum() && !allowQuantumClassical {
		return Cast{}, &circuit.Error{
			Kind:    circuit.KindTypeMismatch,
			Op:      "Cast",
			Message: fmt.Sprintf("cannot cast %s to %s between quantum and classical", from, to),
		}
	}
	return Cast{from: from, to: to, allow: allowQuantumClassical}, nil
}

// From is the input type.
func (c Cast) From() ir.DType { return c.from }

// To is the output type.
func (c Cast) To() ir.DType { return c.to }

// AllowsQuantumClassical reports whether the cast was authorized to cross
// between quantum and classical types.
func (c Cast) AllowsQuantumClassical() bool { return c.allow }

func (c Cast) Kind() string { return "Cast" }

func (c Cast) Params() ir.IRObject {
	return ir.IRObject{
		"from":                    ir.IRString(c.from.String()),
		"to":                      ir.IRString(c.to.String()),
		"allow_quantum_classical": ir.IRBool(c.allow),
	}
}

func (c Cast) Signature() ir.Signature {
	return ir.MustSignature(ir.NewLeftPort("reg", c.from), ir.NewRightPort("reg", c.to))
}

// Adjoint casts back under the same authorization.
func (c Cast) Adjoint() (circuit.Op, error) {
	return NewCast(c.to, c.from, c.allow)
}

func (c Cast) ApplyBasis(in verify.State) (verify.State, bool) {
	bits := in["reg"]
	return verify.State{"reg": bits}, bits != nil
}

func (c Cast) String() string { return fmt.Sprintf("Cast(%s -> %s)", c.from, c.to) }
