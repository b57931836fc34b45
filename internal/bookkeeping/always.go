package bookkeeping

import (
	"fmt"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
	"github.com/roach88/qwire/internal/transform"
)

// Always marks Sub as applied unconditionally: controlling an Always is the
// same as applying it uncontrolled. Typical uses are compute and uncompute
// halves of a construction whose middle is the only part that needs
// control.
//
// The annotation is the author's claim and is not checked. Use
// transform.CheckControlConsistency on the enclosing op to compare the
// controlled decomposition against plain control threading.
type Always struct {
	Sub circuit.Op
}

// NewAlways wraps sub.
func NewAlways(sub circuit.Op) Always { return Always{Sub: sub} }

func (a Always) Kind() string { return "Always" }

func (a Always) Params() ir.IRObject {
	return ir.IRObject{"of": ir.IRString(circuit.Key(a.Sub))}
}

func (a Always) Signature() ir.Signature { return a.Sub.Signature() }

func (a Always) IgnoresControl() bool { return true }

func (a Always) Decompose(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
	return bb.Add(a.Sub, in)
}

// Callees forwards the cost to Sub, including when Sub has symbolic shapes
// that prevent building the decomposition.
func (a Always) Callees() ([]cost.Callee, error) {
	return []cost.Callee{{Op: a.Sub, Count: sym.Int(1)}}, nil
}

// Adjoint keeps the annotation on the inverted op.
func (a Always) Adjoint() (circuit.Op, error) {
	adj, err := transform.Adjoint(a.Sub)
	if err != nil {
		return nil, err
	}
	return Always{Sub: adj}, nil
}

func (a Always) String() string { return fmt.Sprintf("Always(%s)", circuit.Name(a.Sub)) }
