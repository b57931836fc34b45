package transform

import (
	"fmt"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/ir"
)

// Adjointer is implemented by ops with a specialized adjoint.
type Adjointer interface {
	Adjoint() (circuit.Op, error)
}

// Adjoint returns the inverse of op. A specialized Adjointer wins; otherwise
// a decomposable op, or one that declares its callees, is wrapped in an
// AdjointOp whose decomposition is the reversed decomposition of op.
func Adjoint(op circuit.Op) (circuit.Op, error) {
	if a, ok := op.(Adjointer); ok {
		return a.Adjoint()
	}
	if circuit.IsDecomposable(op) || declaresCallees(op) {
		return &AdjointOp{sub: op}, nil
	}
	return nil, &circuit.Error{
		Kind:    circuit.KindUnsupportedAdjoint,
		Op:      circuit.Name(op),
		Message: "leaf operation has no specialized adjoint",
	}
}

// MustAdjoint is like Adjoint but panics on error.
func MustAdjoint(op circuit.Op) circuit.Op {
	adj, err := Adjoint(op)
	if err != nil {
		panic(err)
	}
	return adj
}

// AdjointOp is the generic adjoint of a decomposable op.
type AdjointOp struct {
	sub circuit.Op
}

// Sub returns the op being inverted.
func (a *AdjointOp) Sub() circuit.Op { return a.sub }

func (a *AdjointOp) Kind() string { return "Adjoint" }

func (a *AdjointOp) Params() ir.IRObject {
	return ir.IRObject{"of": ir.IRString(circuit.Key(a.sub))}
}

func (a *AdjointOp) Signature() ir.Signature { return a.sub.Signature().Adjoint() }

// Adjoint returns the original op, so Adjoint(Adjoint(op)) is op.
func (a *AdjointOp) Adjoint() (circuit.Op, error) { return a.sub, nil }

// IgnoresControl follows the wrapped op.
func (a *AdjointOp) IgnoresControl() bool { return circuit.IgnoresControl(a.sub) }

// Bookkeeping follows the wrapped op.
func (a *AdjointOp) Bookkeeping() bool { return circuit.IsBookkeeping(a.sub) }

func (a *AdjointOp) Decompose(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
	g, err := circuit.Decompose(a.sub)
	if err != nil {
		return nil, err
	}
	return g.ReplayReverse(bb, in, addAdjoint)
}

// Callees inverts each callee the wrapped op declares. When the wrapped op
// declares nothing the decomposition is used.
func (a *AdjointOp) Callees() ([]cost.Callee, error) {
	cl, ok := a.sub.(cost.CalleeLister)
	if !ok {
		return nil, cost.ErrNoCallees
	}
	callees, err := cl.Callees()
	if err != nil {
		return nil, err
	}
	out := make([]cost.Callee, 0, len(callees))
	for _, c := range callees {
		adj, err := Adjoint(c.Op)
		if err != nil {
			return nil, err
		}
		out = append(out, cost.Callee{Op: adj, Count: c.Count})
	}
	return out, nil
}

func (a *AdjointOp) String() string {
	return fmt.Sprintf("%s^dag", circuit.Name(a.sub))
}

// AdjointGraph reverses g: instances are visited in reverse topological
// order, each replaced by its adjoint, and LEFT and RIGHT are swapped.
func AdjointGraph(g *circuit.Graph) (*circuit.Graph, error) {
	bb, in, err := circuit.FromSignature(g.Signature().Adjoint())
	if err != nil {
		return nil, err
	}
	out, err := g.ReplayReverse(bb, in, addAdjoint)
	if err != nil {
		return nil, err
	}
	return bb.Finalize(out)
}

func addAdjoint(bb *circuit.Builder, inst circuit.Instance, in circuit.Wiring) (circuit.Wiring, error) {
	adj, err := Adjoint(inst.Op)
	if err != nil {
		return nil, err
	}
	return bb.Add(adj, in)
}

func declaresCallees(op circuit.Op) bool {
	_, ok := op.(cost.CalleeLister)
	return ok
}
