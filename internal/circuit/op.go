package circuit

import (
	"fmt"

	"github.com/roach88/qwire/internal/ir"
)

// Op is a quantum operation. Implementations must be immutable: Kind,
// Params and Signature return the same values for the lifetime of the op.
//
// Identity is structural. Two ops with the same Kind and canonical Params are
// the same operation for hashing, caching and graph equality.
type Op interface {
	// Kind names the operation type, e.g. "Split" or "Toffoli".
	Kind() string
	// Params are the constructor parameters that, together with Kind,
	// determine the op completely.
	Params() ir.IRObject
	Signature() ir.Signature
}

// Decomposer is implemented by ops defined in terms of other ops. Decompose
// receives a builder bound to the op's signature and the wiring of its LEFT
// ports, and returns the wiring for its RIGHT ports.
type Decomposer interface {
	Decompose(bb *Builder, in Wiring) (Wiring, error)
}

// ControlIgnorer is implemented by ops whose controlled version is the op
// itself applied unconditionally. Bookkeeping ops and Always report true.
type ControlIgnorer interface {
	IgnoresControl() bool
}

// Bookkeeper marks ops that only re-label, allocate or release wires.
type Bookkeeper interface {
	Bookkeeping() bool
}

type keyer interface {
	Key() string
}

// Key returns the structural identity of op.
// It panics if op's Params contain values that cannot be canonicalised.
func Key(op Op) string {
	if k, ok := op.(keyer); ok {
		return k.Key()
	}
	return ir.MustOperationKey(op.Kind(), op.Params())
}

// Equal reports whether a and b are structurally the same op.
func Equal(a, b Op) bool {
	return Key(a) == Key(b)
}

// Name returns a human-readable label for op.
func Name(op Op) string {
	if s, ok := op.(fmt.Stringer); ok {
		return s.String()
	}
	return op.Kind()
}

// IgnoresControl reports whether op opts out of control.
func IgnoresControl(op Op) bool {
	ci, ok := op.(ControlIgnorer)
	return ok && ci.IgnoresControl()
}

// IsBookkeeping reports whether op is a bookkeeping op.
func IsBookkeeping(op Op) bool {
	b, ok := op.(Bookkeeper)
	return ok && b.Bookkeeping()
}

// IsDecomposable reports whether op declares a decomposition.
func IsDecomposable(op Op) bool {
	_, ok := op.(Decomposer)
	return ok
}
