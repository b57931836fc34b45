package circuit

import (
	"fmt"
	"slices"
)

// WireID indexes an entry in a builder's wire arena.
type WireID int

// Value is an n-dimensional array of wire handles held by a builder.
// Indexing, slicing and stacking only re-package handles; they never
// duplicate a wire. A Value is tied to the builder that produced it. The
// zero Value holds nothing.
type Value struct {
	owner uint64
	shape []int
	ids   []WireID
}

// Wiring maps port names to values.
type Wiring map[string]Value

func newValue(owner uint64, shape []int, ids []WireID) Value {
	return Value{owner: owner, shape: slices.Clone(shape), ids: ids}
}

// IsZero reports whether v holds no wires.
func (v Value) IsZero() bool { return v.ids == nil }

// Shape returns the array shape; nil for a scalar.
func (v Value) Shape() []int { return slices.Clone(v.shape) }

// IsScalar reports whether v is a single wire.
func (v Value) IsScalar() bool { return len(v.shape) == 0 && len(v.ids) == 1 }

// Size is the number of wires in v.
func (v Value) Size() int { return len(v.ids) }

// Len is the length of the leading axis, or 0 for a scalar.
func (v Value) Len() int {
	if len(v.shape) == 0 {
		return 0
	}
	return v.shape[0]
}

// Wires returns the handles in row-major order.
func (v Value) Wires() []WireID { return slices.Clone(v.ids) }

// At indexes the leading axes. It panics when an index is out of range,
// like a slice index.
func (v Value) At(idx ...int) Value {
	if len(idx) > len(v.shape) {
		panic(fmt.Sprintf("circuit: %d indices into value of rank %d", len(idx), len(v.shape)))
	}
	off, stride := 0, len(v.ids)
	for i, x := range idx {
		if x < 0 || x >= v.shape[i] {
			panic(fmt.Sprintf("circuit: index %d out of range [0,%d)", x, v.shape[i]))
		}
		stride /= v.shape[i]
		off += x * stride
	}
	return Value{owner: v.owner, shape: slices.Clone(v.shape[len(idx):]), ids: v.ids[off : off+stride : off+stride]}
}

// Slice takes elements [lo, hi) of the leading axis.
func (v Value) Slice(lo, hi int) Value {
	if len(v.shape) == 0 {
		panic("circuit: slice of scalar value")
	}
	if lo < 0 || hi > v.shape[0] || lo > hi {
		panic(fmt.Sprintf("circuit: slice [%d:%d] out of range [0,%d]", lo, hi, v.shape[0]))
	}
	inner := 1
	for _, d := range v.shape[1:] {
		inner *= d
	}
	shape := slices.Clone(v.shape)
	shape[0] = hi - lo
	return Value{owner: v.owner, shape: shape, ids: slices.Clone(v.ids[lo*inner : hi*inner])}
}

// Flat returns the elements of the leading axis as separate values.
func (v Value) Flat() []Value {
	n := v.Len()
	out := make([]Value, n)
	for i := range n {
		out[i] = v.At(i)
	}
	return out
}

// Stack packs equally shaped values along a new leading axis.
func Stack(vals ...Value) (Value, error) {
	if len(vals) == 0 {
		return Value{}, &Error{Kind: KindTypeMismatch, Message: "stack of zero values"}
	}
	inner := vals[0].shape
	ids := make([]WireID, 0, len(vals)*len(vals[0].ids))
	for i, v := range vals {
		if v.IsZero() {
			return Value{}, &Error{Kind: KindMissingConnection, Message: fmt.Sprintf("stack element %d is empty", i)}
		}
		if v.owner != vals[0].owner {
			return Value{}, &Error{Kind: KindTypeMismatch, Message: fmt.Sprintf("stack element %d comes from another builder", i)}
		}
		if !slices.Equal(v.shape, inner) {
			return Value{}, &Error{
				Kind:    KindTypeMismatch,
				Message: fmt.Sprintf("stack element %d has shape %v, want %v", i, v.shape, inner),
			}
		}
		ids = append(ids, v.ids...)
	}
	shape := append([]int{len(vals)}, inner...)
	return Value{owner: vals[0].owner, shape: shape, ids: ids}, nil
}

func (v Value) String() string {
	if v.IsScalar() {
		return fmt.Sprintf("w%d", v.ids[0])
	}
	return fmt.Sprintf("wires%v%v", v.shape, v.ids)
}
