package verify

import (
	"strings"
)

// Bit is a classical basis value tracked for one wire bit.
type Bit uint8

const (
	Unknown Bit = iota
	Zero
	One
)

func (b Bit) String() string {
	switch b {
	case Zero:
		return "0"
	case One:
		return "1"
	}
	return "?"
}

// Known reports whether b is 0 or 1.
func (b Bit) Known() bool { return b != Unknown }

// State maps port names to the flattened bits carried by each port.
// Elements are laid out in row-major order, each element's bits contiguous.
type State map[string][]Bit

// Bits returns n copies of b.
func Bits(n int, b Bit) []Bit {
	out := make([]Bit, n)
	for i := range out {
		out[i] = b
	}
	return out
}

// Not flips a known bit.
func Not(a Bit) Bit {
	switch a {
	case Zero:
		return One
	case One:
		return Zero
	}
	return Unknown
}

// And is classical AND; a known zero wins over an unknown.
func And(a, b Bit) Bit {
	if a == Zero || b == Zero {
		return Zero
	}
	if a == One && b == One {
		return One
	}
	return Unknown
}

// Xor is classical XOR.
func Xor(a, b Bit) Bit {
	if !a.Known() || !b.Known() {
		return Unknown
	}
	if a == b {
		return Zero
	}
	return One
}

// AllZero reports whether every bit is a known zero.
func AllZero(bits []Bit) bool {
	for _, b := range bits {
		if b != Zero {
			return false
		}
	}
	return true
}

// Format renders bits as a string of 0, 1 and ?.
func Format(bits []Bit) string {
	var sb strings.Builder
	for _, b := range bits {
		sb.WriteString(b.String())
	}
	return sb.String()
}

// BasisMapper is implemented by ops whose action on computational basis
// states is known. ApplyBasis receives the bits of every LEFT port and
// returns the bits of every RIGHT port; returning false makes every output
// unknown.
type BasisMapper interface {
	ApplyBasis(in State) (State, bool)
}

// Releaser is implemented by ops that require some LEFT ports to be in the
// zero state, such as Free.
type Releaser interface {
	Releases() []string
}
