package ir

import (
	"slices"
	"strings"

	"github.com/roach88/qwire/internal/sym"
)

// Signature is an ordered list of ports. No two ports on the same side share
// a name; a THRU port occupies both sides.
type Signature struct {
	ports []Port
}

// NewSignature validates ports and returns the signature.
func NewSignature(ports ...Port) (Signature, error) {
	lefts := map[string]bool{}
	rights := map[string]bool{}
	for _, p := range ports {
		if p.Name == "" {
			return Signature{}, &PortError{Message: "port name must not be empty"}
		}
		if p.DType == nil {
			return Signature{}, &PortError{Port: p.Name, Message: "port has no dtype"}
		}
		if p.Side&SideThru == 0 || p.Side&^SideThru != 0 {
			return Signature{}, &PortError{Port: p.Name, Message: "invalid side " + p.Side.String()}
		}
		if p.IsLeft() {
			if lefts[p.Name] {
				return Signature{}, &PortError{Port: p.Name, Side: SideLeft, Duplicate: true, Message: "duplicate left port"}
			}
			lefts[p.Name] = true
		}
		if p.IsRight() {
			if rights[p.Name] {
				return Signature{}, &PortError{Port: p.Name, Side: SideRight, Duplicate: true, Message: "duplicate right port"}
			}
			rights[p.Name] = true
		}
	}
	return Signature{ports: slices.Clone(ports)}, nil
}

// MustSignature is like NewSignature but panics on error.
// Use for operations whose ports are fixed by construction.
func MustSignature(ports ...Port) Signature {
	sig, err := NewSignature(ports...)
	if err != nil {
		panic(err)
	}
	return sig
}

// Ports returns the ports in declaration order.
func (s Signature) Ports() []Port { return slices.Clone(s.ports) }

// Len is the number of declared ports.
func (s Signature) Len() int { return len(s.ports) }

// Lefts returns the consumed ports (LEFT and THRU) in declaration order.
func (s Signature) Lefts() []Port {
	var out []Port
	for _, p := range s.ports {
		if p.IsLeft() {
			out = append(out, p)
		}
	}
	return out
}

// Rights returns the produced ports (RIGHT and THRU) in declaration order.
func (s Signature) Rights() []Port {
	var out []Port
	for _, p := range s.ports {
		if p.IsRight() {
			out = append(out, p)
		}
	}
	return out
}

// Left looks up a consumed port by name.
func (s Signature) Left(name string) (Port, bool) {
	for _, p := range s.ports {
		if p.IsLeft() && p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Right looks up a produced port by name.
func (s Signature) Right(name string) (Port, bool) {
	for _, p := range s.ports {
		if p.IsRight() && p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// LeftBits is the total input width.
func (s Signature) LeftBits() sym.Expr { return sumBits(s.Lefts(), false) }

// RightBits is the total output width.
func (s Signature) RightBits() sym.Expr { return sumBits(s.Rights(), false) }

// LeftQubits is the input width counting quantum ports only.
func (s Signature) LeftQubits() sym.Expr { return sumBits(s.Lefts(), true) }

// RightQubits is the output width counting quantum ports only.
func (s Signature) RightQubits() sym.Expr { return sumBits(s.Rights(), true) }

func sumBits(ports []Port, quantumOnly bool) sym.Expr {
	terms := make([]sym.Expr, 0, len(ports))
	for _, p := range ports {
		if quantumOnly && !p.DType.IsQuantum() {
			continue
		}
		terms = append(terms, p.BitSize())
	}
	return sym.Add(terms...)
}

// Adjoint swaps LEFT and RIGHT on every port.
func (s Signature) Adjoint() Signature {
	out := make([]Port, len(s.ports))
	for i, p := range s.ports {
		out[i] = p.Adjoint()
	}
	return Signature{ports: out}
}

// Equal compares the consumed and produced port sets, ignoring order.
// A THRU port equals a LEFT/RIGHT pair with the same name, dtype and shape.
func (s Signature) Equal(o Signature) bool {
	return slices.Equal(portKeys(s.Lefts()), portKeys(o.Lefts())) &&
		slices.Equal(portKeys(s.Rights()), portKeys(o.Rights()))
}

func portKeys(ports []Port) []string {
	keys := make([]string, len(ports))
	for i, p := range ports {
		keys[i] = p.Key()
	}
	slices.Sort(keys)
	return keys
}

// Object returns the canonical description of s.
func (s Signature) Object() IRObject {
	arr := make(IRArray, len(s.ports))
	for i, p := range s.ports {
		arr[i] = p.Object()
	}
	return IRObject{"ports": arr}
}

func (s Signature) String() string {
	parts := make([]string, len(s.ports))
	for i, p := range s.ports {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
