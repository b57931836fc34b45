package ir

import (
	"fmt"
	"strings"

	"github.com/roach88/qwire/internal/sym"
)

// Side says whether a port is consumed, produced, or both.
type Side uint8

const (
	SideLeft Side = 1 << iota
	SideRight
	SideThru = SideLeft | SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideThru:
		return "thru"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// ParseSide parses "left", "right" or "thru". The empty string means thru.
func ParseSide(s string) (Side, error) {
	switch s {
	case "", "thru":
		return SideThru, nil
	case "left":
		return SideLeft, nil
	case "right":
		return SideRight, nil
	}
	return 0, fmt.Errorf("invalid side %q", s)
}

// Port is a named, typed, shaped connection point of an operation.
// An empty shape is a scalar.
type Port struct {
	Name  string
	DType DType
	Shape []sym.Expr
	Side  Side
}

// NewPort returns a THRU port with a concrete shape.
func NewPort(name string, dt DType, shape ...int) Port {
	return Port{Name: name, DType: dt, Shape: intShape(shape), Side: SideThru}
}

// NewLeftPort returns a port that is only consumed.
func NewLeftPort(name string, dt DType, shape ...int) Port {
	return Port{Name: name, DType: dt, Shape: intShape(shape), Side: SideLeft}
}

// NewRightPort returns a port that is only produced.
func NewRightPort(name string, dt DType, shape ...int) Port {
	return Port{Name: name, DType: dt, Shape: intShape(shape), Side: SideRight}
}

// WithSide returns a copy of p on side s.
func (p Port) WithSide(s Side) Port {
	p.Side = s
	return p
}

// Adjoint swaps LEFT and RIGHT; THRU ports are unchanged.
func (p Port) Adjoint() Port {
	switch p.Side {
	case SideLeft:
		p.Side = SideRight
	case SideRight:
		p.Side = SideLeft
	}
	return p
}

// IsLeft reports whether the port is consumed.
func (p Port) IsLeft() bool { return p.Side&SideLeft != 0 }

// IsRight reports whether the port is produced.
func (p Port) IsRight() bool { return p.Side&SideRight != 0 }

// ShapeInts returns the shape as ints when every dimension is concrete.
func (p Port) ShapeInts() ([]int, bool) {
	out := make([]int, len(p.Shape))
	for i, d := range p.Shape {
		v, ok := sym.Value(d)
		if !ok || v < 0 {
			return nil, false
		}
		out[i] = int(v)
	}
	return out, true
}

// Elements is the number of elements in the port, possibly symbolic.
func (p Port) Elements() sym.Expr {
	return sym.Mul(p.Shape...)
}

// BitSize is the total width of the port: dtype bits times elements.
func (p Port) BitSize() sym.Expr {
	return sym.Mul(append([]sym.Expr{p.DType.BitSize()}, p.Shape...)...)
}

// Key identifies the port's name, dtype and shape, ignoring side.
func (p Port) Key() string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteByte(':')
	b.WriteString(p.DType.String())
	for _, d := range p.Shape {
		b.WriteByte('[')
		b.WriteString(exprString(d))
		b.WriteByte(']')
	}
	return b.String()
}

func (p Port) String() string {
	return p.Key() + " (" + p.Side.String() + ")"
}

// Object returns the canonical description of p.
func (p Port) Object() IRObject {
	return IRObject{
		"name":  IRString(p.Name),
		"dtype": IRString(p.DType.String()),
		"shape": ExprArray(p.Shape),
		"side":  IRString(p.Side.String()),
	}
}

func intShape(shape []int) []sym.Expr {
	if len(shape) == 0 {
		return nil
	}
	out := make([]sym.Expr, len(shape))
	for i, d := range shape {
		out[i] = sym.Int(d)
	}
	return out
}
