package circuit

import (
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
)

// leaf is a minimal gate used by the package tests.
type leaf struct {
	name  string
	ports []ir.Port
}

func (l leaf) Kind() string            { return l.name }
func (l leaf) Params() ir.IRObject     { return nil }
func (l leaf) Signature() ir.Signature { return ir.MustSignature(l.ports...) }
func (l leaf) String() string          { return l.name }

var (
	hGate  = leaf{name: "H", ports: []ir.Port{ir.NewPort("q", ir.QBit{})}}
	cxGate = leaf{name: "CX", ports: []ir.Port{ir.NewPort("ctrl", ir.QBit{}), ir.NewPort("target", ir.QBit{})}}
	split4 = leaf{name: "Split4", ports: []ir.Port{
		ir.NewLeftPort("reg", ir.NewQUInt(4)),
		ir.NewRightPort("reg", ir.QBit{}, 4),
	}}
	join4 = leaf{name: "Join4", ports: []ir.Port{
		ir.NewLeftPort("reg", ir.QBit{}, 4),
		ir.NewRightPort("reg", ir.NewQUInt(4)),
	}}
	alloc = leaf{name: "Alloc", ports: []ir.Port{ir.NewRightPort("reg", ir.QBit{})}}
	symOp = leaf{name: "Sym", ports: []ir.Port{{
		Name: "x", DType: ir.QBit{}, Shape: []sym.Expr{sym.Symbol("n")}, Side: ir.SideThru,
	}}}
)

// bell is H on a followed by CX(a, b).
type bell struct{}

func (bell) Kind() string        { return "Bell" }
func (bell) Params() ir.IRObject { return nil }
func (bell) Signature() ir.Signature {
	return ir.MustSignature(ir.NewPort("a", ir.QBit{}), ir.NewPort("b", ir.QBit{}))
}

func (bell) Decompose(bb *Builder, in Wiring) (Wiring, error) {
	h, err := bb.Add(hGate, Wiring{"q": in["a"]})
	if err != nil {
		return nil, err
	}
	cx, err := bb.Add(cxGate, Wiring{"ctrl": h["q"], "target": in["b"]})
	if err != nil {
		return nil, err
	}
	return Wiring{"a": cx["ctrl"], "b": cx["target"]}, nil
}

// leaky forgets to return one of its wires.
type leaky struct{}

func (leaky) Kind() string            { return "Leaky" }
func (leaky) Params() ir.IRObject     { return nil }
func (leaky) Signature() ir.Signature { return ir.MustSignature(ir.NewPort("q", ir.QBit{})) }

func (leaky) Decompose(bb *Builder, in Wiring) (Wiring, error) {
	if _, err := bb.Add(alloc, Wiring{}); err != nil {
		return nil, err
	}
	return in, nil
}

// nested wraps bell twice to exercise Flatten.
type nested struct{}

func (nested) Kind() string            { return "Nested" }
func (nested) Params() ir.IRObject     { return nil }
func (nested) Signature() ir.Signature { return bell{}.Signature() }

func (nested) Decompose(bb *Builder, in Wiring) (Wiring, error) {
	out, err := bb.Add(bell{}, in)
	if err != nil {
		return nil, err
	}
	return bb.Add(bell{}, out)
}
