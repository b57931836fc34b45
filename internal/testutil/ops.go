package testutil

import (
	"fmt"

	"github.com/roach88/qwire/internal/bookkeeping"
	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/gates"
	"github.com/roach88/qwire/internal/ir"
)

// BodyFunc builds a Def's decomposition.
type BodyFunc func(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error)

// Def is a named composite op for tests. Its identity is its name, so two
// Defs with the same name are the same op.
//
// Body may be assigned after construction, which lets a Def refer to itself
// or to Defs declared later.
type Def struct {
	Name string
	Sig  ir.Signature
	Body BodyFunc
}

// Define returns a composite op called name.
func Define(name string, sig ir.Signature, body BodyFunc) *Def {
	return &Def{Name: name, Sig: sig, Body: body}
}

func (d *Def) Kind() string            { return "Def" }
func (d *Def) Params() ir.IRObject     { return ir.IRObject{"name": ir.IRString(d.Name)} }
func (d *Def) Signature() ir.Signature { return d.Sig }
func (d *Def) String() string          { return d.Name }

func (d *Def) Decompose(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
	if d.Body == nil {
		return nil, fmt.Errorf("%s has no body", d.Name)
	}
	return d.Body(bb, in)
}

// QubitSig is a single THRU qubit named q.
func QubitSig() ir.Signature { return ir.MustSignature(ir.NewPort("q", ir.QBit{})) }

// PairSig is two THRU qubits a and b.
func PairSig() ir.Signature {
	return ir.MustSignature(ir.NewPort("a", ir.QBit{}), ir.NewPort("b", ir.QBit{}))
}

// Seq applies ops to q in order. Every op must have a single THRU qubit q.
func Seq(name string, ops ...circuit.Op) *Def {
	return Define(name, QubitSig(), func(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
		w := in
		for _, op := range ops {
			out, err := bb.Add(op, w)
			if err != nil {
				return nil, err
			}
			w = out
		}
		return w, nil
	})
}

// Bell is H on a followed by CNOT(a, b).
func Bell() *Def {
	return Define("Bell", PairSig(), func(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
		h, err := bb.Add(gates.H{}, circuit.Wiring{"q": in["a"]})
		if err != nil {
			return nil, err
		}
		cx, err := bb.Add(gates.CNOT{}, circuit.Wiring{"ctrl": h["q"], "target": in["b"]})
		if err != nil {
			return nil, err
		}
		return circuit.Wiring{"a": cx["ctrl"], "b": cx["target"]}, nil
	})
}

// AllocFree allocates a qubit, applies ops to it and frees it. The op has
// an empty signature.
func AllocFree(name string, ops ...circuit.Op) *Def {
	sig := ir.MustSignature()
	return Define(name, sig, func(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
		a, err := bb.Add(bookkeeping.NewAllocate(ir.QBit{}), nil)
		if err != nil {
			return nil, err
		}
		w := a
		for _, op := range ops {
			out, err := bb.Add(op, circuit.Wiring{"q": w["reg"]})
			if err != nil {
				return nil, err
			}
			w = circuit.Wiring{"reg": out["q"]}
		}
		if _, err := bb.Add(bookkeeping.NewFree(ir.QBit{}), w); err != nil {
			return nil, err
		}
		return circuit.Wiring{}, nil
	})
}

// Loop decomposes into itself.
func Loop() *Def {
	d := Define("Loop", QubitSig(), nil)
	d.Body = func(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
		return bb.Add(d, in)
	}
	return d
}

// Mutual returns A and B where A calls B and B calls A.
func Mutual() (*Def, *Def) {
	a := Define("A", QubitSig(), nil)
	b := Define("B", QubitSig(), nil)
	a.Body = func(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
		return bb.Add(b, in)
	}
	b.Body = func(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
		return bb.Add(a, in)
	}
	return a, b
}

// Opaque is a leaf with no cost and no decomposition.
type Opaque struct {
	Name string
}

func (o Opaque) Kind() string            { return "Opaque" }
func (o Opaque) Params() ir.IRObject     { return ir.IRObject{"name": ir.IRString(o.Name)} }
func (o Opaque) Signature() ir.Signature { return QubitSig() }
func (o Opaque) String() string          { return o.Name }
