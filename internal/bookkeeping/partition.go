package bookkeeping

import (
	"fmt"
	"slices"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
	"github.com/roach88/qwire/internal/verify"
)

// Partition re-labels an n-bit register "x" as several named registers, in
// order. Its adjoint merges them back.
type Partition struct {
	free
	n    sym.Expr
	regs []ir.Port
	adj  bool
}

// NewPartition partitions n bits into regs. The regs' total width must equal
// n, and no reg may be called "x".
func NewPartition(n sym.Expr, regs ...ir.Port) (Partition, error) {
	if len(regs) == 0 {
		return Partition{}, &circuit.Error{Kind: circuit.KindTypeMismatch, Op: "Partition", Message: "no registers"}
	}
	widths := make([]sym.Expr, len(regs))
	out := make([]ir.Port, len(regs))
	for i, r := range regs {
		if r.Name == "x" {
			return Partition{}, &circuit.Error{Kind: circuit.KindDuplicatePortName, Op: "Partition", Port: "x", Message: "register name is reserved"}
		}
		widths[i] = r.BitSize()
		out[i] = r.WithSide(ir.SideRight)
	}
	if _, err := ir.NewSignature(out...); err != nil {
		return Partition{}, &circuit.Error{Kind: circuit.KindDuplicatePortName, Op: "Partition", Message: "duplicate register", Cause: err}
	}
	if total := sym.Add(widths...); !sym.Equal(total, n) {
		return Partition{}, &circuit.Error{
			Kind:    circuit.KindTypeMismatch,
			Op:      "Partition",
			Message: fmt.Sprintf("register widths sum to %s, want %s", total, n),
		}
	}
	return Partition{n: n, regs: out}, nil
}

// N is the width of the whole register.
func (p Partition) N() sym.Expr { return p.n }

// Regs returns the parts in order.
func (p Partition) Regs() []ir.Port { return slices.Clone(p.regs) }

// IsAdjoint reports whether p merges instead of splitting.
func (p Partition) IsAdjoint() bool { return p.adj }

func (p Partition) Kind() string { return "Partition" }

func (p Partition) Params() ir.IRObject {
	regs := make(ir.IRArray, len(p.regs))
	for i, r := range p.regs {
		regs[i] = r.Object()
	}
	return ir.IRObject{
		"n":       ir.Expr(p.n),
		"regs":    regs,
		"adjoint": ir.IRBool(p.adj),
	}
}

func (p Partition) Signature() ir.Signature {
	ports := append([]ir.Port{ir.NewLeftPort("x", ir.QAny{N: p.n})}, p.regs...)
	sig := ir.MustSignature(ports...)
	if p.adj {
		return sig.Adjoint()
	}
	return sig
}

// Adjoint flips the direction.
func (p Partition) Adjoint() (circuit.Op, error) {
	p.adj = !p.adj
	return p, nil
}

func (p Partition) ApplyBasis(in verify.State) (verify.State, bool) {
	if p.adj {
		var x []verify.Bit
		for _, r := range p.regs {
			bits := in[r.Name]
			if bits == nil {
				return nil, false
			}
			x = append(x, bits...)
		}
		return verify.State{"x": x}, true
	}
	x := in["x"]
	if x == nil {
		return nil, false
	}
	out := verify.State{}
	off := 0
	for _, r := range p.regs {
		w, ok := sym.Value(r.BitSize())
		if !ok || off+int(w) > len(x) {
			return nil, false
		}
		out[r.Name] = x[off : off+int(w)]
		off += int(w)
	}
	return out, true
}

func (p Partition) String() string {
	if p.adj {
		return fmt.Sprintf("Partition(%s)^dag", p.n)
	}
	return fmt.Sprintf("Partition(%s)", p.n)
}
