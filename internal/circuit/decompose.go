package circuit

import (
	"fmt"
)

// Decompose builds op's decomposition graph through a builder bound to op's
// signature. The result's signature always equals op's.
func Decompose(op Op) (*Graph, error) {
	d, ok := op.(Decomposer)
	if !ok {
		return nil, errorf(KindDecomposeNotImplemented, op, "", "%s is a leaf operation", op.Kind())
	}
	sig := op.Signature()
	bb, in, err := FromSignature(sig)
	if err != nil {
		return nil, fmt.Errorf("decompose %s: %w", Name(op), err)
	}
	out, err := d.Decompose(bb, in)
	if err != nil {
		return nil, fmt.Errorf("decompose %s: %w", Name(op), err)
	}
	g, err := bb.Finalize(out)
	if err != nil {
		return nil, fmt.Errorf("decompose %s: %w", Name(op), err)
	}
	if !g.Signature().Equal(sig) {
		return nil, errorf(KindTypeMismatch, op, "", "decomposition signature %s differs from %s", g.Signature(), sig)
	}
	return g, nil
}

// Flatten repeatedly inlines decomposable instances until only leaves remain
// or maxDepth levels have been expanded. A maxDepth of 0 returns the
// decomposition of op itself.
func Flatten(op Op, maxDepth int) (*Graph, error) {
	g, err := Decompose(op)
	if err != nil {
		return nil, err
	}
	for range maxDepth {
		if !hasDecomposable(g) {
			break
		}
		bb, in, err := FromSignature(g.Signature())
		if err != nil {
			return nil, err
		}
		out, err := g.Replay(bb, in, func(bb *Builder, inst Instance, w Wiring) (Wiring, error) {
			sub, err := Decompose(inst.Op)
			if IsDecomposeNotImplemented(err) {
				return bb.Add(inst.Op, w)
			}
			if err != nil {
				return nil, err
			}
			return sub.Replay(bb, w, nil)
		})
		if err != nil {
			return nil, err
		}
		if g, err = bb.Finalize(out); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func hasDecomposable(g *Graph) bool {
	for _, inst := range g.insts {
		if IsDecomposable(inst.Op) {
			return true
		}
	}
	return false
}
