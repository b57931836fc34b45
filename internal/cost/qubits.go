package cost

import (
	"fmt"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/sym"
)

// QubitCount returns the peak number of simultaneously live qubits needed to
// run op. Unlike gate counts this is not additive: a decomposition is swept
// greedily in topological order and each instance may temporarily need more
// qubits than it consumes.
//
// Leaves and ops that cannot be decomposed need the larger of their left and
// right qubit totals.
func QubitCount(op circuit.Op) (sym.Expr, error) {
	qc := &qubitCounter{stack: newExpansionStack(), done: map[string]sym.Expr{}}
	return qc.count(op)
}

type qubitCounter struct {
	stack *expansionStack
	done  map[string]sym.Expr
}

func (qc *qubitCounter) count(op circuit.Op) (sym.Expr, error) {
	key := circuit.Key(op)
	if qc.stack.wouldCycle(key) {
		return nil, qc.stack.cycleError(op, key)
	}
	if q, ok := qc.done[key]; ok {
		return q, nil
	}
	sig := op.Signature()
	base := sym.Max(sig.LeftQubits(), sig.RightQubits())

	callees, declared, err := declaredCallees(op)
	if err != nil {
		return nil, fmt.Errorf("qubit count %s: %w", circuit.Name(op), err)
	}
	if declared {
		qc.stack.push(key, circuit.Name(op))
		peak := base
		for _, c := range callees {
			q, err := qc.count(c.Op)
			if err != nil {
				qc.stack.pop()
				return nil, err
			}
			peak = sym.Max(peak, q)
		}
		qc.stack.pop()
		qc.done[key] = peak
		return peak, nil
	}

	g, err := circuit.Decompose(op)
	if err != nil {
		if circuit.IsDecomposeNotImplemented(err) || circuit.IsSymbolicShape(err) {
			qc.done[key] = base
			return base, nil
		}
		return nil, fmt.Errorf("qubit count %s: %w", circuit.Name(op), err)
	}

	qc.stack.push(key, circuit.Name(op))
	live := sig.LeftQubits()
	peak := live
	for _, id := range g.TopoOrder() {
		inst, _ := g.Instance(id)
		isig := inst.Op.Signature()
		q, err := qc.count(inst.Op)
		if err != nil {
			qc.stack.pop()
			return nil, err
		}
		rest := sym.Sub(live, isig.LeftQubits())
		peak = sym.Max(peak, sym.Add(rest, q))
		live = sym.Add(rest, isig.RightQubits())
	}
	qc.stack.pop()
	peak = sym.Max(peak, live)
	qc.done[key] = peak
	return peak, nil
}
