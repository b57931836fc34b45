package cost

import (
	"errors"
	"fmt"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/sym"
)

// Metric names a cost quantity. Leaves report their direct cost per metric.
type Metric interface {
	Name() string
}

type metric string

func (m metric) Name() string { return string(m) }

// Built-in metrics.
var (
	// GateCounts counts leaves by gate class: clifford, t, toffoli, rotation,
	// measurement.
	GateCounts Metric = metric("gate_counts")
	// TCount counts T gates, charging four per Toffoli.
	TCount Metric = metric("t_count")
)

// MetricByName resolves a built-in metric.
func MetricByName(name string) (Metric, error) {
	switch name {
	case GateCounts.Name():
		return GateCounts, nil
	case TCount.Name():
		return TCount, nil
	}
	return nil, fmt.Errorf("unknown metric %q", name)
}

// GateClass groups leaf gates for the built-in metrics.
type GateClass string

const (
	ClassClifford    GateClass = "clifford"
	ClassT           GateClass = "t"
	ClassToffoli     GateClass = "toffoli"
	ClassRotation    GateClass = "rotation"
	ClassMeasurement GateClass = "measurement"
	// ClassFree costs nothing under every built-in metric.
	ClassFree GateClass = "free"
)

// tPerToffoli is the T cost of one Toffoli using a measurement-based
// uncompute (Jones 2013).
const tPerToffoli = 4

// ClassCost returns the cost of one gate of the given class under m.
// It reports false for metrics it does not know.
func ClassCost(m Metric, class GateClass) (Counts, bool) {
	switch m.Name() {
	case GateCounts.Name():
		if class == ClassFree {
			return Zero(), true
		}
		return Counts{string(class): sym.Int(1)}, true
	case TCount.Name():
		switch class {
		case ClassT:
			return Counts{"t": sym.Int(1)}, true
		case ClassToffoli:
			return Counts{"t": sym.Int(tPerToffoli)}, true
		default:
			return Zero(), true
		}
	}
	return nil, false
}

// Leaf is implemented by ops with a direct cost. Returning false means the
// op has no direct cost for m and must be costed through its callees.
type Leaf interface {
	LeafCost(m Metric) (Counts, bool)
}

// Callee is one distinct child op and how many times it is used.
type Callee struct {
	Op    circuit.Op
	Count sym.Expr
}

// CalleeLister is implemented by ops that declare their callees directly,
// typically because their decomposition needs a concrete size but their
// cost is known symbolically. Wrappers return ErrNoCallees when the op they
// wrap declares nothing, and the decomposition is used instead.
type CalleeLister interface {
	Callees() ([]Callee, error)
}

// ErrNoCallees is returned by Callees when an op has no declared callees.
var ErrNoCallees = errors.New("no declared callees")

// declaredCallees returns op's declared callees. ok is false when op has
// none and should be decomposed.
func declaredCallees(op circuit.Op) (callees []Callee, ok bool, err error) {
	cl, isLister := op.(CalleeLister)
	if !isLister {
		return nil, false, nil
	}
	callees, err = cl.Callees()
	if errors.Is(err, ErrNoCallees) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return callees, true, nil
}
