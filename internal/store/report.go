package store

import (
	"strings"

	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/ir"
)

// Run groups the reports written by one CLI invocation or harness pass.
type Run struct {
	ID          string
	Label       string
	ToolVersion string
	IRVersion   string
	Seq         int64
}

// Report is the stored cost of one op under one metric.
type Report struct {
	RunID  string
	OpKey  string
	OpName string
	Metric string
	Params ir.IRObject
	// Total is the op's cost, one entry per count name.
	Total ir.IRObject
	// Sigma maps the key of each leaf op to {name, count}: how often the
	// leaf is reached from the root.
	Sigma ir.IRObject
	// Qubits is the symbolic peak qubit count, or "" when not measured.
	Qubits string
	Seq    int64
}

// NewReport describes the call graph g rooted at an op with the given total.
func NewReport(runID string, g *cost.CallGraph, total cost.Counts) Report {
	root := g.RootNode()
	r := Report{
		RunID:  runID,
		OpKey:  g.Root,
		Metric: g.Metric,
		Params: ir.IRObject{},
		Total:  total.Object(),
		Sigma:  ir.IRObject{},
	}
	if root != nil {
		r.OpName = root.Name
		r.Params = root.Op.Params()
	}
	for key, count := range g.Sigma() {
		name := key
		if n, ok := g.Node(key); ok {
			name = n.Name
		}
		r.Sigma[key] = ir.IRObject{
			"name":  ir.IRString(name),
			"count": ir.Expr(count),
		}
	}
	return r
}

// TotalCounts returns Total with each count rendered as text: a number, or
// a symbolic expression such as "4*n".
func (r Report) TotalCounts() map[string]string {
	out := make(map[string]string, len(r.Total))
	for k, v := range r.Total {
		out[k] = countString(v)
	}
	return out
}

// TotalString renders Total the way cost.Counts prints, e.g. "{clifford: 2}".
func (r Report) TotalString() string {
	keys := r.Total.SortedKeys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + countString(r.Total[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
