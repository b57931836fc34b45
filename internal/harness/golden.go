package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the parts of a result that golden files pin: the totals,
// qubit count, verification outcome and call-graph outline. Op keys are left
// out, so snapshots survive changes to hashing.
func Snapshot(r *Result) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "op: %s\n", r.Op)
	fmt.Fprintf(&sb, "total: %s\n", formatCounts(r.Total))
	fmt.Fprintf(&sb, "qubits: %s\n", r.Qubits)
	if len(r.Violations) == 0 {
		sb.WriteString("verification: ok\n")
	} else {
		fmt.Fprintf(&sb, "verification: %d violation(s)\n", len(r.Violations))
	}
	sb.WriteString(r.CallGraph)
	return []byte(sb.String())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()
	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
