package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the call graph to help debug the failure.
type AssertionError struct {
	Type      string // Assertion type for categorization
	Expected  string // Human-readable expected outcome
	Actual    string // Human-readable actual outcome
	CallGraph string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.CallGraph != "" {
		fmt.Fprintf(&buf, "\nCall graph:\n")
		for _, line := range strings.Split(strings.TrimRight(e.CallGraph, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// assertTotal checks the op's cost exactly: every expected name must be
// present with the expected count, and no other name may appear.
func assertTotal(r *Result, a Assertion) error {
	want := make(map[string]string, len(a.Expect))
	for k, v := range a.Expect {
		want[k] = fmt.Sprint(v)
	}
	if countsEqual(r.Total, want) {
		return nil
	}
	return &AssertionError{
		Type:      AssertTotal,
		Expected:  formatCounts(want),
		Actual:    formatCounts(r.Total),
		CallGraph: r.CallGraph,
	}
}

// assertContains checks how often a leaf is reached from the root.
func assertContains(r *Result, a Assertion) error {
	got, ok := r.Leaves[a.Op]
	if ok && got == a.Value {
		return nil
	}
	actual := "not reached"
	if ok {
		actual = fmt.Sprintf("%s reached %s time(s)", a.Op, got)
	}
	return &AssertionError{
		Type:      AssertContains,
		Expected:  fmt.Sprintf("%s reached %s time(s)", a.Op, a.Value),
		Actual:    actual,
		CallGraph: r.CallGraph,
	}
}

// assertNode checks that the call graph reaches an op with the given name.
func assertNode(r *Result, a Assertion) error {
	if slices.Contains(r.Nodes, a.Op) {
		return nil
	}
	return &AssertionError{
		Type:      AssertNode,
		Expected:  fmt.Sprintf("call graph node %s", a.Op),
		Actual:    fmt.Sprintf("nodes %v", r.Nodes),
		CallGraph: r.CallGraph,
	}
}

func assertQubits(r *Result, a Assertion) error {
	if r.Qubits == a.Value {
		return nil
	}
	return &AssertionError{
		Type:     AssertQubits,
		Expected: a.Value + " qubits",
		Actual:   r.Qubits + " qubits",
	}
}

func assertViolations(r *Result, a Assertion) error {
	if len(r.Violations) == a.Count {
		return nil
	}
	actual := fmt.Sprintf("%d violation(s)", len(r.Violations))
	if len(r.Violations) > 0 {
		actual += ": " + strings.Join(r.Violations, "; ")
	}
	return &AssertionError{
		Type:     AssertViolations,
		Expected: fmt.Sprintf("%d violation(s)", a.Count),
		Actual:   actual,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTotal:
			err = assertTotal(result, a)
		case AssertContains:
			err = assertContains(result, a)
		case AssertNode:
			err = assertNode(result, a)
		case AssertQubits:
			err = assertQubits(result, a)
		case AssertViolations:
			err = assertViolations(result, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func countsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// formatCounts renders counts as "{a: 1, b: 2}" with sorted names.
func formatCounts(c map[string]string) string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + c[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
