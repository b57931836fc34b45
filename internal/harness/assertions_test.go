package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bellResult() *Result {
	r := NewResult("Bell", "gate_counts")
	r.Total = map[string]string{"clifford": "2"}
	r.Leaves = map[string]string{"H": "1", "CNOT": "1"}
	r.Nodes = []string{"Bell", "H", "CNOT"}
	r.Qubits = "2"
	r.CallGraph = "metric: gate_counts\nBell {clifford: 2}\n"
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(bellResult(), []Assertion{
		{Type: AssertTotal, Expect: map[string]any{"clifford": 2}},
		{Type: AssertContains, Op: "H", Value: "1"},
		{Type: AssertNode, Op: "CNOT"},
		{Type: AssertQubits, Value: "2"},
		{Type: AssertViolations, Count: 0},
	})
	assert.Empty(t, errs)
}

func TestAssertTotal_IsExact(t *testing.T) {
	tests := []struct {
		name   string
		expect map[string]any
		pass   bool
	}{
		{"match", map[string]any{"clifford": 2}, true},
		{"string count", map[string]any{"clifford": "2"}, true},
		{"wrong count", map[string]any{"clifford": 1}, false},
		{"missing name", map[string]any{}, false},
		{"extra name", map[string]any{"clifford": 2, "t": 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTotal(bellResult(), Assertion{Type: AssertTotal, Expect: tt.expect})
			assert.Equal(t, tt.pass, err == nil, "%v", err)
		})
	}
}

func TestAssertContains_SymbolicCount(t *testing.T) {
	r := bellResult()
	r.Leaves["T"] = "4*n"
	assert.NoError(t, assertContains(r, Assertion{Op: "T", Value: "4*n"}))

	err := assertContains(r, Assertion{Op: "T", Value: "4"})
	assert.ErrorContains(t, err, "T reached 4*n time(s)")
}

func TestAssertViolations_ListsThem(t *testing.T) {
	r := bellResult()
	r.Violations = []string{"Leaky: released in state 1"}
	err := assertViolations(r, Assertion{Count: 0})
	assert.ErrorContains(t, err, "1 violation(s): Leaky: released in state 1")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(bellResult(), []Assertion{{Type: "final_state"}})
	assert.Equal(t, []string{`assertion[0]: unknown assertion type "final_state"`}, errs)
}

func TestFormatCounts(t *testing.T) {
	assert.Equal(t, "{}", formatCounts(nil))
	assert.Equal(t, "{a: 1, b: n}", formatCounts(map[string]string{"b": "n", "a": "1"}))
}
