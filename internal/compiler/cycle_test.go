package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// calls builds a spec whose steps call each of callees once.
func calls(name string, callees ...string) *Spec {
	s := &Spec{Name: name}
	for _, c := range callees {
		s.Steps = append(s.Steps, Step{Kind: StepCall, Name: c})
	}
	return s
}

func TestAnalyzeCycles_Empty(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(nil))
}

func TestAnalyzeCycles_DAG(t *testing.T) {
	specs := []*Spec{
		calls("Top", "Left", "Right"),
		calls("Left", "Leaf"),
		calls("Right", "Leaf"),
		calls("Leaf"),
	}
	assert.Empty(t, AnalyzeCycles(specs), "DAG should produce no cycles")
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	cycles := AnalyzeCycles([]*Spec{calls("Loop", "Loop")})
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"Loop", "Loop"}, cycles[0].Path)
	assert.Contains(t, cycles[0].Message, "calls itself")
}

func TestAnalyzeCycles_Mutual(t *testing.T) {
	cycles := AnalyzeCycles([]*Spec{calls("B", "A"), calls("A", "B")})
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"A", "B", "A"}, cycles[0].Path)
	assert.Equal(t, "call cycle: A -> B -> A", cycles[0].Message)
}

func TestAnalyzeCycles_ThreeNodes(t *testing.T) {
	specs := []*Spec{
		calls("A", "B"),
		calls("B", "C"),
		calls("C", "A"),
		calls("D", "A"),
	}
	cycles := AnalyzeCycles(specs)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"A", "B", "C", "A"}, cycles[0].Path)
}

func TestAnalyzeCycles_Separate(t *testing.T) {
	specs := []*Spec{
		calls("A", "A"),
		calls("X", "Y"),
		calls("Y", "X"),
		calls("Z"),
	}
	assert.Len(t, AnalyzeCycles(specs), 2)
}

func TestAnalyzeCycles_IgnoresUnknownCallees(t *testing.T) {
	assert.Empty(t, AnalyzeCycles([]*Spec{calls("A", "Missing")}))
}

func TestLinkOrderPutsCalleesFirst(t *testing.T) {
	specs := []*Spec{
		calls("Top", "Mid"),
		calls("Mid", "Leaf"),
		calls("Leaf"),
		calls("Alone"),
	}
	order := linkOrder(specs)
	require.Len(t, order, 4)
	pos := map[string]int{}
	for i, name := range order {
		pos[name] = i
	}
	assert.Less(t, pos["Leaf"], pos["Mid"])
	assert.Less(t, pos["Mid"], pos["Top"])
}

func TestCallGraphEdges(t *testing.T) {
	g := buildCallGraph([]*Spec{
		calls("Top", "Right", "Left", "Missing"),
		calls("Left", "Leaf"),
		calls("Right", "Leaf"),
		calls("Leaf"),
	})
	assert.True(t, g.Directed())
	assert.Equal(t, []string{"Leaf", "Left", "Right", "Top"}, g.names())
	assert.Equal(t, []string{"Left", "Right"}, g.callees("Top"))
	assert.Empty(t, g.callees("Leaf"))
	assert.False(t, g.HasEdge("Leaf", "Left"))
	assert.False(t, g.HasVertex("Missing"))
}

func TestSpecCallsAreDistinct(t *testing.T) {
	s := calls("Top", "B", "A", "B")
	s.Steps = append(s.Steps, Step{Kind: StepGate, Name: "X"})
	assert.Equal(t, []string{"B", "A"}, s.Calls())
}
