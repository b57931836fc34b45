package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qwire/internal/ir"
)

func TestDecomposeSignatureEqualsOp(t *testing.T) {
	for _, op := range []Op{bell{}, nested{}} {
		t.Run(op.Kind(), func(t *testing.T) {
			g, err := Decompose(op)
			require.NoError(t, err)
			assert.True(t, g.Signature().Equal(op.Signature()))
			assert.NoError(t, g.Validate())
		})
	}
}

func TestDecomposeLeafNotImplemented(t *testing.T) {
	_, err := Decompose(hGate)
	require.Error(t, err)
	assert.True(t, IsDecomposeNotImplemented(err))
}

func TestGraphSingleProducerSingleConsumer(t *testing.T) {
	g, err := Decompose(nested{})
	require.NoError(t, err)

	from := map[Slot]int{}
	to := map[Slot]int{}
	for _, c := range g.Connections() {
		from[c.From]++
		to[c.To]++
	}
	for s, n := range from {
		assert.Equal(t, 1, n, "producer %s", s)
	}
	for s, n := range to {
		assert.Equal(t, 1, n, "consumer %s", s)
	}
}

func TestGraphTopoOrderRespectsEdges(t *testing.T) {
	g, err := Flatten(nested{}, 1)
	require.NoError(t, err)

	pos := map[NodeID]int{}
	for i, id := range g.TopoOrder() {
		pos[id] = i
	}
	require.Len(t, pos, g.NumInstances())
	for _, c := range g.Connections() {
		if c.From.Node < 0 || c.To.Node < 0 {
			continue
		}
		assert.Less(t, pos[c.From.Node], pos[c.To.Node], "%s -> %s", c.From, c.To)
	}
}

func TestGraphTopoOrderDeterministic(t *testing.T) {
	g1, err := Flatten(nested{}, 1)
	require.NoError(t, err)
	g2, err := Flatten(nested{}, 1)
	require.NoError(t, err)
	assert.Equal(t, g1.TopoOrder(), g2.TopoOrder())
	assert.Equal(t, g1.Key(), g2.Key())
}

func TestValidateDetectsCorruption(t *testing.T) {
	g, err := Decompose(bell{})
	require.NoError(t, err)

	t.Run("double consumer", func(t *testing.T) {
		cxns := g.Connections()
		cxns = append(cxns, cxns[0])
		bad := newGraph(g.Signature(), g.Instances(), cxns)
		assert.True(t, IsUseAfterConsume(bad.Validate()))
	})

	t.Run("cycle", func(t *testing.T) {
		// Feed CX's ctrl output back into H.
		insts := g.Instances()
		var cxns []Connection
		for _, c := range g.Connections() {
			switch {
			case c.To.Node == 0:
				cxns = append(cxns, Connection{From: Slot{Node: 1, Port: "ctrl"}, To: c.To})
			case c.From.Node == 1 && c.From.Port == "ctrl":
				cxns = append(cxns, Connection{From: Slot{Node: LeftDangle, Port: "a"}, To: c.To})
			default:
				cxns = append(cxns, c)
			}
		}
		bad := newGraph(g.Signature(), insts, cxns)
		err := bad.Validate()
		require.Error(t, err)
		assert.True(t, IsCyclicDefinition(err))
	})

	t.Run("missing connection", func(t *testing.T) {
		cxns := g.Connections()[1:]
		bad := newGraph(g.Signature(), g.Instances(), cxns)
		assert.Error(t, bad.Validate())
	})
}

func TestGraphIsAnOp(t *testing.T) {
	g, err := Decompose(bell{})
	require.NoError(t, err)

	assert.Equal(t, "Composite", g.Kind())
	assert.Equal(t, g.Key(), Key(g))

	again, err := Decompose(g)
	require.NoError(t, err)
	assert.Equal(t, g.Key(), again.Key(), "replaying a graph reproduces it")

	other, err := Decompose(nested{})
	require.NoError(t, err)
	assert.NotEqual(t, g.Key(), other.Key())
}

func TestGraphCounts(t *testing.T) {
	g, err := Flatten(nested{}, 1)
	require.NoError(t, err)

	counts := g.Counts()
	require.Len(t, counts, 2)
	assert.Equal(t, "H", counts[0].Op.Kind())
	assert.Equal(t, 2, counts[0].Count)
	assert.Equal(t, "CX", counts[1].Op.Kind())
	assert.Equal(t, 2, counts[1].Count)
}

func TestFlattenStopsAtLeaves(t *testing.T) {
	g, err := Flatten(nested{}, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, g.NumInstances())
	for _, inst := range g.Instances() {
		assert.False(t, IsDecomposable(inst.Op))
	}
}

func TestReplayReverseRequiresMapping(t *testing.T) {
	g, err := Decompose(bell{})
	require.NoError(t, err)
	bb, in, err := FromSignature(g.Signature())
	require.NoError(t, err)
	_, err = g.ReplayReverse(bb, in, nil)
	assert.Error(t, err)
}

func TestReplayReverseVisitsInReverse(t *testing.T) {
	g, err := Decompose(bell{})
	require.NoError(t, err)
	bb, in, err := FromSignature(g.Signature().Adjoint())
	require.NoError(t, err)

	var visited []string
	out, err := g.ReplayReverse(bb, in, func(bb *Builder, inst Instance, w Wiring) (Wiring, error) {
		visited = append(visited, inst.Op.Kind())
		return bb.Add(inst.Op, w)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"CX", "H"}, visited)

	rev, err := bb.Finalize(out)
	require.NoError(t, err)
	assert.NoError(t, rev.Validate())
}

func TestValueIndexing(t *testing.T) {
	bb := NewBuilder()
	v, err := bb.AddInput("grid", ir.QBit{}, 2, 3)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, v.Shape())
	assert.Equal(t, 6, v.Size())
	assert.Equal(t, 2, v.Len())

	row := v.At(1)
	assert.Equal(t, []int{3}, row.Shape())
	assert.Equal(t, v.Wires()[3:6], row.Wires())

	cell := v.At(1, 2)
	assert.True(t, cell.IsScalar())
	assert.Equal(t, v.Wires()[5], cell.Wires()[0])

	sl := v.Slice(0, 1)
	assert.Equal(t, []int{1, 3}, sl.Shape())

	assert.Panics(t, func() { v.At(2) })
	assert.Panics(t, func() { v.At(0, 0, 0) })

	stacked, err := Stack(v.At(1), v.At(0))
	require.NoError(t, err)
	assert.Equal(t, append(v.Wires()[3:6], v.Wires()[0:3]...), stacked.Wires())

	_, err = Stack(v.At(0), v.At(0, 1))
	assert.True(t, IsTypeMismatch(err))
	_, err = Stack()
	assert.Error(t, err)
}
