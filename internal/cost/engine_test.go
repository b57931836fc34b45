package cost_test

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qwire/internal/bookkeeping"
	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/gates"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
	"github.com/roach88/qwire/internal/testutil"
	"github.com/roach88/qwire/internal/transform"
)

func newEngine(t *testing.T, opts ...cost.Option) *cost.Engine {
	t.Helper()
	e, err := cost.NewEngine(opts...)
	require.NoError(t, err)
	return e
}

// repeatT applies T a symbolic number of times. It declares its callees
// instead of decomposing.
type repeatT struct {
	n sym.Expr
}

func (r repeatT) Kind() string            { return "RepeatT" }
func (r repeatT) Params() ir.IRObject     { return ir.IRObject{"n": ir.Expr(r.n)} }
func (r repeatT) Signature() ir.Signature { return testutil.QubitSig() }

func (r repeatT) Callees() ([]cost.Callee, error) {
	return []cost.Callee{{Op: gates.T{}, Count: r.n}}, nil
}

func TestCostAdditiveLaw(t *testing.T) {
	e := newEngine(t)
	a := testutil.Seq("A", gates.T{}, gates.H{})
	b := testutil.Seq("B", gates.T{}, gates.T{}, gates.X{})
	ab := testutil.Seq("AB", a, b)

	ca, err := e.Cost(a, cost.GateCounts)
	require.NoError(t, err)
	cb, err := e.Cost(b, cost.GateCounts)
	require.NoError(t, err)
	cab, err := e.Cost(ab, cost.GateCounts)
	require.NoError(t, err)

	assert.True(t, ca.Add(cb).Equal(cab), "cost(AB)=%s, cost(A)+cost(B)=%s", cab, ca.Add(cb))
	assert.True(t, cost.Of(map[string]int64{"t": 3, "clifford": 2}).Equal(cab))
}

func TestCostMultiplicity(t *testing.T) {
	e := newEngine(t)
	ttt := testutil.Seq("TTT", gates.T{}, gates.T{}, gates.T{})
	twice := testutil.Seq("Twice", ttt, ttt)

	c, err := e.Cost(twice, cost.TCount)
	require.NoError(t, err)
	n, ok := c.Int("t")
	require.True(t, ok)
	assert.Equal(t, int64(6), n)
}

func TestTCountChargesToffoli(t *testing.T) {
	e := newEngine(t)
	op := testutil.Define("AndThenT", ir.MustSignature(
		ir.NewPort("a", ir.QBit{}), ir.NewPort("b", ir.QBit{}), ir.NewPort("c", ir.QBit{}),
	), func(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
		tof, err := bb.Add(gates.Toffoli{}, circuit.Wiring{"ctrl1": in["a"], "ctrl2": in["b"], "target": in["c"]})
		if err != nil {
			return nil, err
		}
		tg, err := bb.Add(gates.T{}, circuit.Wiring{"q": tof["target"]})
		if err != nil {
			return nil, err
		}
		return circuit.Wiring{"a": tof["ctrl1"], "b": tof["ctrl2"], "c": tg["q"]}, nil
	})

	c, err := e.Cost(op, cost.TCount)
	require.NoError(t, err)
	assert.Equal(t, "{t: 5}", c.String())

	gc, err := e.Cost(op, cost.GateCounts)
	require.NoError(t, err)
	assert.Equal(t, "{t: 1, toffoli: 1}", gc.String())
}

func TestCostCyclicDefinition(t *testing.T) {
	e := newEngine(t)

	_, err := e.Cost(testutil.Loop(), cost.GateCounts)
	require.Error(t, err)
	assert.True(t, circuit.IsCyclicDefinition(err))
	var ce *circuit.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"Loop", "Loop"}, ce.Path)

	a, _ := testutil.Mutual()
	_, err = e.Cost(a, cost.GateCounts)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"A", "B", "A"}, ce.Path)
}

func TestCostDepthLimit(t *testing.T) {
	e := newEngine(t, cost.WithMaxDepth(1))

	nested := testutil.Seq("Outer", testutil.Seq("Mid", gates.T{}))
	c, err := e.Cost(nested, cost.TCount)
	require.NoError(t, err)
	assert.True(t, c.HasUnknown())
	assert.Equal(t, "{unknown:Mid: 1}", c.String())

	// Leaves at the bound still report their own cost.
	c, err = e.Cost(testutil.Seq("Flat", gates.T{}), cost.TCount)
	require.NoError(t, err)
	assert.Equal(t, "{t: 1}", c.String())

	// A deeper bound reaches the T inside Mid.
	deep := newEngine(t, cost.WithMaxDepth(2))
	c, err = deep.Cost(nested, cost.TCount)
	require.NoError(t, err)
	assert.Equal(t, "{t: 1}", c.String())
}

func TestCostOpaqueLeafIsUnknown(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := newEngine(t, cost.WithLogger(logger))

	op := testutil.Seq("UsesOracle", testutil.Opaque{Name: "Oracle"}, gates.T{})
	c, err := e.Cost(op, cost.TCount)
	require.NoError(t, err)
	assert.Equal(t, "{t: 1, unknown:Oracle: 1}", c.String())
	assert.Contains(t, buf.String(), "operation has no cost for metric")
	assert.Contains(t, buf.String(), "op=Oracle")
}

func TestCostGeneralizers(t *testing.T) {
	scratch := testutil.AllocFree("Scratch", gates.X{}, gates.X{})

	tests := []struct {
		name  string
		gens  []cost.Generalizer
		nodes int
	}{
		{"none", nil, 4},
		{"ignore bookkeeping", []cost.Generalizer{cost.IgnoreBookkeeping}, 2},
		{"ignore alloc free", []cost.Generalizer{cost.IgnoreAllocFree}, 2},
		{"ignore split join", []cost.Generalizer{cost.IgnoreSplitJoin}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, cost.WithGeneralizers(tt.gens...))
			g, total, err := e.CallGraph(scratch, cost.GateCounts)
			require.NoError(t, err)
			assert.Equal(t, tt.nodes, g.Len())
			assert.Equal(t, "{clifford: 2}", total.String())
		})
	}
}

func TestCostGeneralizerMergesCallees(t *testing.T) {
	dropAdjoint := func(op circuit.Op) circuit.Op {
		if tg, ok := op.(gates.T); ok && tg.Adj {
			return gates.T{}
		}
		return op
	}
	e := newEngine(t, cost.WithGeneralizers(dropAdjoint))

	g, total, err := e.CallGraph(testutil.Seq("TTdag", gates.T{}, gates.T{Adj: true}), cost.TCount)
	require.NoError(t, err)
	assert.Equal(t, "{t: 2}", total.String())
	root := g.RootNode()
	require.Len(t, root.Children, 1)
	assert.Equal(t, "2", root.Children[0].Count.String())
}

func TestGeneralizerByName(t *testing.T) {
	for _, name := range []string{"ignore_bookkeeping", "ignore_alloc_free", "ignore_split_join"} {
		g, ok := cost.GeneralizerByName(name)
		assert.True(t, ok, name)
		assert.NotNil(t, g)
	}
	_, ok := cost.GeneralizerByName("ignore_everything")
	assert.False(t, ok)

	assert.Nil(t, cost.IgnoreSplitJoin(bookkeeping.NewSplit(ir.NewQUInt(2))))
	assert.NotNil(t, cost.IgnoreSplitJoin(bookkeeping.NewAllocate(ir.QBit{})))
}

func TestCostSymbolicCallees(t *testing.T) {
	e := newEngine(t)
	n := sym.Symbol("n")
	op := testutil.Seq("Wrapped", repeatT{n: n}, repeatT{n: n}, bookkeeping.NewAlways(repeatT{n: sym.Int(2)}))

	c, err := e.Cost(op, cost.TCount)
	require.NoError(t, err)
	assert.Equal(t, "(2*n + 2)", c.Get("t").String())

	v, ok := sym.Eval(c.Get("t"), map[string]int64{"n": 5})
	require.True(t, ok)
	assert.Equal(t, int64(12), v)
}

func TestCostThroughTransforms(t *testing.T) {
	e := newEngine(t)
	op := testutil.Seq("XTX", gates.X{}, gates.T{}, gates.X{})

	adj, err := transform.Adjoint(op)
	require.NoError(t, err)
	c, err := e.Cost(adj, cost.GateCounts)
	require.NoError(t, err)
	assert.Equal(t, "{clifford: 2, t: 1}", c.String())

	xx := testutil.Seq("XX", gates.X{}, gates.X{})
	cop, err := transform.Controlled(xx, transform.DefaultCtrl())
	require.NoError(t, err)
	c, err = e.Cost(cop, cost.GateCounts)
	require.NoError(t, err)
	assert.Equal(t, "{clifford: 2}", c.String())
}

// repeat applies a single-qubit op a symbolic number of times to a QAny(n)
// register. Its decomposition would need a concrete n, so it declares its
// callees.
type repeat struct {
	op circuit.Op
	n  sym.Expr
}

func (r repeat) Kind() string { return "Repeat" }

func (r repeat) Params() ir.IRObject {
	return ir.IRObject{"op": ir.IRString(circuit.Key(r.op)), "n": ir.Expr(r.n)}
}

func (r repeat) Signature() ir.Signature {
	return ir.MustSignature(ir.NewPort("reg", ir.QAny{N: r.n}))
}

func (r repeat) Callees() ([]cost.Callee, error) {
	return []cost.Callee{{Op: r.op, Count: r.n}}, nil
}

func TestCostSymbolicThroughTransforms(t *testing.T) {
	e := newEngine(t)
	n := sym.Symbol("n")

	adj, err := transform.Adjoint(repeat{op: gates.T{}, n: n})
	require.NoError(t, err)
	c, err := e.Cost(adj, cost.TCount)
	require.NoError(t, err)
	assert.False(t, c.HasUnknown(), c.String())
	assert.Equal(t, "n", c.Get("t").String())

	cop, err := transform.Controlled(repeat{op: gates.X{}, n: n}, transform.DefaultCtrl())
	require.NoError(t, err)
	c, err = e.Cost(cop, cost.GateCounts)
	require.NoError(t, err)
	assert.False(t, c.HasUnknown(), c.String())
	assert.Equal(t, "n", c.Get("clifford").String())

	both, err := transform.Adjoint(cop)
	require.NoError(t, err)
	c, err = e.Cost(both, cost.GateCounts)
	require.NoError(t, err)
	assert.Equal(t, "n", c.Get("clifford").String())

	// T has no controlled version, so the declared callee cannot be controlled.
	cop, err = transform.Controlled(repeat{op: gates.T{}, n: n}, transform.DefaultCtrl())
	require.NoError(t, err)
	_, err = e.Cost(cop, cost.TCount)
	assert.True(t, circuit.IsUnsupportedControl(err))
}

func TestCostTransformsWithoutDeclaredCallees(t *testing.T) {
	e := newEngine(t)
	op := testutil.Seq("XT", gates.X{}, gates.T{})

	adj, err := transform.Adjoint(op)
	require.NoError(t, err)
	_, ok := adj.(cost.CalleeLister)
	require.True(t, ok)
	c, err := e.Cost(adj, cost.GateCounts)
	require.NoError(t, err)
	assert.Equal(t, "{clifford: 1, t: 1}", c.String())

	q, err := cost.QubitCount(adj)
	require.NoError(t, err)
	assert.Equal(t, "1", q.String())
}

func TestCostCache(t *testing.T) {
	e := newEngine(t, cost.WithCacheSize(16))
	op := testutil.Seq("TH", gates.T{}, gates.H{})

	first, err := e.Cost(op, cost.GateCounts)
	require.NoError(t, err)
	assert.Equal(t, 1, e.CacheLen())

	second, err := e.Cost(op, cost.GateCounts)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))

	_, err = e.Cost(op, cost.TCount)
	require.NoError(t, err)
	assert.Equal(t, 2, e.CacheLen(), "metrics are cached separately")

	e.Purge()
	assert.Equal(t, 0, e.CacheLen())
}

func TestNewEngineRejectsBadOptions(t *testing.T) {
	_, err := cost.NewEngine(cost.WithCacheSize(0))
	assert.Error(t, err)
	_, err = cost.NewEngine(cost.WithMaxDepth(-1))
	assert.Error(t, err)
}

func TestCostConcurrent(t *testing.T) {
	e := newEngine(t)
	op := testutil.Seq("Shared", testutil.Seq("TTT", gates.T{}, gates.T{}, gates.T{}), gates.Z{})

	var wg sync.WaitGroup
	results := make([]cost.Counts, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Cost(op, cost.GateCounts)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "{clifford: 1, t: 3}", results[i].String())
	}
}

func TestMetricByName(t *testing.T) {
	m, err := cost.MetricByName("t_count")
	require.NoError(t, err)
	assert.Equal(t, cost.TCount, m)

	_, err = cost.MetricByName("depth")
	assert.Error(t, err)
}
