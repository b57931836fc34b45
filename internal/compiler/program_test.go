package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/transform"
)

const bellSource = `
op: Bell: {
	signature: [{name: "a", dtype: "QBit"}, {name: "b", dtype: "QBit"}]
	steps: [
		{gate: "H", in: {q: "a"}, out: {q: "a"}},
		{gate: "CNOT", in: {ctrl: "a", target: "b"}, out: {ctrl: "a", target: "b"}},
	]
}
`

const callsSource = `
op: {
	TT: {
		signature: [{name: "q", dtype: "QBit"}]
		steps: [{gate: "T"}, {gate: "T"}]
	}
	Outer: {
		signature: [{name: "c", dtype: "QBit"}, {name: "q", dtype: "QBit"}]
		steps: [
			{call: "TT"},
			{call: "TT", adjoint: true},
			{gate: "X", ctrl: [1], in: {ctrl: "c"}, out: {ctrl: "c"}},
		]
	}
}
`

func compileSource(t *testing.T, src string) (*Program, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src, cue.Filename("defs.cue"))
	require.NoError(t, v.Err())
	return Compile(v)
}

func mustCompile(t *testing.T, src string) *Program {
	t.Helper()
	p, err := compileSource(t, src)
	require.NoError(t, err)
	return p
}

func stepNames(t *testing.T, op circuit.Op) []string {
	t.Helper()
	g, err := circuit.Decompose(op)
	require.NoError(t, err)
	var out []string
	for _, id := range g.TopoOrder() {
		inst, ok := g.Instance(id)
		require.True(t, ok)
		out = append(out, circuit.Name(inst.Op))
	}
	return out
}

func compileErr(t *testing.T, err error) *CompileError {
	t.Helper()
	require.Error(t, err)
	var ce *CompileError
	require.True(t, errors.As(err, &ce), "want *CompileError, got %T: %v", err, err)
	return ce
}

func TestCompileBell(t *testing.T) {
	p := mustCompile(t, bellSource)
	require.Equal(t, 1, p.Len())

	d, ok := p.Lookup("Bell")
	require.True(t, ok)
	assert.Equal(t, "Definition", d.Kind())
	assert.Equal(t, "Bell", circuit.Name(d))
	assert.Len(t, d.Signature().Ports(), 2)
	assert.Equal(t, []string{"H", "CNOT"}, stepNames(t, d))

	g, err := circuit.Decompose(d)
	require.NoError(t, err)
	assert.True(t, g.Signature().Equal(d.Signature()))
	assert.NoError(t, g.Validate())

	e, err := cost.NewEngine()
	require.NoError(t, err)
	c, err := e.Cost(d, cost.GateCounts)
	require.NoError(t, err)
	assert.Equal(t, "{clifford: 2}", c.String())
}

func TestCompileCallsAndModifiers(t *testing.T) {
	p := mustCompile(t, callsSource)
	assert.Equal(t, []string{"TT", "Outer"}, p.Names())

	outer, ok := p.Lookup("Outer")
	require.True(t, ok)
	assert.Equal(t, []string{"TT", "TT^dag", "CNOT"}, stepNames(t, outer))

	e, err := cost.NewEngine()
	require.NoError(t, err)
	c, err := e.Cost(outer, cost.TCount)
	require.NoError(t, err)
	assert.Equal(t, "{t: 4}", c.String())
	c, err = e.Cost(outer, cost.GateCounts)
	require.NoError(t, err)
	assert.Equal(t, "{clifford: 1, t: 4}", c.String())
}

func TestDefinitionIdentity(t *testing.T) {
	a, _ := mustCompile(t, bellSource).Lookup("Bell")
	b, _ := mustCompile(t, bellSource).Lookup("Bell")
	assert.Equal(t, circuit.Key(a), circuit.Key(b), "same source, same key")

	changed := mustCompile(t, `
op: Bell: {
	signature: [{name: "a", dtype: "QBit"}, {name: "b", dtype: "QBit"}]
	steps: [
		{gate: "H", in: {q: "b"}, out: {q: "b"}},
		{gate: "CNOT", in: {ctrl: "a", target: "b"}, out: {ctrl: "a", target: "b"}},
	]
}
`)
	c, _ := changed.Lookup("Bell")
	assert.NotEqual(t, circuit.Key(a), circuit.Key(c))
}

func TestCompileBookkeepingAndArrays(t *testing.T) {
	p := mustCompile(t, `
op: Swapish: {
	signature: [{name: "x", dtype: "QUInt(2)"}]
	steps: [
		{bookkeeping: "Split", params: {dtype: "QUInt(2)"}, in: {reg: "x"}, out: {reg: ["hi", "lo"]}},
		{gate: "CNOT", in: {ctrl: "hi", target: "lo"}, out: {ctrl: "hi", target: "lo"}},
		{bookkeeping: "Join", params: {dtype: "QUInt(2)"}, in: {reg: ["hi", "lo"]}, out: {reg: "x"}},
	]
}
`)
	d, ok := p.Lookup("Swapish")
	require.True(t, ok)
	assert.Equal(t, []string{"Split(QUInt(2))", "CNOT", "Join(QUInt(2))"}, stepNames(t, d))
	assert.Empty(t, Validate(p))
}

func TestCompileAlwaysStep(t *testing.T) {
	p := mustCompile(t, `
op: Sandwich: {
	signature: [{name: "q", dtype: "QBit"}]
	steps: [{gate: "H", always: true}, {gate: "X"}, {gate: "H", always: true}]
}
`)
	d, _ := p.Lookup("Sandwich")
	assert.Equal(t, []string{"Always(H)", "X", "Always(H)"}, stepNames(t, d))
}

func TestCompileControlPortNames(t *testing.T) {
	p := mustCompile(t, `
op: {
	Flip: {
		signature: [{name: "ctrl", dtype: "QBit"}, {name: "q", dtype: "QBit"}]
		steps: [{gate: "X", ctrl: [1]}]
	}
	CCX: {
		signature: [{name: "c", dtype: "QBit"}, {name: "a", dtype: "QBit"}, {name: "t", dtype: "QBit"}]
		steps: [{gate: "CNOT", ctrl: [1], in: {ctrl_1: "c", ctrl: "a", target: "t"}, out: {ctrl_1: "c", ctrl: "a", target: "t"}}]
	}
	CZed: {
		signature: [{name: "c", dtype: "QBit"}, {name: "q", dtype: "QBit"}]
		steps: [{gate: "Z", ctrl: [1], in: {ctrl: "c"}, out: {ctrl: "c"}}]
	}
	Nested: {
		signature: [{name: "c", dtype: "QBit"}, {name: "ctrl", dtype: "QBit"}, {name: "q", dtype: "QBit"}]
		steps: [{call: "Flip", ctrl: [1], in: {ctrl_1: "c"}, out: {ctrl_1: "c"}}]
	}
}
`)
	assert.Empty(t, Validate(p))

	tests := []struct {
		name  string
		steps []string
	}{
		{"Flip", []string{"CNOT"}},
		{"CCX", []string{"Toffoli"}},
		{"CZed", []string{"CZ"}},
		{"Nested", []string{"C[QBit=1](Flip)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := p.Lookup(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.steps, stepNames(t, d))
		})
	}

	nested, _ := p.Lookup("Nested")
	flat, err := circuit.Flatten(nested, 4)
	require.NoError(t, err)
	require.Equal(t, 1, flat.NumInstances())

	// Controlling a definition that already contains a controlled call.
	cop, err := transform.Controlled(nested, transform.DefaultCtrl())
	require.NoError(t, err)
	g, err := circuit.Decompose(cop)
	require.NoError(t, err)
	assert.NoError(t, g.Validate())
}

func TestCompileRotationParams(t *testing.T) {
	p := mustCompile(t, `
op: Rot: {
	signature: [{name: "q", dtype: "QBit"}]
	steps: [{gate: "Rz", params: {angle: "theta"}}]
}
`)
	d, _ := p.Lookup("Rot")
	e, err := cost.NewEngine()
	require.NoError(t, err)
	c, err := e.Cost(d, cost.GateCounts)
	require.NoError(t, err)
	assert.Equal(t, "{rotation: 1}", c.String())
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{
			name: "unknown gate",
			src:  `op: A: {signature: [{name: "q", dtype: "QBit"}], steps: [{gate: "Foo"}]}`,
			code: ErrUnknownGate,
		},
		{
			name: "two step kinds",
			src:  `op: A: {signature: [{name: "q", dtype: "QBit"}], steps: [{gate: "X", call: "A"}]}`,
			code: ErrStepKind,
		},
		{
			name: "undefined call",
			src:  `op: A: {signature: [{name: "q", dtype: "QBit"}], steps: [{call: "Nowhere"}]}`,
			code: ErrUnknownDefinition,
		},
		{
			name: "unknown field",
			src:  `op: A: {signature: [{name: "q", dtype: "QBit"}], steps: [{gate: "X", color: "red"}]}`,
			code: ErrCUE,
		},
		{
			name: "bad dtype",
			src:  `op: A: {signature: [{name: "q", dtype: "QFoo"}], steps: []}`,
			code: ErrBadSignature,
		},
		{
			name: "float param",
			src:  `op: A: {signature: [{name: "q", dtype: "QBit"}], steps: [{gate: "Rz", params: {angle: 0.5}}]}`,
			code: ErrBadParams,
		},
		{
			name: "gate params rejected",
			src:  `op: A: {signature: [{name: "q", dtype: "QBit"}], steps: [{gate: "X", params: {angle: "t"}}]}`,
			code: ErrBadParams,
		},
		{
			name: "unknown output port",
			src:  `op: A: {signature: [{name: "q", dtype: "QBit"}], steps: [], outputs: {r: "q"}}`,
			code: ErrWiring,
		},
		{
			name: "doubly controlled X",
			src:  `op: A: {signature: [{name: "q", dtype: "QBit"}], steps: [{gate: "X", ctrl: [1, 1]}]}`,
			code: ErrTransform,
		},
		{
			name: "measure has no adjoint",
			src:  `op: A: {signature: [{name: "q", dtype: "QBit"}], steps: [{gate: "Measure", adjoint: true}]}`,
			code: ErrTransform,
		},
		{
			name: "partition widths",
			src: `op: A: {
				signature: [{name: "q", dtype: "QBit"}]
				steps: [{bookkeeping: "Partition", params: {n: 4, regs: [{name: "lo", dtype: "QUInt(3)"}]}}]
			}`,
			code: ErrStructural,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileSource(t, tt.src)
			ce := compileErr(t, err)
			assert.Equal(t, tt.code, ce.Code, ce.Error())
		})
	}
}

func TestCompileErrorHasPosition(t *testing.T) {
	_, err := compileSource(t, `
op: A: {
	signature: [{name: "q", dtype: "QBit"}]
	steps: [{gate: "Foo"}]
}
`)
	ce := compileErr(t, err)
	require.True(t, ce.Pos.IsValid())
	assert.Equal(t, "defs.cue", ce.Pos.Filename())
	assert.Equal(t, 4, ce.Pos.Line())
	assert.Contains(t, ce.Error(), "defs.cue:4:")
}

func TestCompileCycles(t *testing.T) {
	_, err := compileSource(t, `
op: {
	A: {signature: [{name: "q", dtype: "QBit"}], steps: [{call: "B"}]}
	B: {signature: [{name: "q", dtype: "QBit"}], steps: [{call: "A"}]}
}
`)
	ce := compileErr(t, err)
	assert.Equal(t, ErrCyclicDefinition, ce.Code)
	assert.True(t, circuit.IsCyclicDefinition(err))

	var cause *circuit.Error
	require.ErrorAs(t, err, &cause)
	assert.Equal(t, []string{"A", "B", "A"}, cause.Path)

	_, err = compileSource(t, `op: Loop: {signature: [{name: "q", dtype: "QBit"}], steps: [{call: "Loop"}]}`)
	assert.True(t, circuit.IsCyclicDefinition(err))
}

func TestParseAllCollectsErrors(t *testing.T) {
	v := cuecontext.New().CompileString(`
op: {
	Good: {signature: [{name: "q", dtype: "QBit"}], steps: [{gate: "X"}]}
	Bad1: {signature: [{name: "q", dtype: "QBit"}], steps: [{gate: "Nope"}]}
	Bad2: {signature: [{name: "q", dtype: "Q"}], steps: []}
}
`)
	specs, errs := ParseAll(v)
	assert.Len(t, specs, 1)
	assert.Len(t, errs, 2)
}

func TestParseDefinitionDirect(t *testing.T) {
	v := cuecontext.New().CompileString(bellSource)
	spec, err := ParseDefinition(v.LookupPath(cue.ParsePath("op.Bell")))
	require.NoError(t, err)
	assert.Equal(t, "Bell", spec.Name)
	require.Len(t, spec.Steps, 2)
	assert.Equal(t, StepGate, spec.Steps[0].Kind)
	assert.Equal(t, "H", spec.Steps[0].Name)
	assert.Equal(t, Wires{"q": {"a"}}, spec.Steps[0].In)
	assert.Equal(t, Wires{"ctrl": {"a"}, "target": {"b"}}, spec.Steps[1].Out)
	assert.Contains(t, spec.Source, "signature")
}
