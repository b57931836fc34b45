package compiler

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qwire/internal/bookkeeping"
	"github.com/roach88/qwire/internal/gates"
	"github.com/roach88/qwire/internal/ir"
)

// Wires maps port names to wire variable names. A list of variables on an
// input port is stacked into one array; on an output port the array is
// unpacked along its leading axis.
type Wires map[string][]string

// StepKind says what a step instantiates.
type StepKind string

const (
	StepGate        StepKind = "gate"
	StepCall        StepKind = "call"
	StepBookkeeping StepKind = "bookkeeping"
)

// Step is one instruction of a definition.
type Step struct {
	Kind    StepKind
	Name    string
	Params  ir.IRObject
	Adjoint bool
	Always  bool
	// Ctrl lists control values; nil means uncontrolled.
	Ctrl []int64
	In   Wires
	Out  Wires
	Pos  token.Pos
}

// Spec is a parsed, not yet linked, operation definition.
type Spec struct {
	Name      string
	Signature ir.Signature
	Steps     []Step
	Outputs   Wires
	// Source is the definition as IR; its hash is part of the op's identity.
	Source ir.IRObject
	Pos    token.Pos
}

// Calls returns the distinct definitions called by s, in step order.
func (s *Spec) Calls() []string {
	var out []string
	for _, st := range s.Steps {
		if st.Kind == StepCall && !slices.Contains(out, st.Name) {
			out = append(out, st.Name)
		}
	}
	return out
}

// ParseDefinition reads a single definition. v is the definition struct
// itself, e.g. the value at path op.Bell.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`op: Bell: { signature: [...], steps: [...] }`)
//	spec, err := ParseDefinition(v.LookupPath(cue.ParsePath("op.Bell")))
func ParseDefinition(v cue.Value) (*Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &Spec{Pos: v.Pos()}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		spec.Name = sels[len(sels)-1].Unquoted()
	}
	if spec.Name == "" {
		return nil, errorAt(v.Pos(), ErrCUE, "op", "definition has no name")
	}

	src, err := toIR(v)
	if err != nil {
		return nil, err
	}
	obj, ok := src.(ir.IRObject)
	if !ok {
		return nil, errorAt(v.Pos(), ErrCUE, spec.Name, "definition must be a struct")
	}
	spec.Source = obj

	spec.Signature, err = parseSignature(v)
	if err != nil {
		return nil, err
	}

	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	if !stepsVal.Exists() {
		return nil, errorAt(v.Pos(), ErrCUE, "steps", "steps is required")
	}
	iter, err := stepsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		st, err := parseStep(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		spec.Steps = append(spec.Steps, st)
	}

	if out := v.LookupPath(cue.ParsePath("outputs")); out.Exists() {
		spec.Outputs, err = parseWires(out, "outputs")
		if err != nil {
			return nil, err
		}
	}
	for port := range spec.Outputs {
		if _, ok := spec.Signature.Right(port); !ok {
			return nil, errorAt(v.Pos(), ErrWiring, "outputs", "%q is not an output port", port)
		}
	}
	return spec, nil
}

func parseSignature(v cue.Value) (ir.Signature, error) {
	sigVal := v.LookupPath(cue.ParsePath("signature"))
	if !sigVal.Exists() {
		return ir.Signature{}, errorAt(v.Pos(), ErrBadSignature, "signature", "signature is required")
	}
	iter, err := sigVal.List()
	if err != nil {
		return ir.Signature{}, formatCUEError(err)
	}

	var ports []ir.Port
	for i := 0; iter.Next(); i++ {
		pv := iter.Value()
		field := fmt.Sprintf("signature[%d]", i)

		name, err := pv.LookupPath(cue.ParsePath("name")).String()
		if err != nil {
			return ir.Signature{}, errorAt(pv.Pos(), ErrBadSignature, field, "port needs a name")
		}
		dts, err := pv.LookupPath(cue.ParsePath("dtype")).String()
		if err != nil {
			return ir.Signature{}, errorAt(pv.Pos(), ErrBadSignature, field, "port %q needs a dtype", name)
		}
		dt, err := ir.ParseDType(dts)
		if err != nil {
			return ir.Signature{}, errorAt(pv.Pos(), ErrBadSignature, field+".dtype", "%v", err)
		}

		var shape []int
		if sv := pv.LookupPath(cue.ParsePath("shape")); sv.Exists() {
			var dims []int64
			if err := sv.Decode(&dims); err != nil {
				return ir.Signature{}, formatCUEError(err)
			}
			for _, d := range dims {
				if d < 0 {
					return ir.Signature{}, errorAt(sv.Pos(), ErrBadSignature, field+".shape", "negative dimension %d", d)
				}
				shape = append(shape, int(d))
			}
		}

		side := ir.SideThru
		if sv := pv.LookupPath(cue.ParsePath("side")); sv.Exists() {
			s, err := sv.String()
			if err != nil {
				return ir.Signature{}, formatCUEError(err)
			}
			if side, err = ir.ParseSide(s); err != nil {
				return ir.Signature{}, errorAt(sv.Pos(), ErrBadSignature, field+".side", "%v", err)
			}
		}
		ports = append(ports, ir.NewPort(name, dt, shape...).WithSide(side))
	}

	sig, err := ir.NewSignature(ports...)
	if err != nil {
		return ir.Signature{}, errorAt(sigVal.Pos(), ErrBadSignature, "signature", "%v", err)
	}
	return sig, nil
}

func parseStep(v cue.Value, i int) (Step, error) {
	field := fmt.Sprintf("steps[%d]", i)
	st := Step{Pos: v.Pos()}

	var kinds []StepKind
	for _, k := range []StepKind{StepGate, StepCall, StepBookkeeping} {
		kv := v.LookupPath(cue.ParsePath(string(k)))
		if !kv.Exists() {
			continue
		}
		name, err := kv.String()
		if err != nil {
			return Step{}, formatCUEError(err)
		}
		st.Kind, st.Name = k, name
		kinds = append(kinds, k)
	}
	if len(kinds) != 1 {
		return Step{}, errorAt(v.Pos(), ErrStepKind, field, "step must name exactly one of gate, call or bookkeeping")
	}
	switch st.Kind {
	case StepGate:
		if !gates.IsGate(st.Name) {
			return Step{}, errorAt(v.Pos(), ErrUnknownGate, field+".gate", "unknown gate %q (have %v)", st.Name, gates.Names())
		}
	case StepBookkeeping:
		if !bookkeeping.IsBookkeeping(st.Name) {
			return Step{}, errorAt(v.Pos(), ErrStepKind, field+".bookkeeping", "unknown bookkeeping op %q", st.Name)
		}
	}

	if pv := v.LookupPath(cue.ParsePath("params")); pv.Exists() {
		p, err := toIR(pv)
		if err != nil {
			return Step{}, err
		}
		obj, ok := p.(ir.IRObject)
		if !ok {
			return Step{}, errorAt(pv.Pos(), ErrBadParams, field+".params", "params must be a struct")
		}
		st.Params = obj
	}

	var err error
	if st.Adjoint, err = optBool(v, "adjoint"); err != nil {
		return Step{}, err
	}
	if st.Always, err = optBool(v, "always"); err != nil {
		return Step{}, err
	}
	if cv := v.LookupPath(cue.ParsePath("ctrl")); cv.Exists() {
		if err := cv.Decode(&st.Ctrl); err != nil {
			return Step{}, formatCUEError(err)
		}
		if len(st.Ctrl) == 0 {
			return Step{}, errorAt(cv.Pos(), ErrTransform, field+".ctrl", "ctrl needs at least one control value")
		}
	}

	if iv := v.LookupPath(cue.ParsePath("in")); iv.Exists() {
		if st.In, err = parseWires(iv, field+".in"); err != nil {
			return Step{}, err
		}
	}
	if ov := v.LookupPath(cue.ParsePath("out")); ov.Exists() {
		if st.Out, err = parseWires(ov, field+".out"); err != nil {
			return Step{}, err
		}
	}
	return st, nil
}

func optBool(v cue.Value, name string) (bool, error) {
	bv := v.LookupPath(cue.ParsePath(name))
	if !bv.Exists() {
		return false, nil
	}
	b, err := bv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func parseWires(v cue.Value, field string) (Wires, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	w := Wires{}
	for iter.Next() {
		port := iter.Selector().Unquoted()
		val := iter.Value()
		if s, err := val.String(); err == nil {
			w[port] = []string{s}
			continue
		}
		var names []string
		if err := val.Decode(&names); err != nil {
			return nil, errorAt(val.Pos(), ErrWiring, field+"."+port, "must be a variable name or a list of names")
		}
		if len(names) == 0 {
			return nil, errorAt(val.Pos(), ErrWiring, field+"."+port, "empty variable list")
		}
		w[port] = names
	}
	return w, nil
}
