package compiler

import (
	"fmt"
	"slices"

	"cuelang.org/go/cue"

	"github.com/roach88/qwire/internal/bookkeeping"
	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/gates"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/transform"
)

// Program is a set of linked definitions.
type Program struct {
	defs  map[string]*Definition
	order []string
}

// Lookup returns the definition called name.
func (p *Program) Lookup(name string) (*Definition, bool) {
	d, ok := p.defs[name]
	return d, ok
}

// Names lists the definitions with callees before callers.
func (p *Program) Names() []string { return slices.Clone(p.order) }

// Definitions returns the definitions with callees before callers.
func (p *Program) Definitions() []*Definition {
	out := make([]*Definition, len(p.order))
	for i, name := range p.order {
		out[i] = p.defs[name]
	}
	return out
}

// Len is the number of definitions.
func (p *Program) Len() int { return len(p.order) }

// Compile parses and links every definition under the op field of v.
func Compile(v cue.Value) (*Program, error) {
	specs, errs := ParseAll(v)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return Link(specs)
}

// ParseAll checks v against the definition schema and parses every
// definition under op. It collects one error per failing definition.
func ParseAll(v cue.Value) ([]*Spec, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}
	if err := applySchema(v); err != nil {
		return nil, []error{err}
	}
	// Definitions are read from v itself so positions point at the source
	// rather than at the schema.
	ops := v.LookupPath(cue.ParsePath("op"))
	if !ops.Exists() {
		return nil, nil
	}
	iter, err := ops.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var (
		specs []*Spec
		errs  []error
	)
	for iter.Next() {
		spec, err := ParseDefinition(iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		specs = append(specs, spec)
	}
	return specs, errs
}

// Link resolves calls between specs and builds their operations. Calls are
// checked for cycles first.
func Link(specs []*Spec) (*Program, error) {
	byName := make(map[string]*Spec, len(specs))
	for _, s := range specs {
		if _, dup := byName[s.Name]; dup {
			return nil, errorAt(s.Pos, ErrCUE, s.Name, "duplicate definition %q", s.Name)
		}
		byName[s.Name] = s
	}
	for _, s := range specs {
		for i, st := range s.Steps {
			if st.Kind == StepCall {
				if _, ok := byName[st.Name]; !ok {
					return nil, errorAt(st.Pos, ErrUnknownDefinition, fmt.Sprintf("%s.steps[%d].call", s.Name, i), "undefined op %q", st.Name)
				}
			}
		}
	}

	if cycles := AnalyzeCycles(specs); len(cycles) > 0 {
		c := cycles[0]
		cause := &circuit.Error{
			Kind:    circuit.KindCyclicDefinition,
			Op:      c.Path[0],
			Message: c.Message,
			Path:    c.Path,
		}
		return nil, wrapAt(byName[c.Path[0]].Pos, c.Path[0], cause)
	}

	p := &Program{defs: make(map[string]*Definition, len(specs))}
	for _, name := range linkOrder(specs) {
		d, err := p.link(byName[name])
		if err != nil {
			return nil, err
		}
		p.defs[name] = d
		p.order = append(p.order, name)
	}
	return p, nil
}

func (p *Program) link(s *Spec) (*Definition, error) {
	digest, err := ir.DefinitionKey(s.Source)
	if err != nil {
		return nil, errorAt(s.Pos, ErrCUE, s.Name, "%v", err)
	}
	d := &Definition{spec: s, digest: digest}
	for i, st := range s.Steps {
		field := fmt.Sprintf("%s.steps[%d]", s.Name, i)
		op, renames, err := p.stepOp(st, field)
		if err != nil {
			return nil, err
		}
		d.ops = append(d.ops, op)
		d.renames = append(d.renames, renames)
	}
	return d, nil
}

// stepOp builds the op a step instantiates. Modifiers apply in the order
// adjoint, ctrl, always. The returned map renames the step's port names to
// the ports of the controlled op.
func (p *Program) stepOp(st Step, field string) (circuit.Op, map[string]string, error) {
	var (
		op  circuit.Op
		err error
	)
	switch st.Kind {
	case StepGate:
		op, err = gates.New(st.Name, st.Params)
		if err != nil {
			return nil, nil, errorAt(st.Pos, ErrBadParams, field+".params", "%v", err)
		}
	case StepBookkeeping:
		op, err = bookkeeping.New(st.Name, st.Params)
		if err != nil {
			if _, ok := circuit.KindOf(err); ok {
				return nil, nil, wrapAt(st.Pos, field+".params", err)
			}
			return nil, nil, errorAt(st.Pos, ErrBadParams, field+".params", "%v", err)
		}
	case StepCall:
		if len(st.Params) > 0 {
			return nil, nil, errorAt(st.Pos, ErrBadParams, field+".params", "calls take no params")
		}
		op = p.defs[st.Name]
	}

	if st.Adjoint {
		if op, err = transform.Adjoint(op); err != nil {
			return nil, nil, wrapAt(st.Pos, field+".adjoint", err)
		}
	}
	var renames map[string]string
	if st.Ctrl != nil {
		spec, err := transform.CtrlOn(st.Ctrl...)
		if err != nil {
			return nil, nil, wrapAt(st.Pos, field+".ctrl", err)
		}
		cs, err := transform.ControlSystemFor(op, spec)
		if err != nil {
			return nil, nil, wrapAt(st.Pos, field+".ctrl", err)
		}
		op, renames = cs.Op, controlRenames(op, spec, cs)
	}
	if st.Always {
		op = bookkeeping.NewAlways(op)
	}
	return op, renames, nil
}

// Definition is the operation compiled from a Spec. It decomposes by
// replaying its steps; its identity is its name plus a hash of its source.
type Definition struct {
	spec    *Spec
	digest  string
	ops     []circuit.Op
	renames []map[string]string
}

// Spec returns the parsed source.
func (d *Definition) Spec() *Spec { return d.spec }

// Steps returns the op each step instantiates, in order.
func (d *Definition) Steps() []circuit.Op { return slices.Clone(d.ops) }

func (d *Definition) Kind() string { return "Definition" }

func (d *Definition) Params() ir.IRObject {
	return ir.IRObject{
		"name":   ir.IRString(d.spec.Name),
		"digest": ir.IRString(d.digest),
	}
}

func (d *Definition) Signature() ir.Signature { return d.spec.Signature }

func (d *Definition) String() string { return d.spec.Name }

func (d *Definition) Decompose(bb *circuit.Builder, in circuit.Wiring) (circuit.Wiring, error) {
	scope := wireScope{vars: map[string]circuit.Value{}, consumed: map[string]bool{}}
	for name, v := range in {
		scope.vars[name] = v
	}

	for i, st := range d.spec.Steps {
		op := d.ops[i]
		field := fmt.Sprintf("%s.steps[%d]", d.spec.Name, i)
		sig := op.Signature()

		wires, err := resolveWires(sig.Lefts(), st.In, d.renames[i], st.Pos, field+".in")
		if err != nil {
			return nil, err
		}
		w, err := scope.take(sig.Lefts(), wires, st.Pos, field+".in")
		if err != nil {
			return nil, err
		}
		out, err := bb.Add(op, w)
		if err != nil {
			return nil, wrapAt(st.Pos, field, err)
		}
		if wires, err = resolveWires(sig.Rights(), st.Out, d.renames[i], st.Pos, field+".out"); err != nil {
			return nil, err
		}
		if err := scope.bind(sig.Rights(), wires, out, st.Pos, field+".out"); err != nil {
			return nil, err
		}
	}

	rights := d.spec.Signature.Rights()
	wires, err := resolveWires(rights, d.spec.Outputs, nil, d.spec.Pos, d.spec.Name+".outputs")
	if err != nil {
		return nil, err
	}
	return scope.take(rights, wires, d.spec.Pos, d.spec.Name+".outputs")
}

// controlRenames maps the names a step writes to the ports of cs. The op's
// own ports keep their names and the added controls are always written as
// CtrlSpec.PortNamesFor(op) gives them: ctrl, or ctrl_1 when op already has
// a ctrl port. Which specialized op cs turned out to be does not matter.
func controlRenames(op circuit.Op, spec transform.CtrlSpec, cs transform.ControlSystem) map[string]string {
	renames := make(map[string]string, len(cs.PortMap)+spec.Len())
	for from, to := range cs.PortMap {
		renames[from] = to
	}
	for i, name := range spec.PortNamesFor(op.Signature()) {
		renames[name] = cs.CtrlPorts[i]
	}
	return renames
}
