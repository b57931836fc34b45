package verify

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/ir"
)

// Violation is a release requirement that could not be proven.
type Violation struct {
	// Path lists the enclosing ops from the verified op down to the graph
	// holding the instance.
	Path     []string
	Instance circuit.NodeID
	Op       string
	Port     string
	Reason   string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s %s port %q: %s", strings.Join(v.Path, "/"), v.Instance, v.Op, v.Port, v.Reason)
}

// Report is the outcome of verifying one op.
type Report struct {
	Op string
	// Outputs holds the tracked bits on the op's RIGHT ports.
	Outputs    State
	Violations []Violation
}

// OK reports whether no violation was found.
func (r *Report) OK() bool { return len(r.Violations) == 0 }

func (r *Report) String() string {
	if r.OK() {
		return fmt.Sprintf("%s: ok", r.Op)
	}
	lines := make([]string, 0, len(r.Violations)+1)
	lines = append(lines, fmt.Sprintf("%s: %d violation(s)", r.Op, len(r.Violations)))
	for _, v := range r.Violations {
		lines = append(lines, "  "+v.String())
	}
	return strings.Join(lines, "\n")
}

// Error is returned by Strict when a report has violations.
type Error struct {
	Report *Report
}

func (e *Error) Error() string {
	first := e.Report.Violations[0]
	if n := len(e.Report.Violations); n > 1 {
		return fmt.Sprintf("verify %s: %s (and %d more)", e.Report.Op, first, n-1)
	}
	return fmt.Sprintf("verify %s: %s", e.Report.Op, first)
}

// IsViolation reports whether err carries a failed verification report.
func IsViolation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// Option configures a verification run.
type Option func(*verifier)

// WithInputs sets the known bits of the verified op's LEFT ports. Ports
// not listed are unknown.
func WithInputs(in State) Option {
	return func(v *verifier) {
		v.inputs = in
	}
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *slog.Logger) Option {
	return func(v *verifier) {
		v.logger = l
	}
}

type verifier struct {
	inputs State
	logger *slog.Logger
	active map[string]bool
}

func newVerifier(opts []Option) *verifier {
	v := &verifier{
		inputs: State{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		active: map[string]bool{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify tracks basis states through op's decomposition and reports every
// release requirement that cannot be proven. A leaf op is checked as a
// single instance.
//
// Verification is advisory: violations are reported, not returned as
// errors. Errors are reserved for ops that cannot be decomposed or wired.
func Verify(op circuit.Op, opts ...Option) (*Report, error) {
	g, err := circuit.Decompose(op)
	if circuit.IsDecomposeNotImplemented(err) {
		g, err = single(op)
	}
	if err != nil {
		return nil, err
	}
	v := newVerifier(opts)
	v.active[circuit.Key(op)] = true
	name := circuit.Name(op)
	out, viols := v.run(g, v.inputs, []string{name})
	return &Report{Op: name, Outputs: out, Violations: viols}, nil
}

// VerifyGraph verifies a finalized graph directly.
func VerifyGraph(g *circuit.Graph, opts ...Option) *Report {
	v := newVerifier(opts)
	name := circuit.Name(g)
	out, viols := v.run(g, v.inputs, []string{name})
	return &Report{Op: name, Outputs: out, Violations: viols}
}

// Strict is Verify that fails with an *Error when any violation exists.
func Strict(op circuit.Op, opts ...Option) error {
	r, err := Verify(op, opts...)
	if err != nil {
		return err
	}
	if !r.OK() {
		return &Error{Report: r}
	}
	return nil
}

func single(op circuit.Op) (*circuit.Graph, error) {
	bb, in, err := circuit.FromSignature(op.Signature())
	if err != nil {
		return nil, err
	}
	out, err := bb.Add(op, in)
	if err != nil {
		return nil, err
	}
	return bb.Finalize(out)
}

// run propagates `in` through g and returns the bits on g's RIGHT ports.
func (v *verifier) run(g *circuit.Graph, in State, path []string) (State, []Violation) {
	wires := map[circuit.Slot][]Bit{}
	var viols []Violation

	put := func(node circuit.NodeID, ports []ir.Port, st State) {
		for _, p := range ports {
			width, n, ok := layout(p)
			bits := st[p.Name]
			for i := range n {
				var seg []Bit
				switch {
				case !ok:
				case len(bits) == width*n:
					seg = bits[i*width : (i+1)*width]
				default:
					seg = Bits(width, Unknown)
				}
				wires[circuit.Slot{Node: node, Port: p.Name, Index: i}] = seg
			}
		}
	}
	get := func(node circuit.NodeID, ports []ir.Port) State {
		st := make(State, len(ports))
		for _, p := range ports {
			_, n, ok := layout(p)
			if !ok {
				st[p.Name] = nil
				continue
			}
			var bits []Bit
			for i := range n {
				c, _ := g.Incoming(circuit.Slot{Node: node, Port: p.Name, Index: i})
				bits = append(bits, wires[c.From]...)
			}
			st[p.Name] = bits
		}
		return st
	}

	put(circuit.LeftDangle, g.Signature().Lefts(), in)
	for _, id := range g.TopoOrder() {
		inst, _ := g.Instance(id)
		op := inst.Op
		sig := op.Signature()
		st := get(id, sig.Lefts())

		if r, ok := op.(Releaser); ok {
			for _, port := range r.Releases() {
				if reason := releaseProblem(st[port]); reason != "" {
					viols = append(viols, Violation{
						Path:     append([]string(nil), path...),
						Instance: id,
						Op:       circuit.Name(op),
						Port:     port,
						Reason:   reason,
					})
				}
			}
		}

		out, sub := v.apply(op, st, path)
		viols = append(viols, sub...)
		put(id, sig.Rights(), out)
	}
	return get(circuit.RightDangle, g.Signature().Rights()), viols
}

func (v *verifier) apply(op circuit.Op, in State, path []string) (State, []Violation) {
	if m, ok := op.(BasisMapper); ok {
		if out, ok := m.ApplyBasis(in); ok {
			return out, nil
		}
		return State{}, nil
	}
	key := circuit.Key(op)
	if v.active[key] {
		return State{}, nil
	}
	g, err := circuit.Decompose(op)
	if err != nil {
		v.logger.Debug("basis action unknown", "op", circuit.Name(op), "reason", err.Error())
		return State{}, nil
	}
	v.active[key] = true
	defer delete(v.active, key)
	return v.run(g, in, append(append([]string(nil), path...), circuit.Name(op)))
}

func releaseProblem(bits []Bit) string {
	if bits == nil {
		return "register width is not concrete"
	}
	if AllZero(bits) {
		return ""
	}
	for _, b := range bits {
		if b == One {
			return fmt.Sprintf("released in state %s, want all zero", Format(bits))
		}
	}
	return fmt.Sprintf("not provably zero: %s", Format(bits))
}

// layout returns the element width and element count of p.
func layout(p ir.Port) (width, n int, ok bool) {
	w, wok := ir.ConcreteBits(p.DType)
	shape, sok := p.ShapeInts()
	if !wok || !sok {
		return 0, 0, false
	}
	n = 1
	for _, d := range shape {
		n *= d
	}
	return w, n, true
}
