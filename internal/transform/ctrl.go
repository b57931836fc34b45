package transform

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
)

// CtrlReg is one control register: its dtype and the value that activates
// the controlled op.
type CtrlReg struct {
	DType ir.DType
	CV    sym.Expr
}

// CtrlSpec describes the control registers of a controlled op.
type CtrlSpec struct {
	regs []CtrlReg
}

// NewCtrlSpec validates regs. Every register needs a dtype and an activating
// value that fits its width when both are concrete.
func NewCtrlSpec(regs ...CtrlReg) (CtrlSpec, error) {
	if len(regs) == 0 {
		return CtrlSpec{}, &circuit.Error{Kind: circuit.KindUnsupportedControl, Message: "control spec needs at least one register"}
	}
	for i, r := range regs {
		if r.DType == nil || r.CV == nil {
			return CtrlSpec{}, &circuit.Error{
				Kind:    circuit.KindUnsupportedControl,
				Message: fmt.Sprintf("control register %d needs a dtype and a value", i),
			}
		}
		cv, cvOK := sym.Value(r.CV)
		bits, bitsOK := ir.ConcreteBits(r.DType)
		if cvOK && bitsOK && (cv < 0 || (bits < 63 && cv >= int64(1)<<bits)) {
			return CtrlSpec{}, &circuit.Error{
				Kind:    circuit.KindUnsupportedControl,
				Message: fmt.Sprintf("control value %d does not fit %s", cv, r.DType),
			}
		}
	}
	return CtrlSpec{regs: append([]CtrlReg(nil), regs...)}, nil
}

// DefaultCtrl is a single qubit activating on 1.
func DefaultCtrl() CtrlSpec {
	return CtrlSpec{regs: []CtrlReg{{DType: ir.QBit{}, CV: sym.Int(1)}}}
}

// CtrlOn returns one qubit control per value; each value must be 0 or 1.
func CtrlOn(cvs ...int64) (CtrlSpec, error) {
	regs := make([]CtrlReg, len(cvs))
	for i, cv := range cvs {
		regs[i] = CtrlReg{DType: ir.QBit{}, CV: sym.Int(cv)}
	}
	return NewCtrlSpec(regs...)
}

// Regs returns the control registers.
func (c CtrlSpec) Regs() []CtrlReg { return append([]CtrlReg(nil), c.regs...) }

// Len is the number of control registers.
func (c CtrlSpec) Len() int { return len(c.regs) }

// IsDefault reports whether c is a single qubit activating on 1.
func (c CtrlSpec) IsDefault() bool { return c.Equal(DefaultCtrl()) }

// Equal compares two specs structurally.
func (c CtrlSpec) Equal(o CtrlSpec) bool {
	if len(c.regs) != len(o.regs) {
		return false
	}
	for i := range c.regs {
		if !ir.DTypeEqual(c.regs[i].DType, o.regs[i].DType) || !sym.Equal(c.regs[i].CV, o.regs[i].CV) {
			return false
		}
	}
	return true
}

// PortNames returns "ctrl" for a single register and ctrl0..ctrlN otherwise.
func (c CtrlSpec) PortNames() []string {
	if len(c.regs) == 1 {
		return []string{"ctrl"}
	}
	names := make([]string, len(c.regs))
	for i := range c.regs {
		names[i] = fmt.Sprintf("ctrl%d", i)
	}
	return names
}

// PortNamesFor returns the control port names used when c controls an op
// with signature sig. They are PortNames, suffixed with _1, _2 and so on
// until none of them is already a port of sig.
func (c CtrlSpec) PortNamesFor(sig ir.Signature) []string {
	taken := map[string]bool{}
	for _, p := range sig.Ports() {
		taken[p.Name] = true
	}
	base := c.PortNames()
	names := base
	for k := 1; slices.ContainsFunc(names, func(n string) bool { return taken[n] }); k++ {
		names = make([]string, len(base))
		for i, b := range base {
			names[i] = fmt.Sprintf("%s_%d", b, k)
		}
	}
	return names
}

// Ports returns the THRU ports carrying the controls.
func (c CtrlSpec) Ports() []ir.Port { return c.ports(c.PortNames()) }

func (c CtrlSpec) ports(names []string) []ir.Port {
	ports := make([]ir.Port, len(c.regs))
	for i, r := range c.regs {
		ports[i] = ir.NewPort(names[i], r.DType)
	}
	return ports
}

// Params returns the canonical description used in op identity.
func (c CtrlSpec) Params() ir.IRArray {
	arr := make(ir.IRArray, len(c.regs))
	for i, r := range c.regs {
		arr[i] = ir.IRObject{"dtype": ir.IRString(r.DType.String()), "cv": ir.Expr(r.CV)}
	}
	return arr
}

func (c CtrlSpec) String() string {
	parts := make([]string, len(c.regs))
	for i, r := range c.regs {
		parts[i] = fmt.Sprintf("%s=%s", r.DType, r.CV)
	}
	return "C[" + strings.Join(parts, ",") + "]"
}
