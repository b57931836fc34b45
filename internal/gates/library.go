package gates

import (
	"fmt"
	"slices"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/ir"
)

var library = map[string]circuit.Op{
	"X":          X{},
	"Z":          Z{},
	"H":          H{},
	"S":          S{},
	"T":          T{},
	"CNOT":       CNOT{},
	"CZ":         CZ{},
	"Toffoli":    Toffoli{},
	"ZeroState":  ZeroState{},
	"ZeroEffect": ZeroEffect{},
	"PlusState":  PlusState{},
	"PlusEffect": PlusEffect{},
	"Measure":    Measure{},
}

// Names lists the library gates in sorted order, including Rz.
func Names() []string {
	names := make([]string, 0, len(library)+1)
	for name := range library {
		names = append(names, name)
	}
	names = append(names, "Rz")
	slices.Sort(names)
	return names
}

// IsGate reports whether name is a library gate.
func IsGate(name string) bool {
	_, ok := library[name]
	return ok || name == "Rz"
}

// New returns the library gate called name. Rz requires an "angle" string
// parameter; no other gate accepts parameters.
func New(name string, params ir.IRObject) (circuit.Op, error) {
	if name == "Rz" {
		angle, ok := params["angle"].(ir.IRString)
		if !ok || angle == "" || len(params) != 1 {
			return nil, fmt.Errorf("gate Rz requires exactly one string parameter \"angle\"")
		}
		return Rz{Angle: string(angle)}, nil
	}
	op, ok := library[name]
	if !ok {
		return nil, fmt.Errorf("unknown gate %q", name)
	}
	if len(params) > 0 {
		return nil, fmt.Errorf("gate %s takes no parameters", name)
	}
	return op, nil
}
