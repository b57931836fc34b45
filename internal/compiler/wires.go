package compiler

import (
	"slices"

	"cuelang.org/go/cue/token"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/ir"
)

// resolveWires keys a step's wires by the ports of the op it instantiates.
// A port missing from wires uses the variable with the port's own name.
// renames maps names written in the source to the op's port names.
func resolveWires(ports []ir.Port, wires Wires, renames map[string]string, pos token.Pos, field string) (Wires, error) {
	source := make(map[string]string, len(ports))
	for _, p := range ports {
		source[p.Name] = p.Name
	}
	for from, to := range renames {
		if _, ok := source[to]; ok {
			source[to] = from
		}
	}

	names := make([]string, 0, len(wires))
	for name := range wires {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		found := false
		for _, src := range source {
			if src == name {
				found = true
				break
			}
		}
		if !found {
			return nil, errorAt(pos, ErrWiring, field, "no port %q", name)
		}
	}

	out := make(Wires, len(ports))
	for _, p := range ports {
		src := source[p.Name]
		if vars, ok := wires[src]; ok {
			out[p.Name] = vars
		} else {
			out[p.Name] = []string{src}
		}
	}
	return out, nil
}

// wireScope holds the live wire variables while a definition is replayed.
// A variable is live from the step that binds it to the step that
// consumes it; a consumed name may be bound again.
type wireScope struct {
	vars     map[string]circuit.Value
	consumed map[string]bool
}

// take removes the variables feeding ports from the scope.
func (s *wireScope) take(ports []ir.Port, wires Wires, pos token.Pos, field string) (circuit.Wiring, error) {
	w := circuit.Wiring{}
	for _, p := range ports {
		names := wires[p.Name]
		vals := make([]circuit.Value, 0, len(names))
		for _, name := range names {
			v, ok := s.vars[name]
			if !ok {
				if s.consumed[name] {
					return nil, errorAt(pos, ErrWiring, field, "wire variable %q already consumed", name)
				}
				return nil, errorAt(pos, ErrWiring, field, "undefined wire variable %q", name)
			}
			delete(s.vars, name)
			s.consumed[name] = true
			vals = append(vals, v)
		}
		if len(vals) == 1 {
			w[p.Name] = vals[0]
			continue
		}
		v, err := circuit.Stack(vals...)
		if err != nil {
			return nil, wrapAt(pos, field+"."+p.Name, err)
		}
		w[p.Name] = v
	}
	return w, nil
}

// bind names the values a step produced.
func (s *wireScope) bind(ports []ir.Port, wires Wires, out circuit.Wiring, pos token.Pos, field string) error {
	for _, p := range ports {
		names := wires[p.Name]
		v := out[p.Name]
		if len(names) == 1 {
			if err := s.define(names[0], v, pos, field); err != nil {
				return err
			}
			continue
		}
		if v.Len() != len(names) {
			return errorAt(pos, ErrWiring, field+"."+p.Name, "port %q has %d elements, got %d names", p.Name, v.Len(), len(names))
		}
		for i, name := range names {
			if err := s.define(name, v.At(i), pos, field); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *wireScope) define(name string, v circuit.Value, pos token.Pos, field string) error {
	if _, live := s.vars[name]; live {
		return errorAt(pos, ErrWiring, field, "wire variable %q is already bound", name)
	}
	s.vars[name] = v
	delete(s.consumed, name)
	return nil
}
