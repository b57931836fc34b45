package cost

import (
	"github.com/roach88/qwire/internal/circuit"
)

// expansionStack tracks the ops currently being expanded in one costing
// run. An op that is reached again while still on the stack is defined in
// terms of itself.
//
// Example cycle:
//
//	A decomposes into B -> B decomposes into A -> A is on the stack
//
// Unlike the memo cache, the stack is per run and never shared between
// goroutines.
type expansionStack struct {
	keys  []string
	names []string
	on    map[string]bool
}

func newExpansionStack() *expansionStack {
	return &expansionStack{on: make(map[string]bool)}
}

// wouldCycle reports whether key is already being expanded.
func (s *expansionStack) wouldCycle(key string) bool {
	return s.on[key]
}

func (s *expansionStack) push(key, name string) {
	s.keys = append(s.keys, key)
	s.names = append(s.names, name)
	s.on[key] = true
}

func (s *expansionStack) pop() {
	n := len(s.keys) - 1
	delete(s.on, s.keys[n])
	s.keys = s.keys[:n]
	s.names = s.names[:n]
}

// cycleError builds the error for op re-entering the stack, with the path
// from op's first expansion back to op.
func (s *expansionStack) cycleError(op circuit.Op, key string) error {
	start := 0
	for i, k := range s.keys {
		if k == key {
			start = i
			break
		}
	}
	path := append(append([]string(nil), s.names[start:]...), circuit.Name(op))
	return circuit.NewCyclicError(op, path)
}

func (s *expansionStack) depth() int { return len(s.keys) }
