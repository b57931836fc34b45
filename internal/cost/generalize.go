package cost

import (
	"github.com/roach88/qwire/internal/circuit"
)

// Generalizer rewrites a callee before it is costed. Returning nil drops
// the callee; returning a different op merges it with other callees that
// generalize to the same op.
type Generalizer func(op circuit.Op) circuit.Op

// IgnoreBookkeeping drops every bookkeeping op.
func IgnoreBookkeeping(op circuit.Op) circuit.Op {
	if circuit.IsBookkeeping(op) {
		return nil
	}
	return op
}

// IgnoreAllocFree drops Allocate and Free.
func IgnoreAllocFree(op circuit.Op) circuit.Op {
	switch op.Kind() {
	case "Allocate", "Free":
		return nil
	}
	return op
}

// IgnoreSplitJoin drops Split, Join and Partition.
func IgnoreSplitJoin(op circuit.Op) circuit.Op {
	switch op.Kind() {
	case "Split", "Join", "Partition":
		return nil
	}
	return op
}

// GeneralizerByName resolves a built-in generalizer.
func GeneralizerByName(name string) (Generalizer, bool) {
	switch name {
	case "ignore_bookkeeping":
		return IgnoreBookkeeping, true
	case "ignore_alloc_free":
		return IgnoreAllocFree, true
	case "ignore_split_join":
		return IgnoreSplitJoin, true
	}
	return nil, false
}

func generalize(op circuit.Op, gens []Generalizer) circuit.Op {
	for _, g := range gens {
		if op == nil {
			return nil
		}
		op = g(op)
	}
	return op
}
