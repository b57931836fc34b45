// Package transform derives structural variants of operations.
//
// Adjoint prefers an op's own Adjointer and otherwise reverses its
// decomposition. Controlled prefers an op's own Controller (which may rename
// ports, as X -> CNOT does) and otherwise wraps the op in a ControlledOp whose
// decomposition threads the control registers through every gated instance.
//
// Control is threaded, never fanned out: one persistent control wire per
// register visits each instance in topological order. Instances that ignore
// control (bookkeeping, Always) are copied unchanged. Whether an op marked
// as ignoring control is actually safe to run unconditionally is the op
// author's responsibility; CheckControlConsistency compares the two
// derivations for ops that do not opt out.
package transform
