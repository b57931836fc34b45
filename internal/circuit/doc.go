// Package circuit implements the wiring graph that composes operations.
//
// A Builder owns an arena of wires. AddInput and Add hand out Values
// (arrays of wire handles); passing a Value to Add consumes its wires.
// Finalize checks that every wire was consumed or returned and produces an
// immutable Graph: instances, a LEFT and a RIGHT dangling node, and one
// connection per wire.
//
// Operations are values implementing Op. Optional capabilities are expressed
// as small interfaces (Decomposer, ControlIgnorer, Bookkeeper) so that
// packages such as transform and cost can dispatch on what an op supports.
//
// Graphs are acyclic by construction: a wire can only be consumed after it
// was produced.
package circuit
