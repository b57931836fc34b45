// Package bookkeeping provides operations that allocate, release and
// re-label wires without acting on their state.
//
// Allocate, Free, Split, Join, Partition and Cast cost nothing under every
// metric and ignore control: the controlled version of a bookkeeping op is
// the op itself. Always wraps an arbitrary op with the same control
// behavior while forwarding its cost.
//
// Each op has a specialized adjoint (Allocate and Free, Split and Join,
// Partition and its merge, Cast in both directions) and a basis action used
// by package verify.
package bookkeeping
