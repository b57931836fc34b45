// Package verify checks release requirements by tracking computational
// basis states along a circuit.
//
// Every wire bit is 0, 1 or unknown. Inputs start unknown unless set with
// WithInputs. Instances are visited in topological order: ops implementing
// BasisMapper transform their inputs, decomposable ops are verified
// recursively, and everything else makes its outputs unknown. An op
// implementing Releaser, such as Free, requires the named inputs to be
// provably zero; anything else is reported as a Violation.
//
// The analysis is conservative. A superposition-creating gate such as H
// makes its output unknown, so a register that H;H returns to zero is still
// reported.
package verify
