// Package harness provides conformance testing for qwire definitions.
//
// A scenario compiles a directory of CUE definitions, builds the call graph
// of one op under a metric and checks the outcome.
//
// # Scenario Format
//
//	name: bell_gate_counts
//	description: "Bell costs two Clifford gates"
//	specs: ../specs
//	op: Bell
//	metric: gate_counts
//	generalizers: [ignore_bookkeeping]
//	assertions:
//	  - type: total
//	    expect: {clifford: 2}
//	  - type: contains
//	    op: H
//	    value: "1"
//	  - type: qubits
//	    value: "2"
//	  - type: violations
//	    count: 0
//
// Unknown fields are rejected.
//
// # Assertion Types
//
//   - total: the op's cost equals expect exactly
//   - contains: a leaf is reached value times from the op
//   - node: the call graph has a node with the given name
//   - qubits: the peak qubit count equals value
//   - violations: verification reports exactly count violations
//
// Counts are compared as text, so symbolic counts are written the way they
// print, e.g. "4*n".
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory store with a deterministic
// clock and sequential run ids. The report is written and read back before
// assertions run, so the store's encoding is part of what a scenario checks.
//
// Golden snapshots hold the totals, the qubit count, the verification
// outcome and the call-graph outline. Op keys are left out.
package harness
