// Package ir provides the foundational types for qwire operations: dtypes,
// ports, signatures, parameter values and structural identity.
//
// ir imports only sym; every other internal package imports ir. Operation
// identity is computed from RFC 8785 canonical JSON with SHA-256 domain
// separation, so two operations constructed with equal parameters share a
// key in every process.
//
// Key constraints:
//   - no float parameters; use int64 or a symbolic IRExpr
//   - symbolic parameters hash syntactically after sym's operand ordering
//   - within a signature no two ports on the same side share a name
package ir
