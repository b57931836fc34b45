// Package store provides SQLite-backed storage for cost reports.
//
// A run groups the reports produced by one CLI invocation or harness pass.
// Each report records the total cost of one op under one metric, plus the
// leaf multiplicities of its call graph.
//
// # Patterns
//
// Idempotent writes:
//   - UNIQUE(run_id, op_key, metric) with ON CONFLICT DO NOTHING
//   - Rewriting a report in the same run is a no-op
//
// Logical time:
//   - All ordering uses seq INTEGER from a logical clock, never timestamps
//   - A reopened store resumes after the highest stored seq
//
// Deterministic reads:
//   - Every query orders by seq, then by row id
//   - Empty results are empty slices, never nil
//
// Params, totals and sigma are stored as RFC 8785 canonical JSON produced
// by internal/ir, so identical reports are byte-identical.
package store
