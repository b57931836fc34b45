// Package cost aggregates resource costs over operation call graphs.
//
// An op's cost under a Metric is its own leaf cost when it declares one.
// Otherwise it is the sum, over the distinct callees of its decomposition,
// of callee cost times multiplicity. Generalizers rewrite or drop callees
// before they are costed, so that for example every bookkeeping op can be
// ignored.
//
// Costs are symbolic: Counts maps names to sym.Expr. An op whose cost cannot
// be determined contributes an "unknown:<op>" entry instead of zero.
//
// The Engine memoizes totals in a bounded, thread-safe LRU keyed by metric
// and op identity. Cycle detection is per run.
package cost
