package cost

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
)

// DefaultCacheSize bounds the number of memoized (metric, op) totals.
const DefaultCacheSize = 10000

// Engine computes costs by walking the call graph: an op's cost is its leaf
// cost if it declares one, otherwise the sum over its distinct callees of
// callee cost times multiplicity.
//
// Thread-safety: Cost and CallGraph may be called concurrently. Totals are
// memoized in a shared LRU keyed by metric and op identity; concurrent runs
// that compute the same total store identical values.
type Engine struct {
	cache        *lru.Cache[string, Counts]
	generalizers []Generalizer
	maxDepth     int
	cacheSize    int
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth bounds how many levels of decomposition are expanded. Ops at
// the bound that have no leaf cost contribute an unknown marker. Zero, the
// default, means unbounded.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		e.maxDepth = depth
	}
}

// WithGeneralizers applies gens, in order, to every callee.
func WithGeneralizers(gens ...Generalizer) Option {
	return func(e *Engine) {
		e.generalizers = append(e.generalizers, gens...)
	}
}

// WithCacheSize sets the memo cache capacity.
//
// Default: 10000 entries (DefaultCacheSize)
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithLogger sets the logger; the default discards.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		cacheSize: DefaultCacheSize,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative: %d", e.maxDepth)
	}
	cache, err := lru.New[string, Counts](e.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cost cache: %w", err)
	}
	e.cache = cache
	return e, nil
}

// Cost returns the total cost of op under m.
func (e *Engine) Cost(op circuit.Op, m Metric) (Counts, error) {
	r := e.newRun(m, false)
	return r.visit(op, 0)
}

// CallGraph returns the call graph rooted at op together with its total
// cost. Every distinct op reached is a node; each node is expanded once.
func (e *Engine) CallGraph(op circuit.Op, m Metric) (*CallGraph, Counts, error) {
	r := e.newRun(m, true)
	total, err := r.visit(op, 0)
	if err != nil {
		return nil, nil, err
	}
	r.graph.Root = circuit.Key(op)
	return r.graph, total, nil
}

// CacheLen is the number of memoized totals.
func (e *Engine) CacheLen() int { return e.cache.Len() }

// Purge empties the memo cache.
func (e *Engine) Purge() { e.cache.Purge() }

type run struct {
	e      *Engine
	metric Metric
	stack  *expansionStack
	done   map[string]Counts
	graph  *CallGraph
}

func (e *Engine) newRun(m Metric, withGraph bool) *run {
	r := &run{
		e:      e,
		metric: m,
		stack:  newExpansionStack(),
		done:   map[string]Counts{},
	}
	if withGraph {
		r.graph = newCallGraph(m.Name())
	}
	return r
}

// memoKey identifies a total: metric and op, plus the remaining depth when
// expansion is bounded.
func (r *run) memoKey(key string, depth int) string {
	k := r.metric.Name() + "/" + key
	if r.e.maxDepth > 0 {
		k += "@" + strconv.Itoa(r.e.maxDepth-depth)
	}
	return k
}

func (r *run) visit(op circuit.Op, depth int) (Counts, error) {
	key := circuit.Key(op)
	if r.stack.wouldCycle(key) {
		return nil, r.stack.cycleError(op, key)
	}
	mk := r.memoKey(key, depth)
	if c, ok := r.done[mk]; ok {
		return c, nil
	}
	name := circuit.Name(op)

	var node *CallNode
	if r.graph != nil {
		node = r.graph.add(op, key, name)
	}
	finish := func(c Counts) (Counts, error) {
		r.done[mk] = c
		if node != nil && node.Cost == nil {
			node.Cost = c
		}
		return c, nil
	}

	if leaf, ok := op.(Leaf); ok {
		if c, ok := leaf.LeafCost(r.metric); ok {
			if node != nil {
				node.Leaf = true
			}
			return finish(c)
		}
	}
	if r.e.maxDepth > 0 && depth >= r.e.maxDepth {
		r.e.logger.Debug("depth limit reached", "op", name, "depth", depth)
		if node != nil {
			node.Opaque = true
		}
		return finish(Unknown(name))
	}
	if r.graph == nil {
		if c, ok := r.e.cache.Get(mk); ok {
			return finish(c)
		}
	}

	callees, err := r.callees(op)
	if err != nil {
		if circuit.IsDecomposeNotImplemented(err) || circuit.IsSymbolicShape(err) {
			r.e.logger.Warn("operation has no cost for metric",
				"op", name,
				"key", ir.ShortKey(key),
				"metric", r.metric.Name(),
				"reason", err.Error())
			if node != nil {
				node.Opaque = true
			}
			return finish(Unknown(name))
		}
		return nil, fmt.Errorf("cost %s: %w", name, err)
	}

	r.stack.push(key, name)
	total := Zero()
	for _, c := range callees {
		sub, err := r.visit(c.Op, depth+1)
		if err != nil {
			r.stack.pop()
			return nil, err
		}
		total = total.Add(sub.Scale(c.Count))
		if node != nil && node.Cost == nil {
			node.Children = append(node.Children, CallEdge{Key: circuit.Key(c.Op), Count: c.Count})
		}
	}
	r.stack.pop()

	r.e.cache.Add(mk, total)
	r.e.logger.Debug("cost computed",
		"op", name,
		"key", ir.ShortKey(key),
		"metric", r.metric.Name(),
		"callees", len(callees),
		"total", total.String())
	return finish(total)
}

// callees lists op's distinct children after generalization. Declared
// callees win over the decomposition.
func (r *run) callees(op circuit.Op) ([]Callee, error) {
	raw, declared, err := declaredCallees(op)
	if err != nil {
		return nil, err
	}
	if !declared {
		g, err := circuit.Decompose(op)
		if err != nil {
			return nil, err
		}
		for _, oc := range g.Counts() {
			raw = append(raw, Callee{Op: oc.Op, Count: sym.Int(oc.Count)})
		}
	}
	return mergeCallees(raw, r.e.generalizers), nil
}

func mergeCallees(raw []Callee, gens []Generalizer) []Callee {
	idx := map[string]int{}
	var out []Callee
	for _, c := range raw {
		op := generalize(c.Op, gens)
		if op == nil {
			continue
		}
		k := circuit.Key(op)
		if i, ok := idx[k]; ok {
			out[i].Count = sym.Add(out[i].Count, c.Count)
			continue
		}
		idx[k] = len(out)
		out = append(out, Callee{Op: op, Count: c.Count})
	}
	return out
}
