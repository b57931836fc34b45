package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/qwire/internal/compiler"
	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/store"
	"github.com/roach88/qwire/internal/sym"
	"github.com/roach88/qwire/internal/testutil"
	"github.com/roach88/qwire/internal/verify"
)

// Harness runs scenarios against a fresh in-memory store with a
// deterministic clock and run ids.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger; the default discards.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Open a fresh in-memory store
//  2. Load and compile the definitions in scenario.Specs
//  3. Build the call graph of scenario.Op under the metric
//  4. Count qubits and verify release conditions
//  5. Write the report and read it back
//  6. Evaluate assertions
//
// An error means the scenario could not be executed; failed assertions are
// reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	st, err := store.Open(":memory:",
		store.WithRunIDs(testutil.NewSequentialIDs("run")),
		store.WithClock(testutil.NewDeterministicClock()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	v, err := compiler.LoadDir(cuecontext.New(), scenario.Specs)
	if err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}
	program, err := compiler.Compile(v)
	if err != nil {
		return nil, fmt.Errorf("failed to compile specs: %w", err)
	}
	op, ok := program.Lookup(scenario.Op)
	if !ok {
		return nil, fmt.Errorf("op %q is not defined in %s", scenario.Op, scenario.Specs)
	}

	metricName := scenario.Metric
	if metricName == "" {
		metricName = cost.GateCounts.Name()
	}
	metric, err := cost.MetricByName(metricName)
	if err != nil {
		return nil, err
	}
	engine, err := newEngine(scenario, h.logger)
	if err != nil {
		return nil, err
	}

	graph, total, err := engine.CallGraph(op, metric)
	if err != nil {
		return nil, fmt.Errorf("failed to cost %s: %w", scenario.Op, err)
	}
	qubits, err := cost.QubitCount(op)
	if err != nil {
		return nil, fmt.Errorf("failed to count qubits of %s: %w", scenario.Op, err)
	}
	report, err := verify.Verify(op, verify.WithLogger(h.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to verify %s: %w", scenario.Op, err)
	}

	run, err := h.store.BeginRun(ctx, scenario.Name)
	if err != nil {
		return nil, err
	}
	stored := store.NewReport(run.ID, graph, total)
	stored.Qubits = qubits.String()
	if _, err := h.store.WriteReport(ctx, stored); err != nil {
		return nil, err
	}
	reports, err := h.store.ReadRun(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	if len(reports) != 1 {
		return nil, fmt.Errorf("run %s: expected 1 stored report, got %d", run.ID, len(reports))
	}

	result := NewResult(scenario.Op, metricName)
	result.Total = reports[0].TotalCounts()
	result.Qubits = reports[0].Qubits
	result.CallGraph = graph.Outline()
	for _, n := range graph.Nodes() {
		result.Nodes = append(result.Nodes, n.Name)
	}
	result.Leaves = leafCounts(graph)
	for _, viol := range report.Violations {
		result.Violations = append(result.Violations, viol.String())
	}

	h.logger.Info("scenario executed",
		"scenario", scenario.Name,
		"op", scenario.Op,
		"metric", metricName,
		"total", reports[0].TotalString(),
		"nodes", graph.Len())

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newEngine(scenario *Scenario, logger *slog.Logger) (*cost.Engine, error) {
	opts := []cost.Option{cost.WithLogger(logger)}
	if scenario.MaxDepth > 0 {
		opts = append(opts, cost.WithMaxDepth(scenario.MaxDepth))
	}
	var gens []cost.Generalizer
	for _, name := range scenario.Generalizers {
		g, ok := cost.GeneralizerByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown generalizer %q", name)
		}
		gens = append(gens, g)
	}
	if len(gens) > 0 {
		opts = append(opts, cost.WithGeneralizers(gens...))
	}
	return cost.NewEngine(opts...)
}

// leafCounts sums the call-graph multiplicities of leaves by name.
func leafCounts(g *cost.CallGraph) map[string]string {
	byName := map[string]sym.Expr{}
	for key, count := range g.Sigma() {
		n, ok := g.Node(key)
		if !ok {
			continue
		}
		byName[n.Name] = sym.Add(byName[n.Name], count)
	}
	out := make(map[string]string, len(byName))
	for name, count := range byName {
		out[name] = count.String()
	}
	return out
}
