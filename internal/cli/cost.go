package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/compiler"
	"github.com/roach88/qwire/internal/config"
	"github.com/roach88/qwire/internal/cost"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/store"
)

// CostOptions holds flags for the cost command.
type CostOptions struct {
	*RootOptions
	Metric     string
	Generalize []string
	MaxDepth   int
	Graph      bool   // print the call graph
	Record     bool   // write reports to the history database
	Label      string // run label when recording
	DB         string // history database, overrides the config
}

// CostResult is the cost of one op.
type CostResult struct {
	Op        string            `json:"op"`
	Key       string            `json:"key"`
	Metric    string            `json:"metric"`
	Total     map[string]string `json:"total"`
	Qubits    string            `json:"qubits"`
	CallGraph string            `json:"call_graph,omitempty"`
}

// CostReport is the output of the cost command.
type CostReport struct {
	Results []CostResult `json:"results"`
	RunID   string       `json:"run_id,omitempty"`
}

// NewCostCommand creates the cost command.
func NewCostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cost <specs-dir> [op]",
		Short: "Estimate the cost of definitions",
		Long: `Estimate resource costs by walking the call graph of each op.

Each op is decomposed down to leaf gates and the per-leaf costs of the
chosen metric are summed with their multiplicities. Without an op name,
every definition is costed. With --record the results are written to the
history database so later runs can be compared.

Metrics: gate_counts, t_count, qubit_count, bookkeeping_count.
Generalizers: ignore_bookkeeping, ignore_alloc_free, ignore_split_join.

Examples:
  qwire cost ./specs Adder
  qwire cost ./specs Adder --metric t_count --graph
  qwire cost ./specs --record --label nightly`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			op := ""
			if len(args) == 2 {
				op = args[1]
			}
			return runCost(opts, args[0], op, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Metric, "metric", "", "cost metric (default from config)")
	cmd.Flags().StringSliceVar(&opts.Generalize, "generalize", nil, "generalizers applied to callees")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "stop expanding below this depth (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.Graph, "graph", false, "print the call graph")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record results in the history database")
	cmd.Flags().StringVar(&opts.Label, "label", "", "run label for --record")
	cmd.Flags().StringVar(&opts.DB, "db", "", "history database path (default from config)")

	return cmd
}

func runCost(opts *CostOptions, specsDir, opName string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd)

	cfg, err := opts.costConfig(cmd)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid cost options", err)
	}
	metric, err := cfg.Metric()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid cost options", err)
	}
	engineOpts, err := cfg.EngineOptions()
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid cost options", err)
	}
	engine, err := cost.NewEngine(append(engineOpts, cost.WithLogger(logger))...)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "creating cost engine", err)
	}

	program, err := loadProgram(formatter, specsDir)
	if err != nil {
		return err
	}
	defs, err := selectDefinitions(formatter, program, opName)
	if err != nil {
		return err
	}

	report := CostReport{Results: make([]CostResult, 0, len(defs))}
	var reports []store.Report
	for _, d := range defs {
		graph, total, err := engine.CallGraph(d, metric)
		if err != nil {
			_ = formatter.Error(ErrCodeBuildFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("costing %s", d), err)
		}
		qubits, err := cost.QubitCount(d)
		if err != nil {
			_ = formatter.Error(ErrCodeBuildFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("counting qubits of %s", d), err)
		}
		logger.Debug("costed op", "op", d.String(), "metric", metric.Name(), "total", total.String(), "nodes", graph.Len())

		res := CostResult{
			Op:     d.String(),
			Key:    ir.ShortKey(circuit.Key(d)),
			Metric: metric.Name(),
			Total:  countsMap(total),
			Qubits: qubits.String(),
		}
		if opts.Graph {
			res.CallGraph = graph.Format()
		}
		report.Results = append(report.Results, res)

		r := store.NewReport("", graph, total)
		r.Qubits = res.Qubits
		reports = append(reports, r)
	}

	if opts.Record {
		runID, err := recordReports(cmd.Context(), cfg.Store.Path, opts.Label, reports, logger)
		if err != nil {
			_ = formatter.Error(ErrCodeBuildFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "recording reports", err)
		}
		report.RunID = runID
	}

	return outputCost(formatter, report, cfg.Store.Path)
}

// costConfig applies the command's flags over the loaded configuration.
func (o *CostOptions) costConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := o.config()
	flags := cmd.Flags()
	if flags.Changed("metric") {
		cfg.Cost.Metric = o.Metric
	}
	if flags.Changed("generalize") {
		cfg.Cost.Generalizers = o.Generalize
	}
	if flags.Changed("max-depth") {
		cfg.Cost.MaxDepth = o.MaxDepth
	}
	if flags.Changed("db") {
		cfg.Store.Path = o.DB
	}
	return cfg, cfg.Validate()
}

// loadProgram loads and links the definitions in specsDir, reporting the
// first error as a command error.
func loadProgram(formatter *OutputFormatter, specsDir string) (*compiler.Program, error) {
	res, errs := LoadSpecs(specsDir, LoadModeFailFast)
	if len(errs) > 0 {
		code, message := errorCode(errs[0])
		_ = formatter.Error(code, message, nil)
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}
	return res.Program, nil
}

// selectDefinitions returns the named definition, or every definition when
// name is empty.
func selectDefinitions(formatter *OutputFormatter, p *compiler.Program, name string) ([]*compiler.Definition, error) {
	if name == "" {
		return p.Definitions(), nil
	}
	d, ok := p.Lookup(name)
	if !ok {
		message := fmt.Sprintf("op %q is not defined", name)
		_ = formatter.Error(ErrCodeNotFound, message, map[string]any{"defined": p.Names()})
		return nil, NewExitError(ExitCommandError, message)
	}
	return []*compiler.Definition{d}, nil
}

// recordReports writes reports under a new run and returns its ID.
func recordReports(ctx context.Context, path, label string, reports []store.Report, logger *slog.Logger) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openStore(path)
	if err != nil {
		return "", err
	}
	defer st.Close()

	run, err := st.BeginRun(ctx, label)
	if err != nil {
		return "", err
	}
	for _, r := range reports {
		r.RunID = run.ID
		inserted, err := st.WriteReport(ctx, r)
		if err != nil {
			return "", err
		}
		logger.Debug("recorded report", "run", run.ID, "op", r.OpName, "inserted", inserted)
	}
	return run.ID, nil
}

func countsMap(c cost.Counts) map[string]string {
	out := make(map[string]string, len(c.Keys()))
	for _, k := range c.Keys() {
		out[k] = c.Get(k).String()
	}
	return out
}

func outputCost(formatter *OutputFormatter, report CostReport, dbPath string) error {
	if formatter.IsJSON() {
		return formatter.Success(report)
	}

	w := formatter.Writer
	for _, r := range report.Results {
		fmt.Fprintf(w, "%s [%s]\n", r.Op, r.Key)
		fmt.Fprintf(w, "  %s: %s\n", r.Metric, formatTotal(r.Total))
		fmt.Fprintf(w, "  qubits: %s\n", r.Qubits)
		if r.CallGraph != "" {
			fmt.Fprintln(w)
			fmt.Fprint(w, r.CallGraph)
		}
		fmt.Fprintln(w)
	}
	if report.RunID != "" {
		fmt.Fprintf(w, "Recorded run %s in %s\n", report.RunID, dbPath)
	}
	return nil
}
