package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qwire/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Metric string
	Run    string
	DB     string
}

// RunSummary is one recorded run.
type RunSummary struct {
	ID      string `json:"id"`
	Label   string `json:"label,omitempty"`
	Seq     int64  `json:"seq"`
	Version string `json:"tool_version"`
	Reports int    `json:"reports"`
}

// HistoryEntry is one stored report.
type HistoryEntry struct {
	Seq    int64             `json:"seq"`
	RunID  string            `json:"run_id"`
	Label  string            `json:"label,omitempty"`
	Op     string            `json:"op"`
	Metric string            `json:"metric"`
	Total  map[string]string `json:"total"`
	Qubits string            `json:"qubits,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [op]",
		Short: "Show recorded cost reports",
		Long: `Show cost reports recorded with "qwire cost --record".

Without arguments, lists the recorded runs. With an op name, lists every
report for that op under the chosen metric, oldest first, so changes in
cost across revisions of the definition are visible. With --run, lists the
reports of one run.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			op := ""
			if len(args) == 1 {
				op = args[0]
			}
			return runHistory(opts, op, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Metric, "metric", "", "cost metric (default from config)")
	cmd.Flags().StringVar(&opts.Run, "run", "", "show the reports of one run")
	cmd.Flags().StringVar(&opts.DB, "db", "", "history database path (default from config)")

	return cmd
}

func runHistory(opts *HistoryOptions, opName string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()
	if cmd.Flags().Changed("db") {
		cfg.Store.Path = opts.DB
	}
	metric := cfg.Cost.Metric
	if cmd.Flags().Changed("metric") {
		metric = opts.Metric
	}

	if _, err := os.Stat(cfg.Store.Path); err != nil {
		message := fmt.Sprintf("no history database at %s", cfg.Store.Path)
		_ = formatter.Error(ErrCodeNotFound, message, nil)
		return NewExitError(ExitCommandError, message)
	}
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening history database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "listing runs", err)
	}
	labels := make(map[string]string, len(runs))
	for _, r := range runs {
		labels[r.ID] = r.Label
	}

	var reports []store.Report
	switch {
	case opts.Run != "":
		if _, err := st.GetRun(ctx, opts.Run); err != nil {
			code := ErrCodeLoadFailed
			if errors.Is(err, store.ErrRunNotFound) {
				code = ErrCodeNotFound
			}
			_ = formatter.Error(code, err.Error(), nil)
			return WrapExitError(ExitCommandError, "reading run", err)
		}
		reports, err = st.ReadRun(ctx, opts.Run)
	case opName != "":
		reports, err = st.History(ctx, opName, metric)
	default:
		return outputRuns(ctx, formatter, st, runs)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading reports", err)
	}

	entries := make([]HistoryEntry, 0, len(reports))
	for _, r := range reports {
		entries = append(entries, HistoryEntry{
			Seq:    r.Seq,
			RunID:  r.RunID,
			Label:  labels[r.RunID],
			Op:     r.OpName,
			Metric: r.Metric,
			Total:  r.TotalCounts(),
			Qubits: r.Qubits,
		})
	}
	return outputHistory(formatter, entries)
}

func outputRuns(ctx context.Context, formatter *OutputFormatter, st *store.Store, runs []store.Run) error {
	summaries := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		reports, err := st.ReadRun(ctx, r.ID)
		if err != nil {
			_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "reading run", err)
		}
		summaries = append(summaries, RunSummary{
			ID:      r.ID,
			Label:   r.Label,
			Seq:     r.Seq,
			Version: r.ToolVersion,
			Reports: len(reports),
		})
	}

	if formatter.IsJSON() {
		return formatter.Success(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	for _, s := range summaries {
		label := s.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(formatter.Writer, "%4d  %s  %s  %d report(s)\n", s.Seq, s.ID, label, s.Reports)
	}
	return nil
}

func outputHistory(formatter *OutputFormatter, entries []HistoryEntry) error {
	if formatter.IsJSON() {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No reports recorded.")
		return nil
	}
	for _, e := range entries {
		label := e.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(formatter.Writer, "%4d  %s  %s  %s %s: %s", e.Seq, e.RunID, label, e.Op, e.Metric, formatTotal(e.Total))
		if e.Qubits != "" {
			fmt.Fprintf(formatter.Writer, "  qubits: %s", e.Qubits)
		}
		fmt.Fprintln(formatter.Writer)
	}
	return nil
}

// openStore opens the history database at path, creating its directory.
func openStore(path string) (*store.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	return store.Open(path)
}

// formatTotal renders counts as "{clifford: 2, t: 4}".
func formatTotal(total map[string]string) string {
	keys := make([]string, 0, len(total))
	for k := range total {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + total[k]
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
