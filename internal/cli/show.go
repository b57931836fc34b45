package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/compiler"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/verify"
)

// ShowResult describes one definition and its decomposition.
type ShowResult struct {
	Op        string   `json:"op"`
	Key       string   `json:"key"`
	Signature []string `json:"signature"`
	Calls     []string `json:"calls,omitempty"`
	// Instances lists the decomposed ops in topological order.
	Instances []string `json:"instances,omitempty"`
	// DecomposeError is set when the definition cannot be instantiated,
	// e.g. because a port has a symbolic shape.
	DecomposeError string   `json:"decompose_error,omitempty"`
	Verified       bool     `json:"verified"`
	Violations     []string `json:"violations,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <specs-dir> <op>",
		Short: "Show a definition's signature, decomposition and release check",
		Long: `Show one op definition.

Prints the signature, decomposes the op one level and lists the resulting
instances in topological order, then verifies that every freed register is
provably back in the zero state.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runShow(opts *RootOptions, specsDir, opName string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd)

	program, err := loadProgram(formatter, specsDir)
	if err != nil {
		return err
	}
	defs, err := selectDefinitions(formatter, program, opName)
	if err != nil {
		return err
	}
	d := defs[0]

	result := describe(d)
	report, err := verify.Verify(d, verify.WithLogger(logger))
	if err != nil {
		logger.Debug("verification skipped", "op", opName, "error", err)
	} else {
		result.Verified = report.OK()
		for _, v := range report.Violations {
			result.Violations = append(result.Violations, v.String())
		}
	}

	if formatter.IsJSON() {
		return formatter.Success(result)
	}
	writeShow(formatter, result)
	return nil
}

func describe(d *compiler.Definition) ShowResult {
	spec := d.Spec()
	result := ShowResult{
		Op:        spec.Name,
		Key:       ir.ShortKey(circuit.Key(d)),
		Signature: []string{},
		Calls:     spec.Calls(),
	}
	for _, p := range spec.Signature.Ports() {
		result.Signature = append(result.Signature, p.String())
	}

	g, err := circuit.Decompose(d)
	if err != nil {
		result.DecomposeError = err.Error()
		return result
	}
	for _, id := range g.TopoOrder() {
		inst, ok := g.Instance(id)
		if !ok {
			continue
		}
		result.Instances = append(result.Instances, fmt.Sprintf("%s %s", id, circuit.Name(inst.Op)))
	}
	return result
}

func writeShow(formatter *OutputFormatter, r ShowResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "%s [%s]\n\n", r.Op, r.Key)

	fmt.Fprintln(w, "Signature:")
	for _, p := range r.Signature {
		fmt.Fprintf(w, "  %s\n", p)
	}
	if len(r.Calls) > 0 {
		fmt.Fprintf(w, "\nCalls: %v\n", r.Calls)
	}

	fmt.Fprintln(w, "\nDecomposition:")
	if r.DecomposeError != "" {
		fmt.Fprintf(w, "  not available: %s\n", r.DecomposeError)
	}
	for _, inst := range r.Instances {
		fmt.Fprintf(w, "  %s\n", inst)
	}

	fmt.Fprintln(w)
	switch {
	case r.Verified:
		fmt.Fprintln(w, "✓ All releases verified")
	case len(r.Violations) > 0:
		fmt.Fprintf(w, "✗ %d release violation(s)\n", len(r.Violations))
		for _, v := range r.Violations {
			fmt.Fprintf(w, "  %s\n", v)
		}
	default:
		fmt.Fprintln(w, "Release verification not available")
	}
}
