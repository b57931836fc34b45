package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/compiler"
	"github.com/roach88/qwire/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// DefinitionSummary describes one compiled definition.
type DefinitionSummary struct {
	Name  string   `json:"name"`
	Key   string   `json:"key"`
	Ports []string `json:"ports"`
	Steps int      `json:"steps"`
	Calls []string `json:"calls,omitempty"`
}

// CompilationResult lists the compiled definitions, callees first.
type CompilationResult struct {
	Definitions []DefinitionSummary `json:"definitions"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE definitions to canonical IR",
		Long: `Compile the CUE op definitions in a directory.

Every definition is parsed, checked against the schema, and linked to the
definitions it calls. With --output the definitions are written as
canonical JSON together with their identity keys.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd)

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil {
		code, message := errorCode(loadErrors[0])
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}
	logger.Debug("loaded specs", "dir", specsDir, "files", loadResult.FileCount)

	result := CompilationResult{Definitions: []DefinitionSummary{}}
	for _, d := range loadResult.Program.Definitions() {
		logger.Debug("compiled definition", "op", d.String(), "key", ir.ShortKey(circuit.Key(d)))
		result.Definitions = append(result.Definitions, summarize(d))
	}

	if opts.Output != "" {
		if err := writeIRToFile(loadResult.Program, opts.Output); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func summarize(d *compiler.Definition) DefinitionSummary {
	spec := d.Spec()
	s := DefinitionSummary{
		Name:  spec.Name,
		Key:   ir.ShortKey(circuit.Key(d)),
		Ports: []string{},
		Steps: len(spec.Steps),
		Calls: spec.Calls(),
	}
	for _, p := range spec.Signature.Ports() {
		s.Ports = append(s.Ports, p.String())
	}
	return s
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputFile string) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d definition(s)\n\n", len(result.Definitions))
	for _, d := range result.Definitions {
		fmt.Fprintf(w, "  %s [%s]: %d port(s), %d step(s)", d.Name, d.Key, len(d.Ports), d.Steps)
		if len(d.Calls) > 0 {
			fmt.Fprintf(w, ", calls %v", d.Calls)
		}
		fmt.Fprintln(w)
	}
	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote canonical IR to %s\n", outputFile)
	}
	return nil
}

// outputCompileErrors outputs load and compilation errors. They are
// command-level errors (exit code 2).
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		code, message := errorCode(err)
		cliErrors[i] = CLIError{Code: code, Message: message}
	}

	if formatter.IsJSON() {
		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for i, err := range errs {
		if pos := errorPos(err); pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", pos.Filename(), pos.Line(), pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", cliErrors[i].Code, cliErrors[i].Message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeIRToFile writes the program's definitions as canonical JSON.
func writeIRToFile(p *compiler.Program, filename string) error {
	defs := make(ir.IRArray, 0, p.Len())
	for _, d := range p.Definitions() {
		defs = append(defs, ir.IRObject{
			"name":      ir.IRString(d.String()),
			"key":       ir.IRString(circuit.Key(d)),
			"signature": d.Signature().Object(),
			"source":    d.Spec().Source,
		})
	}
	doc := ir.IRObject{
		"ir_version":   ir.IRString(ir.IRVersion),
		"tool_version": ir.IRString(ir.ToolVersion),
		"definitions":  defs,
	}

	data, err := ir.MarshalCanonical(doc)
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
