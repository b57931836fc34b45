package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qwire/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.ValidationError `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Check definitions for wiring and release problems",
		Long: `Validate the CUE op definitions in a directory.

Reports every parse error, then decomposes each definition and checks the
resulting graphs: wire variables used once, ports connected, and freed
registers provably back in the zero state. Release problems that cannot
be proven are warnings and do not fail validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd)

	result, err := ValidateSpecsDir(specsDir)
	if err != nil {
		code, message := errorCode(err)
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}
	logger.Debug("validated specs", "dir", specsDir, "errors", len(result.Errors), "warnings", len(result.Warnings))

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// ValidateSpecsDir validates all definitions in a directory. The error is
// set only when the directory could not be loaded.
func ValidateSpecsDir(specsDir string) (ValidationResult, error) {
	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil {
		return ValidationResult{}, loadErrors[0]
	}

	var findings []compiler.ValidationError
	for _, err := range loadErrors {
		findings = append(findings, toValidationError(err))
	}
	if loadResult.Program != nil {
		findings = append(findings, compiler.Validate(loadResult.Program)...)
	}

	result := ValidationResult{}
	for _, f := range findings {
		if f.Severity == compiler.SeverityWarning {
			result.Warnings = append(result.Warnings, f)
			continue
		}
		result.Errors = append(result.Errors, f)
	}
	result.Valid = len(result.Errors) == 0
	return result, nil
}

func toValidationError(err error) compiler.ValidationError {
	code, message := errorCode(err)
	v := compiler.ValidationError{
		Field:    "load",
		Message:  message,
		Code:     code,
		Severity: compiler.SeverityError,
	}
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		v.Field = ce.Field
	}
	if pos := errorPos(err); pos.IsValid() {
		v.Line = pos.Line()
	}
	return v
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.IsJSON() {
		return formatter.Success(result)
	}

	writeFindings(formatter, result.Warnings)
	fmt.Fprintln(formatter.Writer, "✓ All definitions valid")
	return nil
}

// outputValidationErrors outputs the findings of a failed validation.
// Validation failures exit with code 1.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	first := result.Errors[0]
	if formatter.IsJSON() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    first.Code,
				Message: first.Message,
			},
		}
		if err := formatter.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	writeFindings(formatter, result.Errors)
	writeFindings(formatter, result.Warnings)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

func writeFindings(formatter *OutputFormatter, findings []compiler.ValidationError) {
	for _, f := range findings {
		if f.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", f.Line)
		}
		label := f.Code
		if f.Severity == compiler.SeverityWarning {
			label += " (warning)"
		}
		if f.Op != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", label, f.Op, f.Message)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", label, f.Message)
	}
}
