package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/verify"
)

// Severity of a validation finding.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationError is one finding about a compiled definition.
type ValidationError struct {
	Op       string `json:"op"`
	Field    string `json:"field"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate decomposes every definition in p and checks the resulting
// graphs. It returns all findings rather than stopping at the first.
//
// Definitions with symbolic shapes cannot be instantiated and are skipped.
// Frees of registers that are not provably zero are warnings.
func Validate(p *Program) []ValidationError {
	var out []ValidationError
	for _, d := range p.Definitions() {
		out = append(out, validateDefinition(d)...)
	}
	return out
}

func validateDefinition(d *Definition) []ValidationError {
	name := d.spec.Name
	g, err := circuit.Decompose(d)
	if err != nil {
		if circuit.IsSymbolicShape(err) {
			return nil
		}
		return []ValidationError{fromError(name, err)}
	}
	if err := g.Validate(); err != nil {
		return []ValidationError{fromError(name, err)}
	}

	r, err := verify.Verify(d)
	if err != nil {
		return []ValidationError{fromError(name, err)}
	}
	var out []ValidationError
	for _, v := range r.Violations {
		out = append(out, ValidationError{
			Op:       name,
			Field:    strings.Join(v.Path, "/"),
			Message:  v.String(),
			Code:     ErrNotReleasedZero,
			Severity: SeverityWarning,
			Line:     d.spec.Pos.Line(),
		})
	}
	return out
}

func fromError(op string, err error) ValidationError {
	ve := ValidationError{Op: op, Field: op, Message: err.Error(), Code: ErrStructural, Severity: SeverityError}
	var ce *CompileError
	if errors.As(err, &ce) {
		ve.Field, ve.Message, ve.Code = ce.Field, ce.Message, ce.Code
		if ce.Pos.IsValid() {
			ve.Line = ce.Pos.Line()
		}
	}
	return ve
}
