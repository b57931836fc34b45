package compiler

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qwire/internal/circuit"
)

// Compile error codes (E200-E299).
const (
	ErrCUE               = "E200" // CUE evaluation or schema error
	ErrStepKind          = "E201" // step must name exactly one of gate, call, bookkeeping
	ErrUnknownGate       = "E202" // gate not in the library
	ErrUnknownDefinition = "E203" // call to an undefined op
	ErrBadSignature      = "E204" // invalid port, dtype or side
	ErrBadParams         = "E205" // params rejected by the op constructor
	ErrCyclicDefinition  = "E206" // op reaches itself through calls
	ErrWiring            = "E207" // undefined, rebound or leftover wire variable
	ErrStructural        = "E208" // builder or graph check failed
	ErrTransform         = "E209" // adjoint or control could not be derived
	ErrNotReleasedZero   = "E210" // Free of a register not provably zero
)

// CompileError is a compilation error with a source position.
type CompileError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
	Cause   error
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Cause }

func errorAt(pos token.Pos, code, field, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Field: field, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// wrapAt attaches a position to an error from the core, choosing a code
// from its kind.
func wrapAt(pos token.Pos, field string, err error) *CompileError {
	code := ErrStructural
	if kind, ok := circuit.KindOf(err); ok {
		switch kind {
		case circuit.KindCyclicDefinition:
			code = ErrCyclicDefinition
		case circuit.KindUnsupportedAdjoint, circuit.KindUnsupportedControl:
			code = ErrTransform
		}
	}
	return &CompileError{Code: code, Field: field, Message: err.Error(), Pos: pos, Cause: err}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Code:    ErrCUE,
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
			Cause:   err,
		}
	}
	return &CompileError{Code: ErrCUE, Field: "cue", Message: first.Error(), Cause: err}
}
