package circuit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies structural and transform errors.
type ErrorKind string

// Structural errors are fatal to the call that raised them; the builder is
// left exactly as it was before the call.
const (
	KindTypeMismatch      ErrorKind = "type_mismatch"
	KindUseAfterConsume   ErrorKind = "use_after_consume"
	KindDanglingValue     ErrorKind = "dangling_value"
	KindDuplicatePortName ErrorKind = "duplicate_port_name"
	KindMissingConnection ErrorKind = "missing_connection"
	KindUnknownPort       ErrorKind = "unknown_port"
	KindSymbolicShape     ErrorKind = "symbolic_shape"
	KindBuilderClosed     ErrorKind = "builder_closed"
)

// Transform errors identify the offending operation.
const (
	KindCyclicDefinition        ErrorKind = "cyclic_definition"
	KindUnsupportedAdjoint      ErrorKind = "unsupported_adjoint"
	KindUnsupportedControl      ErrorKind = "unsupported_control"
	KindDecomposeNotImplemented ErrorKind = "decompose_not_implemented"
)

// Error is the error type returned by builders, graphs and transforms.
type Error struct {
	Kind    ErrorKind
	Op      string
	Port    string
	Message string
	// Path holds the chain of operation names for cyclic definitions.
	Path  []string
	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		fmt.Fprintf(&b, " [op=%s]", e.Op)
	}
	if e.Port != "" {
		fmt.Fprintf(&b, " [port=%s]", e.Port)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Path) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Path, " -> "))
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error with the same kind, so callers can write
// errors.Is(err, &circuit.Error{Kind: circuit.KindDanglingValue}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// HasKind reports whether any *Error in err's chain has the given kind.
func HasKind(err error, kind ErrorKind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// IsTypeMismatch returns true if a wire's dtype or shape did not match the port.
func IsTypeMismatch(err error) bool { return HasKind(err, KindTypeMismatch) }

// IsUseAfterConsume returns true if a wire was used after being consumed.
func IsUseAfterConsume(err error) bool { return HasKind(err, KindUseAfterConsume) }

// IsDanglingValue returns true if a finalized builder leaked a wire.
func IsDanglingValue(err error) bool { return HasKind(err, KindDanglingValue) }

// IsDuplicatePortName returns true for duplicate port or input names.
func IsDuplicatePortName(err error) bool { return HasKind(err, KindDuplicatePortName) }

// IsMissingConnection returns true if a required port was not wired.
func IsMissingConnection(err error) bool { return HasKind(err, KindMissingConnection) }

// IsUnknownPort returns true if a wiring named a port the op does not have.
func IsUnknownPort(err error) bool { return HasKind(err, KindUnknownPort) }

// IsSymbolicShape returns true if an op with symbolic shape was instantiated.
func IsSymbolicShape(err error) bool { return HasKind(err, KindSymbolicShape) }

// IsBuilderClosed returns true if a finalized builder was used again.
func IsBuilderClosed(err error) bool { return HasKind(err, KindBuilderClosed) }

// IsCyclicDefinition returns true if an op is defined in terms of itself.
func IsCyclicDefinition(err error) bool { return HasKind(err, KindCyclicDefinition) }

// IsUnsupportedAdjoint returns true if no adjoint could be derived.
func IsUnsupportedAdjoint(err error) bool { return HasKind(err, KindUnsupportedAdjoint) }

// IsUnsupportedControl returns true if no controlled variant could be derived.
func IsUnsupportedControl(err error) bool { return HasKind(err, KindUnsupportedControl) }

// IsDecomposeNotImplemented returns true if a leaf op was asked to decompose.
func IsDecomposeNotImplemented(err error) bool {
	return HasKind(err, KindDecomposeNotImplemented)
}

// NewCyclicError reports an op reached again while it was being expanded.
// path lists op names from the outermost expansion to the repeated op.
func NewCyclicError(op Op, path []string) *Error {
	return &Error{
		Kind:    KindCyclicDefinition,
		Op:      Name(op),
		Message: "operation is defined in terms of itself",
		Path:    path,
	}
}

func errorf(kind ErrorKind, op Op, port, format string, args ...any) *Error {
	e := &Error{Kind: kind, Port: port, Message: fmt.Sprintf(format, args...)}
	if op != nil {
		e.Op = Name(op)
	}
	return e
}
