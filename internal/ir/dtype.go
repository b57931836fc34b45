package ir

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/roach88/qwire/internal/sym"
)

// DType is the element type carried by a port.
// Two dtypes are equal when their String forms match.
type DType interface {
	fmt.Stringer
	// BitSize is the number of bits in one element.
	BitSize() sym.Expr
	// IsQuantum distinguishes qubit registers from classical bits.
	IsQuantum() bool
	// Unit is the single-bit dtype this register splits into.
	Unit() DType
}

// QBit is a single qubit.
type QBit struct{}

// QAny is an untyped quantum register of N qubits.
type QAny struct{ N sym.Expr }

// QUInt is an unsigned integer register of N qubits.
type QUInt struct{ N sym.Expr }

// QInt is a two's complement signed register of N qubits.
type QInt struct{ N sym.Expr }

// CBit is a single classical bit.
type CBit struct{}

// CUInt is an unsigned classical register of N bits.
type CUInt struct{ N sym.Expr }

func (QBit) String() string    { return "QBit" }
func (t QAny) String() string  { return "QAny(" + exprString(t.N) + ")" }
func (t QUInt) String() string { return "QUInt(" + exprString(t.N) + ")" }
func (t QInt) String() string  { return "QInt(" + exprString(t.N) + ")" }
func (CBit) String() string    { return "CBit" }
func (t CUInt) String() string { return "CUInt(" + exprString(t.N) + ")" }

func (QBit) BitSize() sym.Expr    { return sym.Int(1) }
func (t QAny) BitSize() sym.Expr  { return orZero(t.N) }
func (t QUInt) BitSize() sym.Expr { return orZero(t.N) }
func (t QInt) BitSize() sym.Expr  { return orZero(t.N) }
func (CBit) BitSize() sym.Expr    { return sym.Int(1) }
func (t CUInt) BitSize() sym.Expr { return orZero(t.N) }

func (QBit) IsQuantum() bool  { return true }
func (QAny) IsQuantum() bool  { return true }
func (QUInt) IsQuantum() bool { return true }
func (QInt) IsQuantum() bool  { return true }
func (CBit) IsQuantum() bool  { return false }
func (CUInt) IsQuantum() bool { return false }

func (QBit) Unit() DType  { return QBit{} }
func (QAny) Unit() DType  { return QBit{} }
func (QUInt) Unit() DType { return QBit{} }
func (QInt) Unit() DType  { return QBit{} }
func (CBit) Unit() DType  { return CBit{} }
func (CUInt) Unit() DType { return CBit{} }

// NewQAny returns a QAny register of n qubits.
func NewQAny(n int64) QAny { return QAny{N: sym.Int(n)} }

// NewQUInt returns a QUInt register of n qubits.
func NewQUInt(n int64) QUInt { return QUInt{N: sym.Int(n)} }

// NewQInt returns a QInt register of n qubits.
func NewQInt(n int64) QInt { return QInt{N: sym.Int(n)} }

// NewCUInt returns a CUInt register of n bits.
func NewCUInt(n int64) CUInt { return CUInt{N: sym.Int(n)} }

// DTypeEqual reports whether two dtypes are identical.
func DTypeEqual(a, b DType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// ConcreteBits returns the element width when it does not depend on symbols.
func ConcreteBits(dt DType) (int, bool) {
	v, ok := sym.Value(dt.BitSize())
	return int(v), ok
}

var dtypePattern = regexp.MustCompile(`^(QBit|CBit|QAny|QUInt|QInt|CUInt)(?:\(([A-Za-z_][A-Za-z0-9_]*|-?[0-9]+)\))?$`)

// ParseDType parses the textual forms produced by String, e.g. "QUInt(8)" or
// "QAny(n)". Widths are limited to a single integer or symbol.
func ParseDType(s string) (DType, error) {
	m := dtypePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("invalid dtype %q", s)
	}
	name, width := m[1], m[2]
	switch name {
	case "QBit", "CBit":
		if width != "" {
			return nil, fmt.Errorf("dtype %s takes no width: %q", name, s)
		}
		if name == "QBit" {
			return QBit{}, nil
		}
		return CBit{}, nil
	}
	if width == "" {
		return nil, fmt.Errorf("dtype %s requires a width: %q", name, s)
	}
	var n sym.Expr
	if v, err := strconv.ParseInt(width, 10, 64); err == nil {
		if v < 0 {
			return nil, fmt.Errorf("dtype %q: negative width", s)
		}
		n = sym.Int(v)
	} else {
		n = sym.Symbol(width)
	}
	switch name {
	case "QAny":
		return QAny{N: n}, nil
	case "QUInt":
		return QUInt{N: n}, nil
	case "QInt":
		return QInt{N: n}, nil
	default:
		return CUInt{N: n}, nil
	}
}

func exprString(e sym.Expr) string {
	if e == nil {
		return "0"
	}
	return e.String()
}

func orZero(e sym.Expr) sym.Expr {
	if e == nil {
		return sym.Int(0)
	}
	return e
}
