// Package sym provides symbolic integer expressions used for register
// widths, shapes, multiplicities and cost totals.
//
// Expressions are immutable and compared syntactically: two expressions are
// equal when their normalised String forms match. Constructors fold integer
// constants and order operands so that commuted inputs produce the same
// expression. Sums also collect like terms, so n - n is 0. No further
// algebraic simplification is attempted.
package sym

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Expr is a sealed symbolic integer expression.
type Expr interface {
	String() string
	expr()
}

// Int is a concrete integer.
type Int int64

// Symbol is a free variable such as a register width "n".
type Symbol string

type sum []Expr
type product []Expr
type maximum []Expr

// unknown poisons every expression it participates in.
type unknown struct{}

func (Int) expr()     {}
func (Symbol) expr()  {}
func (sum) expr()     {}
func (product) expr() {}
func (maximum) expr() {}
func (unknown) expr() {}

func (i Int) String() string    { return strconv.FormatInt(int64(i), 10) }
func (s Symbol) String() string { return string(s) }
func (unknown) String() string  { return "?" }

func (s sum) String() string {
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " + ") + ")"
}

func (p product) String() string {
	parts := make([]string, len(p))
	for i, f := range p {
		parts[i] = f.String()
	}
	return strings.Join(parts, "*")
}

func (m maximum) String() string {
	parts := make([]string, len(m))
	for i, a := range m {
		parts[i] = a.String()
	}
	return "max(" + strings.Join(parts, ", ") + ")"
}

// Unknown returns the expression for a quantity that could not be determined.
func Unknown() Expr { return unknown{} }

// IsUnknown reports whether e is, or contains, the unknown marker.
func IsUnknown(e Expr) bool {
	switch v := e.(type) {
	case unknown:
		return true
	case sum:
		return slices.ContainsFunc(v, IsUnknown)
	case product:
		return slices.ContainsFunc(v, IsUnknown)
	case maximum:
		return slices.ContainsFunc(v, IsUnknown)
	}
	return false
}

// Value returns the concrete value of e, if it has one.
func Value(e Expr) (int64, bool) {
	if i, ok := e.(Int); ok {
		return int64(i), true
	}
	return 0, false
}

// IsConcrete reports whether e is a plain integer.
func IsConcrete(e Expr) bool {
	_, ok := e.(Int)
	return ok
}

// IsZero reports whether e is the integer 0. Nil counts as zero.
func IsZero(e Expr) bool {
	if e == nil {
		return true
	}
	v, ok := Value(e)
	return ok && v == 0
}

// Equal compares two expressions syntactically.
func Equal(a, b Expr) bool {
	return str(a) == str(b)
}

func str(e Expr) string {
	if e == nil {
		return "0"
	}
	return e.String()
}

// Add returns the sum of terms. Nil terms count as zero.
func Add(terms ...Expr) Expr {
	var c int64
	var bases []Expr
	coef := map[string]int64{}
	for _, t := range flatten(terms, func(e Expr) ([]Expr, bool) {
		s, ok := e.(sum)
		return s, ok
	}) {
		switch v := t.(type) {
		case nil:
		case unknown:
			return unknown{}
		case Int:
			var ok bool
			if c, ok = addInt(c, int64(v)); !ok {
				return unknown{}
			}
		default:
			b, k := splitCoeff(v)
			s := b.String()
			if _, ok := coef[s]; !ok {
				bases = append(bases, b)
			}
			var ok bool
			if coef[s], ok = addInt(coef[s], k); !ok {
				return unknown{}
			}
		}
	}
	var rest []Expr
	for _, b := range bases {
		if k := coef[b.String()]; k != 0 {
			rest = append(rest, Mul(Int(k), b))
		}
	}
	if len(rest) == 0 {
		return Int(c)
	}
	sortExprs(rest)
	if c != 0 {
		rest = append(rest, Int(c))
	}
	if len(rest) == 1 {
		return rest[0]
	}
	return sum(rest)
}

// splitCoeff separates the integer coefficient of a term: 2*n is (n, 2).
func splitCoeff(e Expr) (Expr, int64) {
	p, ok := e.(product)
	if !ok {
		return e, 1
	}
	k, ok := p[0].(Int)
	if !ok {
		return e, 1
	}
	if len(p) == 2 {
		return p[1], int64(k)
	}
	return product(slices.Clone(p[1:])), int64(k)
}

// Sub returns a - b.
func Sub(a, b Expr) Expr {
	return Add(a, Mul(Int(-1), b))
}

// Mul returns the product of factors. Nil factors count as one.
func Mul(factors ...Expr) Expr {
	c := int64(1)
	var rest []Expr
	for _, f := range flatten(factors, func(e Expr) ([]Expr, bool) {
		p, ok := e.(product)
		return p, ok
	}) {
		switch v := f.(type) {
		case nil:
		case unknown:
			return unknown{}
		case Int:
			var ok bool
			if c, ok = mulInt(c, int64(v)); !ok {
				return unknown{}
			}
		default:
			rest = append(rest, v)
		}
	}
	if c == 0 || len(rest) == 0 {
		return Int(c)
	}
	sortExprs(rest)
	if c != 1 {
		rest = append([]Expr{Int(c)}, rest...)
	}
	if len(rest) == 1 {
		return rest[0]
	}
	return product(rest)
}

// Max returns the maximum of args. With no arguments it returns 0.
func Max(args ...Expr) Expr {
	var best int64
	haveConst := false
	var rest []Expr
	for _, a := range flatten(args, func(e Expr) ([]Expr, bool) {
		m, ok := e.(maximum)
		return m, ok
	}) {
		switch v := a.(type) {
		case nil:
		case unknown:
			return unknown{}
		case Int:
			if !haveConst || int64(v) > best {
				best = int64(v)
			}
			haveConst = true
		default:
			rest = append(rest, v)
		}
	}
	if len(rest) == 0 {
		return Int(best)
	}
	sortExprs(rest)
	rest = slices.CompactFunc(rest, Equal)
	if haveConst {
		rest = append(rest, Int(best))
	}
	if len(rest) == 1 {
		return rest[0]
	}
	return maximum(rest)
}

// Eval substitutes env into e. It fails when e references a symbol missing
// from env or contains the unknown marker.
func Eval(e Expr, env map[string]int64) (int64, bool) {
	switch v := e.(type) {
	case nil:
		return 0, true
	case Int:
		return int64(v), true
	case Symbol:
		n, ok := env[string(v)]
		return n, ok
	case sum:
		var total int64
		for _, t := range v {
			n, ok := Eval(t, env)
			if !ok {
				return 0, false
			}
			if total, ok = addInt(total, n); !ok {
				return 0, false
			}
		}
		return total, true
	case product:
		total := int64(1)
		for _, f := range v {
			n, ok := Eval(f, env)
			if !ok {
				return 0, false
			}
			if total, ok = mulInt(total, n); !ok {
				return 0, false
			}
		}
		return total, true
	case maximum:
		var best int64
		for i, a := range v {
			n, ok := Eval(a, env)
			if !ok {
				return 0, false
			}
			if i == 0 || n > best {
				best = n
			}
		}
		return best, true
	}
	return 0, false
}

// Symbols returns the sorted free symbols of e.
func Symbols(e Expr) []string {
	seen := map[string]bool{}
	var walk func(Expr)
	walk = func(e Expr) {
		switch v := e.(type) {
		case Symbol:
			seen[string(v)] = true
		case sum:
			for _, t := range v {
				walk(t)
			}
		case product:
			for _, t := range v {
				walk(t)
			}
		case maximum:
			for _, t := range v {
				walk(t)
			}
		}
	}
	walk(e)
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

func flatten(in []Expr, split func(Expr) ([]Expr, bool)) []Expr {
	out := make([]Expr, 0, len(in))
	for _, e := range in {
		if inner, ok := split(e); ok {
			out = append(out, inner...)
			continue
		}
		out = append(out, e)
	}
	return out
}

func sortExprs(es []Expr) {
	slices.SortFunc(es, func(a, b Expr) int {
		return strings.Compare(a.String(), b.String())
	})
}

// addInt adds with an overflow check.
func addInt(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// mulInt multiplies with an overflow check.
func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	return p, true
}
