package cost

import (
	"slices"
	"strings"

	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
)

// UnknownPrefix marks a count contributed by an op whose cost could not be
// determined. The key is "unknown:<op name>".
const UnknownPrefix = "unknown:"

// Counts is a named vector of symbolic counts. The zero cost is the empty
// map; zero entries are never stored.
type Counts map[string]sym.Expr

// Zero returns the empty cost.
func Zero() Counts { return Counts{} }

// Unknown returns a cost that records one undetermined op.
func Unknown(opName string) Counts {
	return Counts{UnknownPrefix + opName: sym.Int(1)}
}

// Of builds a concrete cost from pairs of names and counts.
func Of(entries map[string]int64) Counts {
	c := Counts{}
	for k, v := range entries {
		if v != 0 {
			c[k] = sym.Int(v)
		}
	}
	return c
}

// Add returns c + o. Neither operand is modified.
func (c Counts) Add(o Counts) Counts {
	out := make(Counts, len(c)+len(o))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range o {
		out[k] = sym.Add(out[k], v)
	}
	return out.normalize()
}

// Scale returns c multiplied by n.
func (c Counts) Scale(n sym.Expr) Counts {
	out := make(Counts, len(c))
	for k, v := range c {
		out[k] = sym.Mul(v, n)
	}
	return out.normalize()
}

// Get returns the count for key, zero when absent.
func (c Counts) Get(key string) sym.Expr {
	if v, ok := c[key]; ok {
		return v
	}
	return sym.Int(0)
}

// Int returns a concrete count for key.
func (c Counts) Int(key string) (int64, bool) {
	return sym.Value(c.Get(key))
}

// Keys returns the keys in sorted order.
func (c Counts) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IsZero reports whether c has no non-zero entries.
func (c Counts) IsZero() bool {
	for _, v := range c {
		if !sym.IsZero(v) {
			return false
		}
	}
	return true
}

// HasUnknown reports whether any op contributed an unknown marker or an
// undetermined count.
func (c Counts) HasUnknown() bool {
	for k, v := range c {
		if strings.HasPrefix(k, UnknownPrefix) || sym.IsUnknown(v) {
			return true
		}
	}
	return false
}

// Equal compares two costs entry by entry, syntactically. Missing entries
// count as zero.
func (c Counts) Equal(o Counts) bool {
	for k := range c {
		if !sym.Equal(c.Get(k), o.Get(k)) {
			return false
		}
	}
	for k := range o {
		if !sym.Equal(c.Get(k), o.Get(k)) {
			return false
		}
	}
	return true
}

// Object returns the canonical description of c.
func (c Counts) Object() ir.IRObject {
	obj := make(ir.IRObject, len(c))
	for k, v := range c {
		obj[k] = ir.Expr(v)
	}
	return obj
}

func (c Counts) String() string {
	keys := c.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + c[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// normalize drops zero entries in place; only call it on freshly built maps.
func (c Counts) normalize() Counts {
	for k, v := range c {
		if sym.IsZero(v) {
			delete(c, k)
		}
	}
	return c
}
