package bookkeeping

import (
	"fmt"
	"slices"

	"github.com/roach88/qwire/internal/circuit"
	"github.com/roach88/qwire/internal/ir"
	"github.com/roach88/qwire/internal/sym"
)

var names = []string{"Allocate", "Cast", "Free", "Join", "Partition", "Split"}

// Names lists the bookkeeping ops New can build.
func Names() []string { return slices.Clone(names) }

// IsBookkeeping reports whether name is a bookkeeping op New can build.
func IsBookkeeping(name string) bool { return slices.Contains(names, name) }

// New builds a bookkeeping op from textual parameters:
//
//	Allocate, Free  {dtype, dirty?}
//	Split, Join     {dtype}
//	Partition       {n, regs: [{name, dtype, shape?}]}
//	Cast            {from, to, allow_quantum_classical?}
//
// Always is not built here; it wraps another op.
func New(name string, params ir.IRObject) (circuit.Op, error) {
	p := paramReader{op: name, obj: params}
	var op circuit.Op
	switch name {
	case "Allocate", "Free":
		dt := p.dtype("dtype")
		dirty := p.boolean("dirty")
		if name == "Allocate" {
			op = Allocate{DType: dt, Dirty: dirty}
		} else {
			op = Free{DType: dt, Dirty: dirty}
		}
	case "Split":
		op = Split{DType: p.dtype("dtype")}
	case "Join":
		op = Join{DType: p.dtype("dtype")}
	case "Cast":
		from, to := p.dtype("from"), p.dtype("to")
		allow := p.boolean("allow_quantum_classical")
		if p.err != nil {
			return nil, p.err
		}
		c, err := NewCast(from, to, allow)
		if err != nil {
			return nil, err
		}
		op = c
	case "Partition":
		n := p.width("n")
		regs := p.ports("regs")
		if p.err != nil {
			return nil, p.err
		}
		part, err := NewPartition(n, regs...)
		if err != nil {
			return nil, err
		}
		op = part
	default:
		return nil, fmt.Errorf("unknown bookkeeping op %q", name)
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := p.unused(); err != nil {
		return nil, err
	}
	return op, nil
}

// paramReader pulls typed fields out of an IRObject, keeping the first error.
type paramReader struct {
	op   string
	obj  ir.IRObject
	seen []string
	err  error
}

func (r *paramReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %s", r.op, fmt.Sprintf(format, args...))
	}
}

func (r *paramReader) get(key string) (ir.IRValue, bool) {
	r.seen = append(r.seen, key)
	v, ok := r.obj[key]
	return v, ok
}

func (r *paramReader) dtype(key string) ir.DType {
	v, ok := r.get(key)
	if !ok {
		r.fail("missing parameter %q", key)
		return ir.QBit{}
	}
	return r.parseDType(key, v)
}

func (r *paramReader) parseDType(key string, v ir.IRValue) ir.DType {
	s, ok := v.(ir.IRString)
	if !ok {
		r.fail("parameter %q must be a dtype string", key)
		return ir.QBit{}
	}
	dt, err := ir.ParseDType(string(s))
	if err != nil {
		r.fail("parameter %q: %v", key, err)
		return ir.QBit{}
	}
	return dt
}

func (r *paramReader) boolean(key string) bool {
	v, ok := r.get(key)
	if !ok {
		return false
	}
	b, ok := v.(ir.IRBool)
	if !ok {
		r.fail("parameter %q must be a bool", key)
	}
	return bool(b)
}

// width accepts an integer or a symbol name.
func (r *paramReader) width(key string) sym.Expr {
	v, ok := r.get(key)
	if !ok {
		r.fail("missing parameter %q", key)
		return sym.Int(0)
	}
	switch w := v.(type) {
	case ir.IRInt:
		if w < 0 {
			r.fail("parameter %q is negative", key)
		}
		return sym.Int(int64(w))
	case ir.IRString:
		if w == "" {
			r.fail("parameter %q is empty", key)
		}
		return sym.Symbol(string(w))
	default:
		r.fail("parameter %q must be an int or a symbol", key)
		return sym.Int(0)
	}
}

func (r *paramReader) ports(key string) []ir.Port {
	v, ok := r.get(key)
	if !ok {
		r.fail("missing parameter %q", key)
		return nil
	}
	arr, ok := v.(ir.IRArray)
	if !ok {
		r.fail("parameter %q must be a list", key)
		return nil
	}
	out := make([]ir.Port, 0, len(arr))
	for i, item := range arr {
		obj, ok := item.(ir.IRObject)
		if !ok {
			r.fail("%s[%d] must be an object", key, i)
			return nil
		}
		name, _ := obj["name"].(ir.IRString)
		if name == "" {
			r.fail("%s[%d] needs a name", key, i)
			return nil
		}
		dt := r.parseDType(fmt.Sprintf("%s[%d].dtype", key, i), obj["dtype"])
		var shape []int
		if s, ok := obj["shape"].(ir.IRArray); ok {
			for _, d := range s {
				n, ok := d.(ir.IRInt)
				if !ok || n < 0 {
					r.fail("%s[%d].shape must hold non-negative ints", key, i)
					return nil
				}
				shape = append(shape, int(n))
			}
		}
		out = append(out, ir.NewPort(string(name), dt, shape...))
	}
	return out
}

func (r *paramReader) unused() error {
	for _, k := range r.obj.SortedKeys() {
		if !slices.Contains(r.seen, k) {
			return fmt.Errorf("%s: unknown parameter %q", r.op, k)
		}
	}
	return nil
}
