package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/qwire/internal/ir"
)

// symKey is how ir encodes a symbolic count.
const symKey = "$sym"

// marshalObject converts an IRObject to canonical JSON TEXT for storage.
func marshalObject(field string, obj ir.IRObject) (string, error) {
	if obj == nil {
		obj = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", field, err)
	}
	return string(data), nil
}

// unmarshalObject parses canonical JSON TEXT. ir.IRObject.UnmarshalJSON keeps
// large integers exact.
func unmarshalObject(field, data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", field, err)
	}
	return obj, nil
}

// countString renders a stored count: an integer, or a symbolic expression
// encoded as {"$sym": "..."}.
func countString(v ir.IRValue) string {
	switch v := v.(type) {
	case ir.IRInt:
		return strconv.FormatInt(int64(v), 10)
	case ir.IRObject:
		if s, ok := v[symKey].(ir.IRString); ok {
			return string(s)
		}
	case ir.IRExpr:
		return countString(v.Lower())
	}
	return "?"
}
