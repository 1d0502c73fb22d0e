package engine

import (
	"fmt"
	"strings"

	"github.com/c360/alertflow/errors"
)

// Comparison operators accepted by compare nodes
const (
	OpGreaterThan  = ">"
	OpGreaterEqual = ">="
	OpLessThan     = "<"
	OpLessEqual    = "<="
	OpEquals       = "=="
	OpNotEquals    = "!="
	OpContains     = "contains"
	OpNotContains  = "not_contains"
)

// Compare applies op to the two operands. Ordering operators require both
// operands to coerce to numbers. Equality operators try numeric comparison
// first and fall back to string comparison; containment operators always
// compare string renderings.
func Compare(op string, a, b any) (bool, error) {
	switch op {
	case OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual:
		x, aok := toFloat64(a)
		y, bok := toFloat64(b)
		if !aok || !bok {
			return false, fmt.Errorf("%w: %T %s %T", errors.ErrTypeMismatch, a, op, b)
		}
		switch op {
		case OpGreaterThan:
			return x > y, nil
		case OpGreaterEqual:
			return x >= y, nil
		case OpLessThan:
			return x < y, nil
		default:
			return x <= y, nil
		}

	case OpEquals, OpNotEquals:
		eq := valuesEqual(a, b)
		if op == OpNotEquals {
			return !eq, nil
		}
		return eq, nil

	case OpContains:
		return strings.Contains(toString(a), toString(b)), nil
	case OpNotContains:
		return !strings.Contains(toString(a), toString(b)), nil

	default:
		return false, fmt.Errorf("%w: %q", errors.ErrUnknownOperator, op)
	}
}

func valuesEqual(a, b any) bool {
	if x, aok := toFloat64(a); aok {
		if y, bok := toFloat64(b); bok {
			return x == y
		}
	}
	return toString(a) == toString(b)
}

// toFloat64 coerces JSON-decoded and adapter-supplied numeric types
func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// truthy reports whether a memoized value counts as true for and/or nodes.
// Booleans are taken as-is; numbers are true when non-zero; strings when
// non-empty; nil is false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	default:
		if f, ok := toFloat64(val); ok {
			return f != 0
		}
		return true
	}
}
