package value

import (
	"math"
	"strconv"
	"strings"
)

// Infer gives the value the most specific kind str can be read as: blank,
// number, boolean and text otherwise.
func Infer(str string) Value {
	if str == "" {
		return Empty()
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Float(f)
	}
	switch strings.ToLower(str) {
	case "true":
		return Boolean(true)
	case "false":
		return Boolean(false)
	default:
		return Text(str)
	}
}

func From(v any) (Value, bool) {
	switch v := v.(type) {
	case nil:
		return Empty(), true
	case Value:
		return v, true
	case string:
		return Text(v), true
	case bool:
		return Boolean(v), true
	case int:
		return Float(v), true
	case int64:
		return Float(v), true
	case float32:
		return Float(v), true
	case float64:
		return Float(v), true
	default:
		return nil, false
	}
}
