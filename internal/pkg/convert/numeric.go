// Package convert provides loose numeric coercion for values arriving from
// JSON bodies and config maps.
package convert

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ToFloat64 converts common numeric representations to float64. Returns 0
// for unsupported types or parse failures.
func ToFloat64(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// ToInt truncates ToFloat64.
func ToInt(v any) int {
	return int(ToFloat64(v))
}
