// Package normalize turns loosely typed backend values into display-safe primitives.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number coerces v into a finite float64. Numeric values pass through, numeric
// strings are parsed, and everything else (objects, arrays, nil, bools,
// unparsable strings) yields the fallback, which defaults to 0.
func Number(v any, fallback ...float64) float64 {
	def := 0.0
	if len(fallback) > 0 {
		def = fallback[0]
	}

	switch n := v.(type) {
	case float64:
		return finite(n, def)
	case float32:
		return finite(float64(n), def)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		return parse(string(n), def)
	case string:
		return parse(n, def)
	default:
		return def
	}
}

// Int is Number truncated toward zero. Values outside the int range are
// malformed and yield the fallback.
func Int(v any, fallback ...int) int {
	def := 0
	if len(fallback) > 0 {
		def = fallback[0]
	}
	f := Number(v, float64(def))
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return def
	}
	return int(f)
}

// String renders v for display. Numbers use their shortest canonical form,
// strings are returned unchanged, and anything else yields the fallback,
// which defaults to "0".
func String(v any, fallback ...string) string {
	def := "0"
	if len(fallback) > 0 {
		def = fallback[0]
	}

	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return string(s)
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f := Number(s, math.NaN())
		if math.IsNaN(f) {
			return def
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return def
	}
}

// Present reports whether v carries a usable value: not nil and not an empty string.
func Present(v any) bool {
	switch s := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(s) != ""
	default:
		return true
	}
}

func parse(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return finite(f, def)
}

func finite(f, def float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
