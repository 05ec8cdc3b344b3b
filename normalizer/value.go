package normalizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value wraps a decoded JSON value for get-or-default traversal. Every step
// tolerates a missing key or a value of the wrong shape by yielding the
// zero Value, and every leaf read takes the default to use in that case.
type Value struct {
	v any
}

// Wrap returns a Value around a decoded JSON document.
func Wrap(v any) Value { return Value{v: v} }

// Get walks keys through nested objects.
func (x Value) Get(keys ...string) Value {
	cur := x.v
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return Value{}
		}
		cur = m[k]
	}
	return Value{v: cur}
}

// Exists reports whether the value is present and not JSON null.
func (x Value) Exists() bool { return x.v != nil }

// IsObject reports whether the value is a JSON object.
func (x Value) IsObject() bool {
	_, ok := x.v.(map[string]any)
	return ok
}

// List returns the elements of a JSON array, or nil for anything else.
func (x Value) List() []Value {
	arr, ok := x.v.([]any)
	if !ok {
		return nil
	}
	out := make([]Value, len(arr))
	for i, e := range arr {
		out[i] = Value{v: e}
	}
	return out
}

// Str returns the value as text. Numbers keep their JSON spelling so
// "3.4" overs survive unchanged. Blank strings, objects, arrays, booleans
// and null yield def.
func (x Value) Str(def string) string {
	switch t := x.v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return def
		}
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return def
}

// Int returns the value as an integer. Numeric strings are accepted since
// the site sends some counts quoted; fractional values are truncated.
func (x Value) Int(def int) int {
	switch t := x.v.(type) {
	case json.Number:
		return numberToInt(string(t), def)
	case float64:
		return floatToInt(t, def)
	case string:
		return numberToInt(strings.TrimSpace(t), def)
	}
	return def
}

func numberToInt(s string, def int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return floatToInt(f, def)
	}
	return def
}

func floatToInt(f float64, def int) int {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return def
	}
	return int(f)
}
