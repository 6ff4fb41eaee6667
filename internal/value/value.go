// Package value inspects untyped input values the way the validators see them:
// JSON-like kinds over arbitrary Go representations.
package value

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// TypeName reports the JSON-like type of v: null, boolean, number, string,
// array or object. Other Go values, including a json.Number that does not
// parse, are reported by their Go type.
func TypeName(v any) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		if _, err := n.Float64(); err != nil {
			return fmt.Sprintf("%T", v)
		}
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return "object"
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "null"
		}
	}
	return fmt.Sprintf("%T", v)
}

// IsNull reports whether v stands for JSON null or an absent value: untyped
// nil or a nil pointer. Nil slices and maps are empty containers, not null.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// String returns v as a string when its kind is string. json.Number is a
// number even though its underlying kind is string.
func String(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case json.Number, nil:
		return "", false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// Bool returns v as a bool when its kind is bool.
func Bool(v any) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Bool {
		return rv.Bool(), true
	}
	return false, false
}

// Float returns v as a float64 when it is any Go numeric kind or a
// well-formed json.Number.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// Slice returns the elements of v when it is a slice or an array.
func Slice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// Map returns v as a map[string]any when it is a map with string keys.
func Map(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// Keys returns the keys of m in lexicographic order, the enumeration order
// used wherever a map is visited positionally.
func Keys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// Literal normalizes an enum literal: numbers become float64, strings and
// bools keep their value. ok is false for any other kind.
func Literal(v any) (any, bool) {
	if s, ok := String(v); ok {
		return s, true
	}
	if b, ok := Bool(v); ok {
		return b, true
	}
	if f, ok := Float(v); ok {
		return f, true
	}
	return nil, false
}

// Equal reports whether v equals the normalized literal lit. Numbers compare
// numerically regardless of their Go representation.
func Equal(lit, v any) bool {
	switch l := lit.(type) {
	case string:
		s, ok := String(v)
		return ok && s == l
	case bool:
		b, ok := Bool(v)
		return ok && b == l
	case float64:
		f, ok := Float(v)
		return ok && f == l
	}
	return false
}
