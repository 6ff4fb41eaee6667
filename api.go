package shapecheck

import (
	"fmt"
	"slices"

	"github.com/mitchellh/mapstructure"
)

// Schema is an immutable validation rule. The set of implementations is
// closed: only the constructors of this package produce schemas, and the
// engine dispatches over them exhaustively.
type Schema interface {
	// Kind reports the category of the schema.
	Kind() Kind
	sealed()
}

// Recurse validates a child value against a child schema. Composite schemas
// receive the engine itself as their Recurse, so every level of the tree is
// wrapped the same way.
type Recurse func(v any, s Schema) Result[any]

// Validate checks v against s and returns either the parsed value or the
// failure envelope of s. It never panics on bad input; it panics only on a
// nil schema, which is a programming error.
func Validate(v any, s Schema) Result[any] {
	return validate(v, s)
}

// Is reports whether v conforms to s.
func Is(s Schema, v any) bool { return Validate(v, s).OK() }

// IsOptional reports whether s accepts null. Any and Unknown always do; a
// deferred schema answers for its current target.
func IsOptional(s Schema) bool {
	switch t := s.(type) {
	case *AnySchema, *UnknownSchema:
		return true
	case *DeferredSchema:
		return IsOptional(t.Resolve())
	case *UnionSchema:
		return t.IsOptional() || slices.ContainsFunc(t.members, IsOptional)
	case interface{ IsOptional() bool }:
		return t.IsOptional()
	}
	return false
}

// Parse validates v against s and decodes the parsed value into T. When the
// parsed value already is a T it is returned as is; otherwise it is decoded
// with mapstructure using `json` struct tags. The returned error is a
// *Failure when validation fails.
func Parse[T any](s Schema, v any) (T, error) {
	out, err := Validate(v, s).Unwrap()
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeAs[T](out)
}

// MustParse is like Parse but panics on error.
func MustParse[T any](s Schema, v any) T {
	out, err := Parse[T](s, v)
	if err != nil {
		panic(err)
	}
	return out
}

// Of pairs a schema with the Go type its parsed values decode into.
type Of[T any] struct {
	schema Schema
}

// As declares T as the native type of s.
func As[T any](s Schema) Of[T] {
	if s == nil {
		panic("shapecheck: As requires a schema")
	}
	return Of[T]{schema: s}
}

// Schema returns the underlying schema, for embedding into composites.
func (o Of[T]) Schema() Schema { return o.schema }

// Parse validates v and decodes it into T.
func (o Of[T]) Parse(v any) (T, error) { return Parse[T](o.schema, v) }

// Validate validates v without decoding.
func (o Of[T]) Validate(v any) Result[any] { return Validate(v, o.schema) }

func decodeAs[T any](v any) (T, error) {
	var out T
	if t, ok := v.(T); ok {
		return t, nil
	}
	if v == nil {
		return out, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "json",
	})
	if err != nil {
		return out, fmt.Errorf("shapecheck: decoder for %T: %w", out, err)
	}
	if err := dec.Decode(v); err != nil {
		return out, fmt.Errorf("shapecheck: decode into %T: %w", out, err)
	}
	return out, nil
}
