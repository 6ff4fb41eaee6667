package shapecheck

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/reoring/shapecheck/internal/value"
)

// Matcher reports whether a string matches a pattern. *regexp.Regexp
// satisfies it.
type Matcher interface {
	MatchString(s string) bool
}

// StringOptions is the configuration of a string schema. Nil bounds are not
// checked.
type StringOptions struct {
	MinLength *int
	MaxLength *int
	Pattern   Matcher
	Optional  bool
}

// StringSchema accepts strings. Checks run in a fixed order: type, length
// (in runes, inclusive), pattern.
//
// Length counts Unicode code points, not UTF-16 code units as JavaScript's
// String.length does: "😀" has length 1 here and 2 there. Bounds carried
// over from JavaScript schemas may accept more characters than before.
type StringSchema struct {
	opts StringOptions
}

// String returns a schema accepting any string.
func String() *StringSchema { return &StringSchema{} }

// MinLength returns a copy requiring at least n runes.
func (s *StringSchema) MinLength(n int) *StringSchema {
	c := *s
	c.opts.MinLength = &n
	return &c
}

// MaxLength returns a copy allowing at most n runes.
func (s *StringSchema) MaxLength(n int) *StringSchema {
	c := *s
	c.opts.MaxLength = &n
	return &c
}

// Pattern returns a copy requiring m to match.
func (s *StringSchema) Pattern(m Matcher) *StringSchema {
	c := *s
	c.opts.Pattern = m
	return &c
}

// Optional returns a copy that accepts null.
func (s *StringSchema) Optional() *StringSchema {
	c := *s
	c.opts.Optional = true
	return &c
}

// Options returns a copy of the configuration.
func (s *StringSchema) Options() StringOptions {
	o := s.opts
	o.MinLength = cloneInt(o.MinLength)
	o.MaxLength = cloneInt(o.MaxLength)
	return o
}

// IsOptional reports whether null is accepted.
func (s *StringSchema) IsOptional() bool { return s.opts.Optional }

func (*StringSchema) Kind() Kind { return KindString }
func (*StringSchema) sealed()    {}

func (s *StringSchema) check(v any) (any, *Error) {
	str, ok := value.String(v)
	if !ok {
		if s.opts.Optional && value.IsNull(v) {
			return nil, nil
		}
		return nil, typeError(value.TypeName(v))
	}
	n := utf8.RuneCountInString(str)
	if outOfBounds(n, s.opts.MinLength, s.opts.MaxLength) {
		return nil, &Error{
			Code:      CodeLength,
			Length:    n,
			MinLength: cloneInt(s.opts.MinLength),
			MaxLength: cloneInt(s.opts.MaxLength),
		}
	}
	if s.opts.Pattern != nil && !s.opts.Pattern.MatchString(str) {
		return nil, &Error{Code: CodePattern}
	}
	return str, nil
}

// NumberOptions is the configuration of a number schema.
type NumberOptions struct {
	Min      *float64
	Max      *float64
	Optional bool
}

// NumberSchema accepts every Go numeric kind and json.Number and yields a
// float64. Bounds are inclusive.
type NumberSchema struct {
	opts NumberOptions
}

// Number returns a schema accepting any number.
func Number() *NumberSchema { return &NumberSchema{} }

// Min returns a copy requiring values >= f.
func (s *NumberSchema) Min(f float64) *NumberSchema {
	c := *s
	c.opts.Min = &f
	return &c
}

// Max returns a copy requiring values <= f.
func (s *NumberSchema) Max(f float64) *NumberSchema {
	c := *s
	c.opts.Max = &f
	return &c
}

// Optional returns a copy that accepts null.
func (s *NumberSchema) Optional() *NumberSchema {
	c := *s
	c.opts.Optional = true
	return &c
}

// Options returns a copy of the configuration.
func (s *NumberSchema) Options() NumberOptions {
	o := s.opts
	o.Min = cloneFloat(o.Min)
	o.Max = cloneFloat(o.Max)
	return o
}

// IsOptional reports whether null is accepted.
func (s *NumberSchema) IsOptional() bool { return s.opts.Optional }

func (*NumberSchema) Kind() Kind { return KindNumber }
func (*NumberSchema) sealed()    {}

func (s *NumberSchema) check(v any) (any, *Error) {
	f, ok := value.Float(v)
	if !ok {
		if s.opts.Optional && value.IsNull(v) {
			return nil, nil
		}
		return nil, typeError(value.TypeName(v))
	}
	if (s.opts.Min != nil && f < *s.opts.Min) || (s.opts.Max != nil && f > *s.opts.Max) {
		return nil, &Error{Code: CodeRange, Min: cloneFloat(s.opts.Min), Max: cloneFloat(s.opts.Max)}
	}
	return f, nil
}

// BooleanSchema accepts true and false.
type BooleanSchema struct {
	optional bool
}

// Boolean returns a schema accepting booleans.
func Boolean() *BooleanSchema { return &BooleanSchema{} }

// Optional returns a copy that accepts null.
func (s *BooleanSchema) Optional() *BooleanSchema {
	c := *s
	c.optional = true
	return &c
}

// IsOptional reports whether null is accepted.
func (s *BooleanSchema) IsOptional() bool { return s.optional }

func (*BooleanSchema) Kind() Kind { return KindBoolean }
func (*BooleanSchema) sealed()    {}

func (s *BooleanSchema) check(v any) (any, *Error) {
	b, ok := value.Bool(v)
	if !ok {
		if s.optional && value.IsNull(v) {
			return nil, nil
		}
		return nil, typeError(value.TypeName(v))
	}
	return b, nil
}

// EnumSchema accepts one of a fixed, ordered list of literals.
type EnumSchema struct {
	values   []any
	optional bool
}

// ChoiceOf returns a schema accepting exactly one of the given string,
// number or bool literals. Numbers are compared numerically and reported as
// float64. It panics when no value is given or on any other literal kind.
func ChoiceOf(values ...any) *EnumSchema {
	if len(values) == 0 {
		panic("shapecheck: ChoiceOf requires at least one value")
	}
	lits := make([]any, len(values))
	for i, v := range values {
		lit, ok := value.Literal(v)
		if !ok {
			panic(fmt.Sprintf("shapecheck: ChoiceOf accepts string, number or bool literals, got %T", v))
		}
		lits[i] = lit
	}
	return &EnumSchema{values: lits}
}

// Exactly returns a schema accepting only v.
func Exactly(v any) *EnumSchema { return ChoiceOf(v) }

// Optional returns a copy that accepts null.
func (s *EnumSchema) Optional() *EnumSchema {
	c := *s
	c.optional = true
	return &c
}

// Values returns the allowed literals in declared order.
func (s *EnumSchema) Values() []any { return slices.Clone(s.values) }

// IsOptional reports whether null is accepted.
func (s *EnumSchema) IsOptional() bool { return s.optional }

func (*EnumSchema) Kind() Kind { return KindEnum }
func (*EnumSchema) sealed()    {}

func (s *EnumSchema) check(v any) (any, *Error) {
	for _, lit := range s.values {
		if value.Equal(lit, v) {
			return lit, nil
		}
	}
	if s.optional && value.IsNull(v) {
		return nil, nil
	}
	return nil, &Error{Code: CodeMismatch, AllowedValues: slices.Clone(s.values)}
}

// AnySchema accepts every value, null included, and returns it unchanged.
type AnySchema struct{}

// Any returns the pass-through schema.
func Any() *AnySchema { return &AnySchema{} }

func (*AnySchema) Kind() Kind { return KindAny }
func (*AnySchema) sealed()    {}

// UnknownSchema behaves like AnySchema. It marks values the caller must
// narrow before use, typically through Of[T].
type UnknownSchema struct{}

// Unknown returns the pass-through schema for values of unknown shape.
func Unknown() *UnknownSchema { return &UnknownSchema{} }

func (*UnknownSchema) Kind() Kind { return KindUnknown }
func (*UnknownSchema) sealed()    {}

func outOfBounds(n int, lo, hi *int) bool {
	return (lo != nil && n < *lo) || (hi != nil && n > *hi)
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	n := *p
	return &n
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	f := *p
	return &f
}
