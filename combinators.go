package shapecheck

import (
	"fmt"
	"slices"

	json "github.com/goccy/go-json"

	"github.com/reoring/shapecheck/internal/value"
)

// UnionSchema accepts a value matching any of its members. Members are tried
// in declared order and the first success wins.
type UnionSchema struct {
	members  []Schema
	optional bool
}

// AnyOf returns a union of members. It panics when no member is given.
func AnyOf(members ...Schema) *UnionSchema {
	return &UnionSchema{members: nonNilMembers("AnyOf", members)}
}

// Optional returns a copy that accepts null without consulting members.
func (u *UnionSchema) Optional() *UnionSchema {
	c := *u
	c.optional = true
	return &c
}

// Members returns the alternatives in declared order.
func (u *UnionSchema) Members() []Schema { return slices.Clone(u.members) }

// IsOptional reports whether null is accepted.
func (u *UnionSchema) IsOptional() bool { return u.optional }

func (*UnionSchema) Kind() Kind { return KindUnion }
func (*UnionSchema) sealed()    {}

// check returns the parsed value of the first matching member. When none
// matches, the type error lists every member failure in member order.
func (u *UnionSchema) check(v any, recurse Recurse) (any, *Error) {
	if u.optional && value.IsNull(v) {
		return nil, nil
	}
	failures := make([]*Failure, 0, len(u.members))
	for _, m := range u.members {
		r := recurse(v, m)
		if r.OK() {
			return r.Value(), nil
		}
		failures = append(failures, r.Failure())
	}
	return nil, &Error{Code: CodeType, Members: failures}
}

// IntersectionSchema requires an object value to match all of its members.
// Each member sees the original value; the parsed value is the input itself.
type IntersectionSchema struct {
	members  []Schema
	optional bool
}

// AllOf returns an intersection of members. It panics when no member is
// given.
func AllOf(members ...Schema) *IntersectionSchema {
	return &IntersectionSchema{members: nonNilMembers("AllOf", members)}
}

// Optional returns a copy that accepts null.
func (s *IntersectionSchema) Optional() *IntersectionSchema {
	c := *s
	c.optional = true
	return &c
}

// Members returns the member schemas in declared order.
func (s *IntersectionSchema) Members() []Schema { return slices.Clone(s.members) }

// IsOptional reports whether null is accepted.
func (s *IntersectionSchema) IsOptional() bool { return s.optional }

func (*IntersectionSchema) Kind() Kind { return KindIntersection }
func (*IntersectionSchema) sealed()    {}

func (s *IntersectionSchema) check(v any, recurse Recurse) (any, *Error) {
	if _, ok := value.Map(v); !ok {
		if s.optional && value.IsNull(v) {
			return nil, nil
		}
		return nil, typeError(value.TypeName(v))
	}
	var failures []*Failure
	for _, m := range s.members {
		if r := recurse(v, m); !r.OK() {
			failures = append(failures, r.Failure())
		}
	}
	if failures != nil {
		return nil, &Error{Code: CodeChildren, Members: failures}
	}
	return v, nil
}

// StringifiedSchema accepts a string holding JSON text and validates the
// decoded document against an inner schema. The parsed value is the decoded
// document as the inner schema parsed it.
type StringifiedSchema struct {
	inner    Schema
	optional bool
}

// Stringified returns a schema for JSON text matching inner.
func Stringified(inner Schema) *StringifiedSchema {
	if inner == nil {
		panic("shapecheck: Stringified requires an inner schema")
	}
	return &StringifiedSchema{inner: inner}
}

// Optional returns a copy that accepts null.
func (s *StringifiedSchema) Optional() *StringifiedSchema {
	c := *s
	c.optional = true
	return &c
}

// Inner returns the schema the decoded document must match.
func (s *StringifiedSchema) Inner() Schema { return s.inner }

// IsOptional reports whether null is accepted.
func (s *StringifiedSchema) IsOptional() bool { return s.optional }

func (*StringifiedSchema) Kind() Kind { return KindStringified }
func (*StringifiedSchema) sealed()    {}

// check keeps malformed text (parse) apart from well-formed text of the wrong
// shape (value).
func (s *StringifiedSchema) check(v any, recurse Recurse) (any, *Error) {
	str, ok := value.String(v)
	if !ok {
		if s.optional && value.IsNull(v) {
			return nil, nil
		}
		return nil, typeError(value.TypeName(v))
	}
	var doc any
	if err := json.Unmarshal([]byte(str), &doc); err != nil {
		return nil, &Error{Code: CodeParse, ParseError: err.Error()}
	}
	r := recurse(doc, s.inner)
	if !r.OK() {
		return nil, &Error{Code: CodeValue, ValueError: r.Failure()}
	}
	return r.Value(), nil
}

// DeferredSchema resolves its target lazily, on every validation, so schemas
// can refer to themselves or to each other.
type DeferredSchema struct {
	resolve func() Schema
	name    string
}

// Deferred returns a schema that validates against fn(). fn is not called
// until a value is validated.
func Deferred(fn func() Schema) *DeferredSchema {
	if fn == nil {
		panic("shapecheck: Deferred requires a resolver")
	}
	return &DeferredSchema{resolve: fn}
}

// Named returns a copy labelled name. Exporters use the label to emit a
// reusable definition instead of expanding the target inline.
func (d *DeferredSchema) Named(name string) *DeferredSchema {
	c := *d
	c.name = name
	return &c
}

// Name returns the label set with Named.
func (d *DeferredSchema) Name() string { return d.name }

// Resolve calls the resolver. It panics when the resolver yields nil.
func (d *DeferredSchema) Resolve() Schema {
	s := d.resolve()
	if s == nil {
		label := d.name
		if label == "" {
			label = "<unnamed>"
		}
		panic(fmt.Sprintf("shapecheck: deferred schema %s resolved to nil", label))
	}
	return s
}

func (*DeferredSchema) Kind() Kind { return KindDeferred }
func (*DeferredSchema) sealed()    {}

func (d *DeferredSchema) check(v any, recurse Recurse) Result[any] {
	return recurse(v, d.Resolve())
}

func nonNilMembers(ctor string, members []Schema) []Schema {
	if len(members) == 0 {
		panic(fmt.Sprintf("shapecheck: %s requires at least one member", ctor))
	}
	for i, m := range members {
		if m == nil {
			panic(fmt.Sprintf("shapecheck: %s member %d is nil", ctor, i))
		}
	}
	return slices.Clone(members)
}
