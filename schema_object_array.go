package shapecheck

import (
	"fmt"
	"maps"
	"slices"

	"github.com/reoring/shapecheck/internal/value"
)

// NamedSchema is one declared field of an object schema.
type NamedSchema struct {
	Name   string
	Schema Schema
}

// ObjectSchema accepts string-keyed maps and validates a fixed set of named
// fields. Keys that are not declared are ignored and dropped from the parsed
// value.
type ObjectSchema struct {
	fields   []NamedSchema
	optional bool
}

// Shape returns an object schema without fields; add them with Field.
func Shape() *ObjectSchema { return &ObjectSchema{} }

// ShapeOf returns an object schema from a field map. Fields are declared in
// name order since Go maps carry no order.
func ShapeOf(fields map[string]Schema) *ObjectSchema {
	o := Shape()
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		o = o.Field(name, fields[name])
	}
	return o
}

// ComputedShape merges the fields of several object schemas into one. A
// later field with the same name replaces the earlier schema but keeps the
// earlier position. The result is not optional.
func ComputedShape(parts ...*ObjectSchema) *ObjectSchema {
	o := Shape()
	for _, p := range parts {
		o = o.Extend(p)
	}
	return o
}

// Field returns a copy declaring name with schema s. Redeclaring a name
// replaces its schema in place.
func (o *ObjectSchema) Field(name string, s Schema) *ObjectSchema {
	if s == nil {
		panic(fmt.Sprintf("shapecheck: field %q has a nil schema", name))
	}
	c := *o
	c.fields = slices.Clone(o.fields)
	if i := slices.IndexFunc(c.fields, func(f NamedSchema) bool { return f.Name == name }); i >= 0 {
		c.fields[i].Schema = s
		return &c
	}
	c.fields = append(c.fields, NamedSchema{Name: name, Schema: s})
	return &c
}

// Extend returns a copy with every field of other added.
func (o *ObjectSchema) Extend(other *ObjectSchema) *ObjectSchema {
	c := o
	for _, f := range other.fields {
		c = c.Field(f.Name, f.Schema)
	}
	if c == o {
		cp := *o
		return &cp
	}
	return c
}

// Optional returns a copy that accepts null.
func (o *ObjectSchema) Optional() *ObjectSchema {
	c := *o
	c.optional = true
	return &c
}

// Fields returns the declared fields in order.
func (o *ObjectSchema) Fields() []NamedSchema { return slices.Clone(o.fields) }

// IsOptional reports whether null is accepted.
func (o *ObjectSchema) IsOptional() bool { return o.optional }

func (*ObjectSchema) Kind() Kind { return KindObject }
func (*ObjectSchema) sealed()    {}

// check visits every declared field, missing keys as nil. The parsed map
// holds each successful field; a field whose parsed value is nil is kept only
// when the key was present in the input.
func (o *ObjectSchema) check(v any, recurse Recurse) (any, *Error) {
	m, ok := value.Map(v)
	if !ok {
		if o.optional && value.IsNull(v) {
			return nil, nil
		}
		return nil, typeError(value.TypeName(v))
	}
	parsed := make(map[string]any, len(o.fields))
	var problems []FieldFailure
	for _, f := range o.fields {
		raw, present := m[f.Name]
		r := recurse(raw, f.Schema)
		if !r.OK() {
			problems = append(problems, FieldFailure{Name: f.Name, Failure: r.Failure()})
			continue
		}
		if present || r.Value() != nil {
			parsed[f.Name] = r.Value()
		}
	}
	if problems != nil {
		return nil, &Error{Code: CodeChildren, Fields: problems}
	}
	return parsed, nil
}

// ArrayOptions is the configuration of an array schema.
type ArrayOptions struct {
	MinLength *int
	MaxLength *int
	Optional  bool
}

// ArraySchema accepts slices and arrays whose every element matches the item
// schema.
type ArraySchema struct {
	item Schema
	opts ArrayOptions
}

// Array returns a schema for sequences of item.
func Array(item Schema) *ArraySchema {
	if item == nil {
		panic("shapecheck: Array requires an item schema")
	}
	return &ArraySchema{item: item}
}

// MinLength returns a copy requiring at least n elements.
func (a *ArraySchema) MinLength(n int) *ArraySchema {
	c := *a
	c.opts.MinLength = &n
	return &c
}

// MaxLength returns a copy allowing at most n elements.
func (a *ArraySchema) MaxLength(n int) *ArraySchema {
	c := *a
	c.opts.MaxLength = &n
	return &c
}

// Optional returns a copy that accepts null.
func (a *ArraySchema) Optional() *ArraySchema {
	c := *a
	c.opts.Optional = true
	return &c
}

// Item returns the element schema.
func (a *ArraySchema) Item() Schema { return a.item }

// Options returns a copy of the configuration.
func (a *ArraySchema) Options() ArrayOptions {
	o := a.opts
	o.MinLength = cloneInt(o.MinLength)
	o.MaxLength = cloneInt(o.MaxLength)
	return o
}

// IsOptional reports whether null is accepted.
func (a *ArraySchema) IsOptional() bool { return a.opts.Optional }

func (*ArraySchema) Kind() Kind { return KindArray }
func (*ArraySchema) sealed()    {}

// check rejects a length violation before looking at any element, then
// reports every failing element.
func (a *ArraySchema) check(v any, recurse Recurse) (any, *Error) {
	elems, ok := value.Slice(v)
	if !ok {
		if a.opts.Optional && value.IsNull(v) {
			return nil, nil
		}
		return nil, typeError(value.TypeName(v))
	}
	if n := len(elems); outOfBounds(n, a.opts.MinLength, a.opts.MaxLength) {
		return nil, &Error{
			Code:      CodeLength,
			Length:    n,
			MinLength: cloneInt(a.opts.MinLength),
			MaxLength: cloneInt(a.opts.MaxLength),
		}
	}
	parsed := make([]any, 0, len(elems))
	var problems []ItemFailure
	for i, el := range elems {
		r := recurse(el, a.item)
		if !r.OK() {
			problems = append(problems, ItemFailure{Index: i, Failure: r.Failure()})
			continue
		}
		parsed = append(parsed, r.Value())
	}
	if problems != nil {
		return nil, &Error{Code: CodeChildren, Items: problems}
	}
	return parsed, nil
}

// RecordOptions is the configuration of a record schema.
type RecordOptions struct {
	MinEntries *int
	MaxEntries *int
	Optional   bool
}

// RecordSchema accepts string-keyed maps whose every value matches the item
// schema.
type RecordSchema struct {
	item Schema
	opts RecordOptions
}

// Record returns a schema for maps with values of item.
func Record(item Schema) *RecordSchema {
	if item == nil {
		panic("shapecheck: Record requires an item schema")
	}
	return &RecordSchema{item: item}
}

// MinEntries returns a copy requiring at least n entries.
func (r *RecordSchema) MinEntries(n int) *RecordSchema {
	c := *r
	c.opts.MinEntries = &n
	return &c
}

// MaxEntries returns a copy allowing at most n entries.
func (r *RecordSchema) MaxEntries(n int) *RecordSchema {
	c := *r
	c.opts.MaxEntries = &n
	return &c
}

// Optional returns a copy that accepts null.
func (r *RecordSchema) Optional() *RecordSchema {
	c := *r
	c.opts.Optional = true
	return &c
}

// Item returns the value schema.
func (r *RecordSchema) Item() Schema { return r.item }

// Options returns a copy of the configuration.
func (r *RecordSchema) Options() RecordOptions {
	o := r.opts
	o.MinEntries = cloneInt(o.MinEntries)
	o.MaxEntries = cloneInt(o.MaxEntries)
	return o
}

// IsOptional reports whether null is accepted.
func (r *RecordSchema) IsOptional() bool { return r.opts.Optional }

func (*RecordSchema) Kind() Kind { return KindRecord }
func (*RecordSchema) sealed()    {}

// check visits entries in key order. Failures are reported by position in
// that order, the same shape arrays use.
func (r *RecordSchema) check(v any, recurse Recurse) (any, *Error) {
	m, ok := value.Map(v)
	if !ok {
		if r.opts.Optional && value.IsNull(v) {
			return nil, nil
		}
		return nil, typeError(value.TypeName(v))
	}
	keys := value.Keys(m)
	if n := len(keys); outOfBounds(n, r.opts.MinEntries, r.opts.MaxEntries) {
		return nil, &Error{
			Code:       CodeEntryCount,
			EntryCount: n,
			MinEntries: cloneInt(r.opts.MinEntries),
			MaxEntries: cloneInt(r.opts.MaxEntries),
		}
	}
	parsed := make(map[string]any, len(keys))
	var problems []ItemFailure
	for i, k := range keys {
		res := recurse(m[k], r.item)
		if !res.OK() {
			problems = append(problems, ItemFailure{Index: i, Failure: res.Failure()})
			continue
		}
		parsed[k] = res.Value()
	}
	if problems != nil {
		return nil, &Error{Code: CodeChildren, Items: problems}
	}
	return parsed, nil
}
