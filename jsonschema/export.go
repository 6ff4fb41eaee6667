package jsonschema

import (
	"errors"
	"fmt"

	sc "github.com/reoring/shapecheck"
)

// From renders s as a JSON Schema document. Deferred schemas become $ref
// entries into $defs, each emitted once, so recursive schemas terminate.
// Named deferreds keep their name; unnamed ones are numbered, skipping any
// name used by a named deferred.
func From(s sc.Schema) (*Schema, error) {
	ex := &exporter{
		defs:     map[string]*Schema{},
		names:    map[*sc.DeferredSchema]string{},
		reserved: map[string]bool{},
	}
	ex.reserve(s, map[*sc.DeferredSchema]bool{})
	out, err := ex.convert(s)
	if err != nil {
		return nil, err
	}
	out.Schema = Draft
	if len(ex.defs) > 0 {
		out.Defs = ex.defs
	}
	return out, nil
}

type exporter struct {
	defs     map[string]*Schema
	names    map[*sc.DeferredSchema]string
	reserved map[string]bool
	seq      int
}

// reserve records the name of every named deferred reachable from s.
func (ex *exporter) reserve(s sc.Schema, seen map[*sc.DeferredSchema]bool) {
	switch t := s.(type) {
	case *sc.ObjectSchema:
		for _, f := range t.Fields() {
			ex.reserve(f.Schema, seen)
		}
	case *sc.ArraySchema:
		ex.reserve(t.Item(), seen)
	case *sc.RecordSchema:
		ex.reserve(t.Item(), seen)
	case *sc.UnionSchema:
		for _, m := range t.Members() {
			ex.reserve(m, seen)
		}
	case *sc.IntersectionSchema:
		for _, m := range t.Members() {
			ex.reserve(m, seen)
		}
	case *sc.StringifiedSchema:
		ex.reserve(t.Inner(), seen)
	case *sc.DeferredSchema:
		if seen[t] {
			return
		}
		seen[t] = true
		if name := t.Name(); name != "" {
			if ex.reserved[name] {
				return
			}
			ex.reserved[name] = true
		}
		ex.reserve(t.Resolve(), seen)
	}
}

func (ex *exporter) convert(s sc.Schema) (*Schema, error) {
	switch t := s.(type) {
	case *sc.StringSchema:
		o := t.Options()
		out := &Schema{Type: typeOf("string", o.Optional), MinLength: o.MinLength, MaxLength: o.MaxLength}
		if p, ok := o.Pattern.(fmt.Stringer); ok {
			out.Pattern = p.String()
		}
		return out, nil
	case *sc.NumberSchema:
		o := t.Options()
		return &Schema{Type: typeOf("number", o.Optional), Minimum: o.Min, Maximum: o.Max}, nil
	case *sc.BooleanSchema:
		return &Schema{Type: typeOf("boolean", t.IsOptional())}, nil
	case *sc.EnumSchema:
		vals := t.Values()
		if t.IsOptional() {
			vals = append(vals, nil)
		}
		return &Schema{Enum: vals}, nil
	case *sc.ObjectSchema:
		out := &Schema{Type: typeOf("object", t.IsOptional()), Properties: map[string]*Schema{}}
		for _, f := range t.Fields() {
			child, err := ex.convert(f.Schema)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", f.Name, err)
			}
			out.Properties[f.Name] = child
			if !sc.IsOptional(f.Schema) {
				out.Required = append(out.Required, f.Name)
			}
		}
		return out, nil
	case *sc.ArraySchema:
		item, err := ex.convert(t.Item())
		if err != nil {
			return nil, err
		}
		o := t.Options()
		return &Schema{Type: typeOf("array", o.Optional), Items: item, MinItems: o.MinLength, MaxItems: o.MaxLength}, nil
	case *sc.RecordSchema:
		item, err := ex.convert(t.Item())
		if err != nil {
			return nil, err
		}
		o := t.Options()
		return &Schema{
			Type:                 typeOf("object", o.Optional),
			AdditionalProperties: item,
			MinProperties:        o.MinEntries,
			MaxProperties:        o.MaxEntries,
		}, nil
	case *sc.UnionSchema:
		members, err := ex.convertAll(t.Members())
		if err != nil {
			return nil, err
		}
		if t.IsOptional() {
			members = append(members, &Schema{Type: "null"})
		}
		return &Schema{AnyOf: members}, nil
	case *sc.IntersectionSchema:
		members, err := ex.convertAll(t.Members())
		if err != nil {
			return nil, err
		}
		out := &Schema{AllOf: members}
		if t.IsOptional() {
			out = &Schema{AnyOf: []*Schema{out, {Type: "null"}}}
		}
		return out, nil
	case *sc.StringifiedSchema:
		inner, err := ex.convert(t.Inner())
		if err != nil {
			return nil, err
		}
		return &Schema{
			Type:             typeOf("string", t.IsOptional()),
			ContentMediaType: "application/json",
			ContentSchema:    inner,
		}, nil
	case *sc.DeferredSchema:
		return ex.ref(t)
	case *sc.AnySchema, *sc.UnknownSchema:
		return &Schema{}, nil
	case nil:
		return nil, errors.New("jsonschema: nil schema")
	}
	return nil, fmt.Errorf("jsonschema: unsupported schema %T", s)
}

func (ex *exporter) convertAll(in []sc.Schema) ([]*Schema, error) {
	out := make([]*Schema, len(in))
	for i, m := range in {
		js, err := ex.convert(m)
		if err != nil {
			return nil, err
		}
		out[i] = js
	}
	return out, nil
}

// ref registers the target of d under a definition name before converting
// it, so a cycle back to d resolves to the same name.
func (ex *exporter) ref(d *sc.DeferredSchema) (*Schema, error) {
	if name, ok := ex.names[d]; ok {
		return refTo(name), nil
	}
	name := d.Name()
	if name != "" {
		if _, taken := ex.defs[name]; taken {
			ex.names[d] = name
			return refTo(name), nil
		}
	} else {
		name = ex.nextName()
	}
	ex.names[d] = name
	ex.defs[name] = &Schema{}
	target, err := ex.convert(d.Resolve())
	if err != nil {
		return nil, fmt.Errorf("$defs/%s: %w", name, err)
	}
	ex.defs[name] = target
	return refTo(name), nil
}

func (ex *exporter) nextName() string {
	for {
		ex.seq++
		name := fmt.Sprintf("deferred%d", ex.seq)
		if _, taken := ex.defs[name]; !taken && !ex.reserved[name] {
			return name
		}
	}
}

func refTo(name string) *Schema { return &Schema{Ref: "#/$defs/" + name} }

func typeOf(name string, optional bool) any {
	if optional {
		return []string{name, "null"}
	}
	return name
}
