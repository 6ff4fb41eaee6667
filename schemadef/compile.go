package schemadef

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	sc "github.com/reoring/shapecheck"
	"github.com/reoring/shapecheck/source"
)

// patternTimeout bounds a single pattern match; ECMAScript patterns may
// backtrack.
const patternTimeout = 100 * time.Millisecond

// nodeOptions holds the scalar options of a schema node. Child nodes are read
// from the yaml.Node so field order survives; they are listed here only so
// that any other key is rejected.
type nodeOptions struct {
	Kind       string   `mapstructure:"kind"`
	Ref        string   `mapstructure:"ref"`
	Optional   bool     `mapstructure:"optional"`
	MinLength  *int     `mapstructure:"minLength"`
	MaxLength  *int     `mapstructure:"maxLength"`
	Pattern    string   `mapstructure:"pattern"`
	Min        *float64 `mapstructure:"min"`
	Max        *float64 `mapstructure:"max"`
	Values     []any    `mapstructure:"values"`
	MinEntries *int     `mapstructure:"minEntries"`
	MaxEntries *int     `mapstructure:"maxEntries"`

	Fields any `mapstructure:"fields"`
	Item   any `mapstructure:"item"`
	AnyOf  any `mapstructure:"anyOf"`
	AllOf  any `mapstructure:"allOf"`
	Inner  any `mapstructure:"inner"`
}

type compiler struct {
	doc      *Document
	defNodes map[string]*yaml.Node
}

func (c *compiler) compile(n *yaml.Node, at string) (sc.Schema, error) {
	n = deref(n)
	opt, keys, err := decodeOptions(n, at)
	if err != nil {
		return nil, err
	}
	children := mapping(n)

	if opt.Ref != "" {
		if opt.Kind != "" {
			return nil, &PathError{Path: at, Err: errors.New("ref and kind are mutually exclusive")}
		}
		if extra := slices.DeleteFunc(keys, func(k string) bool { return k == "ref" || k == "optional" }); len(extra) > 0 {
			return nil, &PathError{Path: at, Err: fmt.Errorf("ref nodes accept only optional, got %s", strings.Join(extra, ", "))}
		}
		if _, ok := c.defNodes[opt.Ref]; !ok {
			return nil, &PathError{Path: at + "/ref", Err: fmt.Errorf("%w %q", ErrUnknownRef, opt.Ref)}
		}
		defs, name := c.doc.defs, opt.Ref
		var s sc.Schema = sc.Deferred(func() sc.Schema { return defs[name] }).Named(name)
		if opt.Optional {
			s = sc.AnyOf(s).Optional()
		}
		return s, nil
	}

	kind := sc.Kind(opt.Kind)
	allowed, ok := kindKeys[kind]
	if !ok {
		return nil, &PathError{Path: at, Err: errors.New("kind or ref is required")}
	}
	for _, k := range keys {
		if k != "kind" && k != "optional" && !slices.Contains(allowed, k) {
			return nil, &PathError{Path: at + "/" + k, Err: fmt.Errorf("not applicable to kind %s", kind)}
		}
	}

	switch kind {
	case sc.KindString:
		s := sc.String()
		if opt.MinLength != nil {
			s = s.MinLength(*opt.MinLength)
		}
		if opt.MaxLength != nil {
			s = s.MaxLength(*opt.MaxLength)
		}
		if opt.Pattern != "" {
			re, err := regexp2.Compile(opt.Pattern, regexp2.ECMAScript)
			if err != nil {
				return nil, &PathError{Path: at + "/pattern", Err: err}
			}
			re.MatchTimeout = patternTimeout
			s = s.Pattern(ecmaPattern{re: re})
		}
		if opt.Optional {
			s = s.Optional()
		}
		return s, nil
	case sc.KindNumber:
		s := sc.Number()
		if opt.Min != nil {
			s = s.Min(*opt.Min)
		}
		if opt.Max != nil {
			s = s.Max(*opt.Max)
		}
		if opt.Optional {
			s = s.Optional()
		}
		return s, nil
	case sc.KindBoolean:
		s := sc.Boolean()
		if opt.Optional {
			s = s.Optional()
		}
		return s, nil
	case sc.KindEnum:
		if len(opt.Values) == 0 {
			return nil, &PathError{Path: at, Err: errors.New("enum requires values")}
		}
		s := sc.ChoiceOf(opt.Values...)
		if opt.Optional {
			s = s.Optional()
		}
		return s, nil
	case sc.KindObject:
		s := sc.Shape()
		if f := children["fields"]; f != nil {
			for _, kv := range pairs(f) {
				child, err := c.compile(kv.value, pointer(at+"/fields", kv.key))
				if err != nil {
					return nil, err
				}
				s = s.Field(kv.key, child)
			}
		}
		if opt.Optional {
			s = s.Optional()
		}
		return s, nil
	case sc.KindArray:
		item, err := c.required(children, "item", at)
		if err != nil {
			return nil, err
		}
		s := sc.Array(item)
		if opt.MinLength != nil {
			s = s.MinLength(*opt.MinLength)
		}
		if opt.MaxLength != nil {
			s = s.MaxLength(*opt.MaxLength)
		}
		if opt.Optional {
			s = s.Optional()
		}
		return s, nil
	case sc.KindRecord:
		item, err := c.required(children, "item", at)
		if err != nil {
			return nil, err
		}
		s := sc.Record(item)
		if opt.MinEntries != nil {
			s = s.MinEntries(*opt.MinEntries)
		}
		if opt.MaxEntries != nil {
			s = s.MaxEntries(*opt.MaxEntries)
		}
		if opt.Optional {
			s = s.Optional()
		}
		return s, nil
	case sc.KindUnion:
		members, err := c.list(children, "anyOf", at)
		if err != nil {
			return nil, err
		}
		s := sc.AnyOf(members...)
		if opt.Optional {
			s = s.Optional()
		}
		return s, nil
	case sc.KindIntersection:
		members, err := c.list(children, "allOf", at)
		if err != nil {
			return nil, err
		}
		s := sc.AllOf(members...)
		if opt.Optional {
			s = s.Optional()
		}
		return s, nil
	case sc.KindStringified:
		inner, err := c.required(children, "inner", at)
		if err != nil {
			return nil, err
		}
		s := sc.Stringified(inner)
		if opt.Optional {
			s = s.Optional()
		}
		return s, nil
	case sc.KindAny:
		return sc.Any(), nil
	case sc.KindUnknown:
		return sc.Unknown(), nil
	}
	return nil, &PathError{Path: at + "/kind", Err: fmt.Errorf("unsupported kind %q", kind)}
}

func (c *compiler) required(children map[string]*yaml.Node, key, at string) (sc.Schema, error) {
	n := children[key]
	if n == nil {
		return nil, &PathError{Path: at, Err: fmt.Errorf("%s is required", key)}
	}
	return c.compile(n, at+"/"+key)
}

func (c *compiler) list(children map[string]*yaml.Node, key, at string) ([]sc.Schema, error) {
	n := children[key]
	if n == nil || len(n.Content) == 0 {
		return nil, &PathError{Path: at, Err: fmt.Errorf("%s requires at least one member", key)}
	}
	out := make([]sc.Schema, 0, len(n.Content))
	for i, m := range n.Content {
		s, err := c.compile(m, fmt.Sprintf("%s/%s/%d", at, key, i))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// checkAliases rejects definitions that reach themselves through refs and
// union or intersection members alone. Such a loop hands the same value
// around without ever reaching a schema that inspects it.
func (c *compiler) checkAliases() error {
	const (
		visiting = iota + 1
		done
	)
	state := map[string]int{}
	var chain []string
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			loop := append(slices.Clone(chain[slices.Index(chain, name):]), name)
			return &PathError{
				Path: pointer("/definitions", name),
				Err:  fmt.Errorf("%w: %s", ErrRefCycle, strings.Join(loop, " -> ")),
			}
		case done:
			return nil
		}
		state[name] = visiting
		chain = append(chain, name)
		for _, next := range passThroughRefs(c.defNodes[name]) {
			if _, ok := c.defNodes[next]; !ok {
				continue
			}
			if err := visit(next); err != nil {
				return err
			}
		}
		chain = chain[:len(chain)-1]
		state[name] = done
		return nil
	}
	for _, name := range c.doc.names {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// passThroughRefs lists the definitions n validates its own input against:
// its ref, or the refs reachable through union and intersection members.
// Optional refs count too; they only short-circuit on null.
func passThroughRefs(n *yaml.Node) []string {
	m := mapping(n)
	if ref := m["ref"]; ref != nil {
		return []string{ref.Value}
	}
	var key string
	switch kind := m["kind"]; {
	case kind == nil:
		return nil
	case kind.Value == string(sc.KindUnion):
		key = "anyOf"
	case kind.Value == string(sc.KindIntersection):
		key = "allOf"
	default:
		return nil
	}
	members := deref(m[key])
	if members == nil {
		return nil
	}
	var out []string
	for _, member := range members.Content {
		out = append(out, passThroughRefs(member)...)
	}
	return out
}

// countKeys must hold whole numbers; mapstructure would truncate fractions.
var countKeys = []string{"minLength", "maxLength", "minEntries", "maxEntries"}

func decodeOptions(n *yaml.Node, at string) (nodeOptions, []string, error) {
	var opt nodeOptions
	var raw map[string]any
	if err := n.Decode(&raw); err != nil {
		return opt, nil, &PathError{Path: at, Err: err}
	}
	for _, k := range countKeys {
		if f, ok := raw[k].(float64); ok && f != math.Trunc(f) {
			return opt, nil, &PathError{Path: at + "/" + k, Err: fmt.Errorf("must be a whole number, got %v", f)}
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &opt,
		ErrorUnused: true,
	})
	if err != nil {
		return opt, nil, &PathError{Path: at, Err: err}
	}
	if err := dec.Decode(source.Normalize(raw)); err != nil {
		return opt, nil, &PathError{Path: at, Err: err}
	}
	keys := make([]string, 0, len(raw))
	for _, kv := range pairs(n) {
		keys = append(keys, kv.key)
	}
	return opt, keys, nil
}

// ecmaPattern adapts a regexp2 expression to shapecheck.Matcher. A match
// that times out counts as a mismatch.
type ecmaPattern struct{ re *regexp2.Regexp }

func (p ecmaPattern) MatchString(s string) bool {
	ok, err := p.re.MatchString(s)
	return err == nil && ok
}

func (p ecmaPattern) String() string { return p.re.String() }

type keyValue struct {
	key   string
	value *yaml.Node
}

// pairs lists the entries of a mapping node in document order. Null values
// are skipped.
func pairs(n *yaml.Node) []keyValue {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]keyValue, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		v := deref(n.Content[i+1])
		if v == nil || v.Tag == "!!null" {
			continue
		}
		out = append(out, keyValue{key: n.Content[i].Value, value: v})
	}
	return out
}

func mapping(n *yaml.Node) map[string]*yaml.Node {
	out := map[string]*yaml.Node{}
	for _, kv := range pairs(n) {
		out[kv.key] = kv.value
	}
	return out
}

// deref unwraps document and alias nodes.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

// pointer appends an escaped JSON Pointer token.
func pointer(base, token string) string {
	return base + "/" + strings.ReplaceAll(strings.ReplaceAll(token, "~", "~0"), "/", "~1")
}
