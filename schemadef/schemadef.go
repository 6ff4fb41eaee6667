// Package schemadef builds shapecheck schemas from YAML or JSON documents.
//
// A document either holds a single top-level schema node:
//
//	schema:
//	  kind: object
//	  fields:
//	    name: {kind: string, minLength: 1}
//
// or named definitions that may refer to each other, and to themselves,
// through ref nodes:
//
//	root: tree
//	definitions:
//	  tree:
//	    kind: object
//	    fields:
//	      label: {kind: string}
//	      children: {kind: array, item: {ref: tree}, optional: true}
//
// Object fields keep the order they have in the document. Patterns use
// ECMAScript syntax.
package schemadef

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	sc "github.com/reoring/shapecheck"
	"github.com/reoring/shapecheck/source"
)

var (
	// ErrUnknownRef is returned when a ref or the selected root names a
	// definition the document does not have.
	ErrUnknownRef = errors.New("unknown definition")
	// ErrRefCycle is returned when a definition reaches itself through refs
	// and union or intersection members only, without an object, array,
	// record or stringified node in between.
	ErrRefCycle = errors.New("reference cycle")
	// ErrNoRoot is returned by Document.Root when no root schema is selected.
	ErrNoRoot = errors.New("schemadef: document has no root schema")
)

// PathError reports a problem at a JSON Pointer into the document.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return "schemadef: " + e.Path + ": " + e.Err.Error() }
func (e *PathError) Unwrap() error { return e.Err }

type config struct {
	log  zerolog.Logger
	root string
}

// Option configures Load.
type Option func(*config)

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l zerolog.Logger) Option { return func(c *config) { c.log = l } }

// WithRoot selects the named definition as the root schema, overriding the
// document's own root.
func WithRoot(name string) Option { return func(c *config) { c.root = name } }

// Document is a compiled definition document.
type Document struct {
	defs  map[string]sc.Schema
	names []string
	root  sc.Schema
}

// Root returns the root schema: the selected definition, or the top-level
// schema node.
func (d *Document) Root() (sc.Schema, error) {
	if d.root == nil {
		return nil, ErrNoRoot
	}
	return d.root, nil
}

// Lookup returns the named definition.
func (d *Document) Lookup(name string) (sc.Schema, bool) {
	s, ok := d.defs[name]
	return s, ok
}

// Names returns the definition names in document order.
func (d *Document) Names() []string { return slices.Clone(d.names) }

// LoadFile reads and compiles the document at path.
func LoadFile(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Load(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Load compiles a YAML or JSON document. The document is first validated
// against the definition meta-schema; a violation is returned wrapping the
// *shapecheck.Failure.
func Load(data []byte, opts ...Option) (*Document, error) {
	cfg := config{log: zerolog.Nop()}
	for _, o := range opts {
		o(&cfg)
	}

	var top yaml.Node
	if err := yaml.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("schemadef: parse document: %w", err)
	}
	root := deref(&top)
	if root == nil || root.Kind == 0 {
		return nil, errors.New("schemadef: empty document")
	}
	var raw any
	if err := root.Decode(&raw); err != nil {
		return nil, fmt.Errorf("schemadef: decode document: %w", err)
	}
	if res := sc.Validate(source.Normalize(raw), metaSchema()); !res.OK() {
		return nil, fmt.Errorf("schemadef: invalid document: %w", res.Failure())
	}

	sections := mapping(root)
	doc := &Document{defs: map[string]sc.Schema{}}
	c := &compiler{doc: doc, defNodes: map[string]*yaml.Node{}}

	if defs := sections["definitions"]; defs != nil {
		for _, kv := range pairs(defs) {
			doc.names = append(doc.names, kv.key)
			c.defNodes[kv.key] = kv.value
		}
	}
	if err := c.checkAliases(); err != nil {
		return nil, err
	}
	for _, name := range doc.names {
		s, err := c.compile(c.defNodes[name], pointer("/definitions", name))
		if err != nil {
			return nil, err
		}
		doc.defs[name] = s
		cfg.log.Debug().Str("definition", name).Str("kind", string(s.Kind())).Msg("compiled definition")
	}

	if n := sections["schema"]; n != nil {
		s, err := c.compile(n, "/schema")
		if err != nil {
			return nil, err
		}
		doc.root = s
	}
	rootName := cfg.root
	if rootName == "" {
		if n := sections["root"]; n != nil {
			rootName = n.Value
		}
	}
	if rootName != "" {
		s, ok := doc.defs[rootName]
		if !ok {
			return nil, &PathError{Path: "/root", Err: fmt.Errorf("%w %q", ErrUnknownRef, rootName)}
		}
		doc.root = s
	}
	cfg.log.Debug().Int("definitions", len(doc.names)).Bool("root", doc.root != nil).Msg("loaded schema document")
	return doc, nil
}
