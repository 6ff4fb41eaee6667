package schemadef_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/reoring/shapecheck"
	"github.com/reoring/shapecheck/schemadef"
)

const treeDoc = `
root: tree
definitions:
  tree:
    kind: object
    fields:
      label: {kind: string, minLength: 1}
      weight: {kind: number, min: 0, max: 10, optional: true}
      children: {kind: array, item: {ref: tree}, optional: true}
  color:
    kind: enum
    values: [red, green, 3]
`

func TestLoad_RecursiveDefinitions(t *testing.T) {
	doc, err := schemadef.Load([]byte(treeDoc))
	require.NoError(t, err)
	assert.Equal(t, []string{"tree", "color"}, doc.Names())

	root, err := doc.Root()
	require.NoError(t, err)
	assert.Equal(t, sc.KindObject, root.Kind())

	ok := map[string]any{
		"label":    "root",
		"children": []any{map[string]any{"label": "a", "weight": 3}},
	}
	assert.True(t, sc.Is(root, ok))

	res := sc.Validate(map[string]any{
		"label":    "root",
		"children": []any{map[string]any{"label": ""}},
	}, root)
	require.False(t, res.OK())
	iss := res.Failure().Issues()
	require.Len(t, iss, 1)
	assert.Equal(t, "/children/0/label", iss[0].Path)
	assert.Equal(t, sc.CodeLength, iss[0].Code)

	color, ok2 := doc.Lookup("color")
	require.True(t, ok2)
	assert.True(t, sc.Is(color, 3))
	assert.True(t, sc.Is(color, "red"))
	assert.False(t, sc.Is(color, "blue"))
}

func TestLoad_FieldOrderFollowsDocument(t *testing.T) {
	doc, err := schemadef.Load([]byte(`
schema:
  kind: object
  fields:
    zeta: {kind: string}
    alpha: {kind: string}
    mid: {kind: string}
`))
	require.NoError(t, err)
	root, err := doc.Root()
	require.NoError(t, err)

	var names []string
	for _, f := range root.(*sc.ObjectSchema).Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, names)
}

func TestLoad_JSONDocument(t *testing.T) {
	doc, err := schemadef.Load([]byte(`{
		"schema": {
			"kind": "record",
			"item": {"kind": "union", "anyOf": [{"kind": "number"}, {"kind": "boolean"}]},
			"maxEntries": 2
		}
	}`))
	require.NoError(t, err)
	root, err := doc.Root()
	require.NoError(t, err)
	assert.True(t, sc.Is(root, map[string]any{"a": 1, "b": true}))
	assert.False(t, sc.Is(root, map[string]any{"a": "x"}))
	assert.False(t, sc.Is(root, map[string]any{"a": 1, "b": 2, "c": 3}))
}

func TestLoad_AllKinds(t *testing.T) {
	doc, err := schemadef.Load([]byte(`
schema:
  kind: object
  fields:
    code: {kind: string, pattern: '^[A-Z]{2}-\d+$'}
    flag: {kind: boolean}
    meta: {kind: intersection, allOf: [{kind: object, fields: {a: {kind: any}}}, {kind: object, fields: {b: {kind: unknown}}}]}
    payload: {kind: stringified, inner: {kind: array, item: {kind: number}, maxLength: 2}}
    note: {kind: string, optional: true}
`))
	require.NoError(t, err)
	root, err := doc.Root()
	require.NoError(t, err)

	good := map[string]any{
		"code":    "AB-12",
		"flag":    false,
		"meta":    map[string]any{"a": 1, "b": nil},
		"payload": "[1, 2]",
	}
	assert.True(t, sc.Is(root, good))

	bad := map[string]any{
		"code":    "ab-12",
		"flag":    false,
		"meta":    map[string]any{},
		"payload": "[1, 2, 3]",
	}
	res := sc.Validate(bad, root)
	require.False(t, res.OK())
	codes := map[string]sc.ErrorCode{}
	for _, is := range res.Failure().Issues() {
		codes[is.Path] = is.Code
	}
	assert.Equal(t, map[string]sc.ErrorCode{
		"/code":    sc.CodePattern,
		"/payload": sc.CodeLength,
	}, codes)
}

func TestLoad_OptionalRef(t *testing.T) {
	doc, err := schemadef.Load([]byte(`
root: pair
definitions:
  name: {kind: string}
  pair:
    kind: object
    fields:
      first: {ref: name}
      second: {ref: name, optional: true}
`))
	require.NoError(t, err)
	root, err := doc.Root()
	require.NoError(t, err)
	assert.True(t, sc.Is(root, map[string]any{"first": "a"}))
	assert.False(t, sc.Is(root, map[string]any{"second": "a"}))
}

func TestLoad_MetaSchemaViolation(t *testing.T) {
	_, err := schemadef.Load([]byte(`
schema:
  kind: string
  minLength: -1
`))
	require.Error(t, err)
	f, ok := sc.AsFailure(err)
	require.True(t, ok)
	iss := f.Issues()
	require.Len(t, iss, 1)
	assert.Equal(t, "/schema", iss[0].Path, "the optional node union reports at the node")

	_, err = schemadef.Load([]byte(`definitions: {a: {kind: tuple}}`))
	require.Error(t, err)
	iss2, ok := sc.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, "/definitions/0/kind", iss2[0].Path, "record entries report by position")
}

func TestLoad_CompileErrors(t *testing.T) {
	cases := map[string]struct {
		doc  string
		path string
	}{
		"unknown ref":      {`schema: {kind: array, item: {ref: missing}}`, "/schema/item/ref"},
		"missing kind":     {`schema: {optional: true}`, "/schema"},
		"wrong key":        {`schema: {kind: number, minLength: 1}`, "/schema/minLength"},
		"missing item":     {`schema: {kind: array}`, "/schema"},
		"ref with kind":    {`{definitions: {a: {kind: string}}, schema: {ref: a, kind: string}}`, "/schema"},
		"bad pattern":      {`schema: {kind: string, pattern: '('}`, "/schema/pattern"},
		"unexpected key":   {`schema: {kind: string, descripton: x}`, "/schema"},
		"unknown root":     {`{root: nope, definitions: {a: {kind: any}}}`, "/root"},
		"field path":       {`schema: {kind: object, fields: {"a/b": {kind: array}}}`, "/schema/fields/a~1b"},
		"ref extra option": {`{definitions: {a: {kind: string}}, schema: {ref: a, minLength: 1}}`, "/schema"},
		"fractional bound": {`schema: {kind: string, minLength: 1.5}`, "/schema/minLength"},
		"fractional count": {`schema: {kind: record, item: {kind: any}, maxEntries: 0.5}`, "/schema/maxEntries"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := schemadef.Load([]byte(c.doc))
			require.Error(t, err)
			var pe *schemadef.PathError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, c.path, pe.Path)
		})
	}
}

func TestLoad_UnknownRefSentinel(t *testing.T) {
	_, err := schemadef.Load([]byte(`schema: {ref: nowhere}`))
	assert.ErrorIs(t, err, schemadef.ErrUnknownRef)
}

func TestLoad_RefCycle(t *testing.T) {
	cases := map[string]struct {
		doc  string
		path string
	}{
		"alias": {`
definitions:
  a: {ref: b}
  b: {ref: a}
`, "/definitions/a"},
		"union member": {`
root: a
definitions:
  a: {kind: union, anyOf: [{ref: b}]}
  b: {ref: a}
`, "/definitions/a"},
		"intersection member": {`
definitions:
  a: {kind: intersection, allOf: [{kind: object}, {ref: a}]}
`, "/definitions/a"},
		"optional ref": {`
definitions:
  a: {kind: union, anyOf: [{kind: string}, {ref: b, optional: true}]}
  b: {ref: a, optional: true}
`, "/definitions/a"},
		"nested union": {`
definitions:
  a: {kind: union, anyOf: [{kind: union, anyOf: [{kind: number}, {ref: c}]}]}
  b: {kind: string}
  c: {kind: intersection, allOf: [{ref: b}, {ref: a}]}
`, "/definitions/a"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := schemadef.Load([]byte(c.doc))
			require.ErrorIs(t, err, schemadef.ErrRefCycle)
			var pe *schemadef.PathError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, c.path, pe.Path)
		})
	}
}

func TestLoad_RecursionThroughContainers(t *testing.T) {
	doc, err := schemadef.Load([]byte(`
root: json
definitions:
  json:
    kind: union
    anyOf:
      - {kind: string}
      - {kind: number}
      - {kind: array, item: {ref: json}}
      - {kind: record, item: {ref: json}}
      - {kind: stringified, inner: {ref: json}}
`))
	require.NoError(t, err)
	root, err := doc.Root()
	require.NoError(t, err)
	assert.True(t, sc.Is(root, []any{"a", map[string]any{"b": []any{1}}}))
	assert.False(t, sc.Is(root, true))
}

func TestLoad_WithRoot(t *testing.T) {
	doc, err := schemadef.Load([]byte(treeDoc), schemadef.WithRoot("color"))
	require.NoError(t, err)
	root, err := doc.Root()
	require.NoError(t, err)
	assert.Equal(t, sc.KindEnum, root.Kind())
}

func TestLoad_NoRoot(t *testing.T) {
	doc, err := schemadef.Load([]byte(`definitions: {a: {kind: any}}`))
	require.NoError(t, err)
	_, err = doc.Root()
	assert.ErrorIs(t, err, schemadef.ErrNoRoot)
}

func TestLoad_EmptyAndMalformed(t *testing.T) {
	_, err := schemadef.Load(nil)
	assert.Error(t, err)
	_, err = schemadef.Load([]byte("schema: [unclosed"))
	assert.Error(t, err)
	_, err = schemadef.Load([]byte("- a\n- b\n"))
	assert.Error(t, err)
}

func TestLoad_LogsDefinitions(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err := schemadef.Load([]byte(treeDoc), schemadef.WithLogger(log))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"definition":"tree"`)
	assert.Contains(t, buf.String(), `"definition":"color"`)
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "defs.yaml")
	require.NoError(t, os.WriteFile(p, []byte(treeDoc), 0o600))
	doc, err := schemadef.LoadFile(p)
	require.NoError(t, err)
	assert.Len(t, doc.Names(), 2)

	_, err = schemadef.LoadFile(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}
