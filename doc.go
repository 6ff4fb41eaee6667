// Package shapecheck validates untyped, JSON-like values against composable
// schemas and returns either the parsed value or a structured failure that
// records the kind and path of every problem.
//
// Schemas are immutable. Builder methods return modified copies, so a schema
// can be declared once at program start and shared by any number of
// goroutines.
//
//	user := shapecheck.Shape().
//		Field("name", shapecheck.String().MinLength(1)).
//		Field("age", shapecheck.Number().Min(0).Optional()).
//		Field("tags", shapecheck.Array(shapecheck.String()).MaxLength(10).Optional())
//
//	res := shapecheck.Validate(input, user)
//	if !res.OK() {
//		for _, is := range res.Failure().Issues() {
//			fmt.Println(is.Path, is.Message)
//		}
//	}
//
// Self-referential schemas go through Deferred, which resolves its target on
// every validation:
//
//	var node shapecheck.Schema
//	node = shapecheck.Shape().
//		Field("label", shapecheck.String()).
//		Field("children", shapecheck.Array(shapecheck.Deferred(func() shapecheck.Schema { return node })).Optional())
//
// Parsed values use the usual decoded-JSON representation (map[string]any,
// []any, float64, string, bool, nil). Parse and Of decode them further into a
// Go type with `json` struct tags.
//
// Layout:
//   - source: JSON/YAML document decoding.
//   - schemadef: schemas declared in YAML or JSON.
//   - jsonschema: JSON Schema export.
//   - middleware: net/http validation of path params, query and body.
//   - cmd/shapecheck: the CLI.
package shapecheck
