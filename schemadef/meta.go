package schemadef

import (
	"sync"

	sc "github.com/reoring/shapecheck"
)

// nodeKinds are the kinds a node may declare. Deferred schemas are written as
// ref nodes instead.
var nodeKinds = []any{
	string(sc.KindString), string(sc.KindNumber), string(sc.KindBoolean), string(sc.KindEnum),
	string(sc.KindObject), string(sc.KindArray), string(sc.KindRecord), string(sc.KindUnion),
	string(sc.KindIntersection), string(sc.KindStringified), string(sc.KindAny), string(sc.KindUnknown),
}

// metaSchema describes a definition document. It only checks the shape of
// each key; which keys a kind accepts is checked while compiling.
var metaSchema = sync.OnceValue(func() sc.Schema {
	var node sc.Schema
	ref := sc.Deferred(func() sc.Schema { return node }).Named("node")
	maybeNode := sc.AnyOf(ref).Optional()
	count := sc.Number().Min(0).Optional()
	nodes := sc.Array(ref).MinLength(1).Optional()

	node = sc.Shape().
		Field("kind", sc.ChoiceOf(nodeKinds...).Optional()).
		Field("ref", sc.String().MinLength(1).Optional()).
		Field("optional", sc.Boolean().Optional()).
		Field("minLength", count).
		Field("maxLength", count).
		Field("pattern", sc.String().Optional()).
		Field("min", sc.Number().Optional()).
		Field("max", sc.Number().Optional()).
		Field("values", sc.Array(sc.AnyOf(sc.String(), sc.Number(), sc.Boolean())).MinLength(1).Optional()).
		Field("fields", sc.Record(ref).Optional()).
		Field("item", maybeNode).
		Field("minEntries", count).
		Field("maxEntries", count).
		Field("anyOf", nodes).
		Field("allOf", nodes).
		Field("inner", maybeNode)

	return sc.Shape().
		Field("root", sc.String().MinLength(1).Optional()).
		Field("schema", maybeNode).
		Field("definitions", sc.Record(ref).Optional())
})

// kindKeys lists the keys each kind accepts besides kind and optional.
var kindKeys = map[sc.Kind][]string{
	sc.KindString:       {"minLength", "maxLength", "pattern"},
	sc.KindNumber:       {"min", "max"},
	sc.KindBoolean:      nil,
	sc.KindEnum:         {"values"},
	sc.KindObject:       {"fields"},
	sc.KindArray:        {"item", "minLength", "maxLength"},
	sc.KindRecord:       {"item", "minEntries", "maxEntries"},
	sc.KindUnion:        {"anyOf"},
	sc.KindIntersection: {"allOf"},
	sc.KindStringified:  {"inner"},
	sc.KindAny:          nil,
	sc.KindUnknown:      nil,
}
