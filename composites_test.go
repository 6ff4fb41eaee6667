package shapecheck_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sc "github.com/reoring/shapecheck"
)

func person() *sc.ObjectSchema {
	return sc.Shape().
		Field("name", sc.String()).
		Field("age", sc.Number().Optional())
}

func TestObject_OptionalFieldAbsent(t *testing.T) {
	res := sc.Validate(map[string]any{"name": "a"}, person())
	require.True(t, res.OK())
	assert.Equal(t, map[string]any{"name": "a"}, res.Value())
}

func TestObject_PresentNullKept(t *testing.T) {
	res := sc.Validate(map[string]any{"name": "a", "age": nil}, person())
	require.True(t, res.OK())
	assert.Equal(t, map[string]any{"name": "a", "age": nil}, res.Value())
}

func TestObject_UndeclaredKeysDropped(t *testing.T) {
	res := sc.Validate(map[string]any{"name": "a", "extra": 1}, person())
	require.True(t, res.OK())
	assert.Equal(t, map[string]any{"name": "a"}, res.Value())
}

func TestObject_MissingRequiredField(t *testing.T) {
	res := sc.Validate(map[string]any{"age": 5}, person())
	require.False(t, res.OK())
	f := res.Failure()
	assert.Equal(t, sc.KindObject, f.Type)
	assert.Equal(t, sc.CodeChildren, f.Code())
	require.Len(t, f.Err.Fields, 1)
	assert.Equal(t, "name", f.Err.Fields[0].Name)

	name := f.Err.Field("name")
	require.NotNil(t, name)
	assert.Equal(t, sc.KindString, name.Type)
	assert.Equal(t, sc.CodeType, name.Code())
	assert.Equal(t, "null", name.Err.FoundType)
}

func TestObject_FailuresInDeclaredOrder(t *testing.T) {
	s := sc.Shape().Field("z", sc.String()).Field("a", sc.String()).Field("m", sc.String())
	res := sc.Validate(map[string]any{"m": "ok"}, s)
	require.False(t, res.OK())
	fields := res.Failure().Err.Fields
	require.Len(t, fields, 2)
	assert.Equal(t, "z", fields[0].Name)
	assert.Equal(t, "a", fields[1].Name)
}

func TestObject_AcceptsTypedMaps(t *testing.T) {
	s := sc.Shape().Field("a", sc.Number())
	res := sc.Validate(map[string]int{"a": 1}, s)
	require.True(t, res.OK())
	assert.Equal(t, map[string]any{"a": 1.0}, res.Value())
}

func TestObject_RejectsNonObjects(t *testing.T) {
	for want, in := range map[string]any{"array": []any{}, "string": "x", "number": 3.0} {
		res := sc.Validate(in, person())
		require.False(t, res.OK())
		assert.Equal(t, want, res.Failure().Err.FoundType)
	}
}

func TestShapeOf_SortsFields(t *testing.T) {
	s := sc.ShapeOf(map[string]sc.Schema{"b": sc.String(), "a": sc.Number()})
	fields := s.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Name)
	assert.Equal(t, "b", fields[1].Name)
}

func TestComputedShape(t *testing.T) {
	a := sc.Shape().Field("a", sc.String())
	b := sc.Shape().Field("b", sc.Number()).Field("a", sc.Number())

	merged := sc.ComputedShape(a, b)
	fields := merged.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, "a", fields[0].Name)
	assert.Equal(t, sc.KindNumber, fields[0].Schema.Kind())
	assert.Equal(t, "b", fields[1].Name)

	assert.Len(t, a.Fields(), 1, "parts are not modified")
	assert.True(t, sc.Is(merged, map[string]any{"a": 1, "b": 2}))
}

func TestExtend(t *testing.T) {
	base := person()
	ext := base.Extend(sc.Shape().Field("email", sc.String()))
	assert.Len(t, base.Fields(), 2)
	assert.Len(t, ext.Fields(), 3)
	assert.False(t, sc.Is(ext, map[string]any{"name": "a"}))
	assert.True(t, sc.Is(ext, map[string]any{"name": "a", "email": "a@example.com"}))
}

func TestArray_LengthShortCircuits(t *testing.T) {
	res := sc.Validate([]any{"a"}, sc.Array(sc.String()).MinLength(2))
	require.False(t, res.OK())
	e := res.Failure().Err
	assert.Equal(t, sc.CodeLength, e.Code)
	assert.Equal(t, 1, e.Length)
	require.NotNil(t, e.MinLength)
	assert.Equal(t, 2, *e.MinLength)
	assert.Nil(t, e.Items)

	res = sc.Validate([]any{1, 2}, sc.Array(sc.String()).MaxLength(1))
	require.False(t, res.OK())
	assert.Equal(t, sc.CodeLength, res.Failure().Code())
	assert.Nil(t, res.Failure().Err.Items)
}

func TestArray_CollectsEveryFailure(t *testing.T) {
	res := sc.Validate([]any{1, "x", 2, "y"}, sc.Array(sc.Number()))
	require.False(t, res.OK())
	items := res.Failure().Err.Items
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Index)
	assert.Equal(t, 3, items[1].Index)
	assert.Equal(t, sc.KindNumber, items[0].Failure.Type)
	assert.NotNil(t, res.Failure().Err.Item(3))
	assert.Nil(t, res.Failure().Err.Item(0))
}

func TestArray_ParsedValue(t *testing.T) {
	res := sc.Validate([]int{1, 2}, sc.Array(sc.Number()))
	require.True(t, res.OK())
	assert.Equal(t, []any{1.0, 2.0}, res.Value())

	res = sc.Validate([]any{}, sc.Array(sc.Number()))
	require.True(t, res.OK())
	assert.Equal(t, []any{}, res.Value())
}

func TestRecord(t *testing.T) {
	r := sc.Record(sc.Number())

	res := sc.Validate(map[string]any{"x": 1, "y": 2}, r)
	require.True(t, res.OK())
	assert.Equal(t, map[string]any{"x": 1.0, "y": 2.0}, res.Value())

	res = sc.Validate(map[string]any{"b": "x", "a": 1, "c": "y"}, r)
	require.False(t, res.OK())
	items := res.Failure().Err.Items
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Index, "position of key b in sorted order")
	assert.Equal(t, 2, items[1].Index, "position of key c in sorted order")
}

func TestRecord_EntryCount(t *testing.T) {
	r := sc.Record(sc.String()).MinEntries(1).MaxEntries(2)
	assert.True(t, sc.Is(r, map[string]any{"a": "x"}))

	res := sc.Validate(map[string]any{}, r)
	require.False(t, res.OK())
	e := res.Failure().Err
	assert.Equal(t, sc.CodeEntryCount, e.Code)
	assert.Equal(t, 0, e.EntryCount)
	require.NotNil(t, e.MinEntries)
	assert.Equal(t, 1, *e.MinEntries)

	res = sc.Validate(map[string]any{"a": 1, "b": 2, "c": 3}, r)
	require.False(t, res.OK())
	assert.Equal(t, sc.CodeEntryCount, res.Failure().Code())
	assert.Nil(t, res.Failure().Err.Items)
}

func TestUnion_FirstMatchWins(t *testing.T) {
	res := sc.Validate(3, sc.AnyOf(sc.Number(), sc.Any()))
	require.True(t, res.OK())
	assert.Equal(t, 3.0, res.Value(), "number parses ints to float64")

	res = sc.Validate(3, sc.AnyOf(sc.Any(), sc.Number()))
	require.True(t, res.OK())
	assert.Equal(t, 3, res.Value())
}

func TestUnion_ShortCircuits(t *testing.T) {
	var calls atomic.Int32
	counted := sc.Deferred(func() sc.Schema {
		calls.Add(1)
		return sc.String()
	})
	assert.True(t, sc.Is(sc.AnyOf(sc.String(), counted), "x"))
	assert.Equal(t, int32(0), calls.Load())
}

func TestUnion_Exhausted(t *testing.T) {
	res := sc.Validate(true, sc.AnyOf(sc.String(), sc.Number().Min(1)))
	require.False(t, res.OK())
	f := res.Failure()
	assert.Equal(t, sc.KindUnion, f.Type)
	assert.Equal(t, sc.CodeType, f.Code())
	assert.Empty(t, f.Err.FoundType)
	require.Len(t, f.Err.Members, 2)
	assert.Equal(t, sc.KindString, f.Err.Members[0].Type)
	assert.Equal(t, sc.KindNumber, f.Err.Members[1].Type)
}

func TestUnion_OptionalSkipsMembers(t *testing.T) {
	var calls atomic.Int32
	u := sc.AnyOf(sc.Deferred(func() sc.Schema {
		calls.Add(1)
		return sc.Any()
	})).Optional()
	res := sc.Validate(nil, u)
	require.True(t, res.OK())
	assert.Nil(t, res.Value())
	assert.Equal(t, int32(0), calls.Load())
}

func TestIntersection(t *testing.T) {
	named := sc.Shape().Field("name", sc.String())
	aged := sc.Shape().Field("age", sc.Number())
	both := sc.AllOf(named, aged)

	in := map[string]any{"name": "a", "age": 3, "extra": true}
	res := sc.Validate(in, both)
	require.True(t, res.OK())
	assert.Equal(t, in, res.Value(), "the input is returned unmodified")

	res = sc.Validate(map[string]any{"name": "a"}, both)
	require.False(t, res.OK())
	f := res.Failure()
	assert.Equal(t, sc.KindIntersection, f.Type)
	assert.Equal(t, sc.CodeChildren, f.Code())
	require.Len(t, f.Err.Members, 1)
	assert.Equal(t, sc.KindObject, f.Err.Members[0].Type)
	assert.NotNil(t, f.Err.Members[0].Err.Field("age"))

	res = sc.Validate(map[string]any{"age": 1}, both)
	require.False(t, res.OK(), "one member succeeding is not enough")

	res = sc.Validate([]any{}, both)
	require.False(t, res.OK())
	assert.Equal(t, sc.CodeType, res.Failure().Code())
	assert.Equal(t, "array", res.Failure().Err.FoundType)
}

func TestStringified(t *testing.T) {
	s := sc.Stringified(sc.Array(sc.Number()))

	res := sc.Validate("[1,2,3]", s)
	require.True(t, res.OK())
	assert.Equal(t, []any{1.0, 2.0, 3.0}, res.Value())

	res = sc.Validate(`[1,"x"]`, s)
	require.False(t, res.OK())
	f := res.Failure()
	assert.Equal(t, sc.KindStringified, f.Type)
	assert.Equal(t, sc.CodeValue, f.Code())
	inner := f.Err.ValueError
	require.NotNil(t, inner)
	assert.Equal(t, sc.KindArray, inner.Type)
	assert.Equal(t, sc.CodeChildren, inner.Code())
	require.Len(t, inner.Err.Items, 1)
	assert.Equal(t, 1, inner.Err.Items[0].Index)

	res = sc.Validate("[1,", s)
	require.False(t, res.OK())
	assert.Equal(t, sc.CodeParse, res.Failure().Code())
	assert.NotEmpty(t, res.Failure().Err.ParseError)

	res = sc.Validate([]any{1}, s)
	require.False(t, res.OK())
	assert.Equal(t, sc.CodeType, res.Failure().Code())
}

func tree() sc.Schema {
	var node sc.Schema
	node = sc.Shape().
		Field("label", sc.String().MinLength(1)).
		Field("children", sc.Array(sc.Deferred(func() sc.Schema { return node }).Named("node")).Optional())
	return node
}

func TestDeferred_Recursive(t *testing.T) {
	node := tree()
	in := map[string]any{
		"label": "root",
		"children": []any{
			map[string]any{"label": "a"},
			map[string]any{"label": "b", "children": []any{map[string]any{"label": "c"}}},
		},
	}
	res := sc.Validate(in, node)
	require.True(t, res.OK())
	assert.Equal(t, in, res.Value())

	bad := map[string]any{
		"label":    "root",
		"children": []any{map[string]any{"label": 5}},
	}
	res = sc.Validate(bad, node)
	require.False(t, res.OK())
	children := res.Failure().Err.Field("children")
	require.NotNil(t, children)
	assert.Equal(t, sc.KindArray, children.Type)
	child := children.Err.Item(0)
	require.NotNil(t, child)
	assert.Equal(t, sc.KindObject, child.Type, "deferred adds no envelope of its own")
	assert.Equal(t, sc.KindString, child.Err.Field("label").Type)
}

func TestDeferred_ResolvesOnEveryValidation(t *testing.T) {
	var calls atomic.Int32
	d := sc.Deferred(func() sc.Schema {
		calls.Add(1)
		return sc.String()
	})
	assert.Equal(t, int32(0), calls.Load())
	sc.Validate("a", d)
	sc.Validate("b", d)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, sc.KindDeferred, d.Kind())
}

func TestDeferred_Panics(t *testing.T) {
	assert.Panics(t, func() { sc.Deferred(nil) })
	d := sc.Deferred(func() sc.Schema { return nil }).Named("broken")
	assert.PanicsWithValue(t, "shapecheck: deferred schema broken resolved to nil", func() {
		sc.Validate("x", d)
	})
}

func TestConstructorsPanicOnNilChildren(t *testing.T) {
	assert.Panics(t, func() { sc.Array(nil) })
	assert.Panics(t, func() { sc.Record(nil) })
	assert.Panics(t, func() { sc.Stringified(nil) })
	assert.Panics(t, func() { sc.AnyOf() })
	assert.Panics(t, func() { sc.AllOf(sc.Shape(), nil) })
	assert.Panics(t, func() { sc.Shape().Field("x", nil) })
}

func TestIdempotence(t *testing.T) {
	s := sc.Shape().
		Field("id", sc.Number()).
		Field("tags", sc.Array(sc.String())).
		Field("meta", sc.Record(sc.AnyOf(sc.Number(), sc.String()))).
		Field("kind", sc.ChoiceOf("a", "b")).
		Field("payload", sc.Stringified(sc.Shape().Field("x", sc.Number())))

	in := map[string]any{
		"id":      int64(7),
		"tags":    []string{"x", "y"},
		"meta":    map[string]any{"n": 1, "s": "v"},
		"kind":    "b",
		"payload": `{"x": 2, "ignored": true}`,
	}
	first := sc.Validate(in, s)
	require.True(t, first.OK())

	parsed := first.Value().(map[string]any)
	assert.Equal(t, map[string]any{"x": 2.0}, parsed["payload"])

	// The stringified field parses to a map, so it is re-encoded before the
	// second pass.
	again := map[string]any{}
	for k, v := range parsed {
		again[k] = v
	}
	again["payload"] = `{"x": 2}`
	second := sc.Validate(again, s)
	require.True(t, second.OK())
	assert.Equal(t, first.Value(), second.Value())
}

func TestIdempotence_PlainTree(t *testing.T) {
	s := sc.Record(sc.Array(sc.Shape().Field("n", sc.Number()).Field("o", sc.String().Optional())))
	first := sc.Validate(map[string]any{"k": []any{map[string]any{"n": 1}}}, s)
	require.True(t, first.OK())
	second := sc.Validate(first.Value(), s)
	require.True(t, second.OK())
	assert.Equal(t, first.Value(), second.Value())
}

func TestConcurrentValidation(t *testing.T) {
	s := tree()
	in := map[string]any{"label": "r", "children": []any{map[string]any{"label": "a"}}}
	var wg sync.WaitGroup
	var failures atomic.Int32
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if !sc.Is(s, in) {
					failures.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(0), failures.Load())
}
