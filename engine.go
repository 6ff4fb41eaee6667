package shapecheck

import "fmt"

// validate is the recursion driver. It runs the kind-specific check of s and
// wraps a failure with the kind of s. Composite checks receive validate as
// their Recurse, so nested failures are wrapped the same way at every level.
// Deferred schemas have no error shape of their own: the failure of the
// resolved schema passes through unchanged.
func validate(v any, s Schema) Result[any] {
	var (
		out any
		err *Error
	)
	switch sc := s.(type) {
	case *StringSchema:
		out, err = sc.check(v)
	case *NumberSchema:
		out, err = sc.check(v)
	case *BooleanSchema:
		out, err = sc.check(v)
	case *EnumSchema:
		out, err = sc.check(v)
	case *AnySchema, *UnknownSchema:
		return Ok(v)
	case *ObjectSchema:
		out, err = sc.check(v, validate)
	case *ArraySchema:
		out, err = sc.check(v, validate)
	case *RecordSchema:
		out, err = sc.check(v, validate)
	case *UnionSchema:
		out, err = sc.check(v, validate)
	case *IntersectionSchema:
		out, err = sc.check(v, validate)
	case *StringifiedSchema:
		out, err = sc.check(v, validate)
	case *DeferredSchema:
		return sc.check(v, validate)
	case nil:
		panic("shapecheck: validate called with a nil schema")
	default:
		panic(fmt.Sprintf("shapecheck: unsupported schema %T", s))
	}
	if err != nil {
		return Fail[any](&Failure{Type: s.Kind(), Err: err})
	}
	return Ok(out)
}

// typeError reports a runtime type mismatch.
func typeError(found string) *Error {
	return &Error{Code: CodeType, FoundType: found}
}
