package shapecheck

// Kind tags the category of a schema. The engine reports it on every failure
// envelope so renderers know which schema produced a problem.
type Kind string

const (
	KindString       Kind = "string"
	KindNumber       Kind = "number"
	KindBoolean      Kind = "boolean"
	KindEnum         Kind = "enum"
	KindObject       Kind = "object"
	KindArray        Kind = "array"
	KindRecord       Kind = "record"
	KindUnion        Kind = "union"
	KindIntersection Kind = "intersection"
	KindStringified  Kind = "stringified"
	KindDeferred     Kind = "deferred"
	KindAny          Kind = "any"
	KindUnknown      Kind = "unknown"
)

// Kinds lists every schema kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindString, KindNumber, KindBoolean, KindEnum, KindObject, KindArray, KindRecord,
		KindUnion, KindIntersection, KindStringified, KindDeferred, KindAny, KindUnknown,
	}
}

// ErrorCode identifies the shape of an Error. Consumers switch on it, so the
// values are part of the wire contract.
type ErrorCode string

const (
	CodeType       ErrorCode = "type"       // Runtime type mismatch, or union exhaustion.
	CodeLength     ErrorCode = "length"     // String/array length outside bounds.
	CodeRange      ErrorCode = "range"      // Number outside bounds.
	CodeEntryCount ErrorCode = "entryCount" // Record entry count outside bounds.
	CodePattern    ErrorCode = "pattern"    // String does not match the pattern.
	CodeMismatch   ErrorCode = "mismatch"   // Value is not one of the enum literals.
	CodeChildren   ErrorCode = "children"   // One or more children failed.
	CodeParse      ErrorCode = "parse"      // Stringified input is not valid JSON.
	CodeValue      ErrorCode = "value"      // Stringified JSON does not match the inner schema.
)
