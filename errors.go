package shapecheck

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// Error is the kind-specific description of a single validation failure.
// Which fields are meaningful depends on Code:
//
//   - CodeType: FoundType, or Members for an exhausted union.
//   - CodeLength: Length plus whichever of MinLength/MaxLength is configured.
//   - CodeRange: whichever of Min/Max is configured.
//   - CodeEntryCount: EntryCount plus whichever of MinEntries/MaxEntries is configured.
//   - CodeMismatch: AllowedValues.
//   - CodeChildren: Fields (object), Items (array, record) or Members (intersection).
//   - CodeParse: ParseError.
//   - CodeValue: ValueError.
type Error struct {
	Code ErrorCode

	FoundType string

	Length    int
	MinLength *int
	MaxLength *int

	Min *float64
	Max *float64

	EntryCount int
	MinEntries *int
	MaxEntries *int

	AllowedValues []any

	Fields  []FieldFailure
	Items   []ItemFailure
	Members []*Failure

	ParseError string
	ValueError *Failure
}

// FieldFailure is the failure of one object field.
type FieldFailure struct {
	Name    string
	Failure *Failure
}

// ItemFailure is the failure of one array element or record entry. For
// records Index is the position of the entry in key order, not the key.
type ItemFailure struct {
	Index   int
	Failure *Failure
}

// Field returns the failure recorded for the named object field, or nil.
func (e *Error) Field(name string) *Failure {
	if e == nil {
		return nil
	}
	for _, f := range e.Fields {
		if f.Name == name {
			return f.Failure
		}
	}
	return nil
}

// Item returns the failure recorded at index, or nil.
func (e *Error) Item(index int) *Failure {
	if e == nil {
		return nil
	}
	for _, it := range e.Items {
		if it.Index == index {
			return it.Failure
		}
	}
	return nil
}

// Failure is the envelope the engine puts around every Error: the kind of the
// schema that rejected the value plus that schema's own error. Child failures
// nested in an Error are envelopes too, so the tree carries both the
// structural path and the kind at every level.
type Failure struct {
	Type Kind
	Err  *Error
}

// Code returns the error code of the envelope.
func (f *Failure) Code() ErrorCode {
	if f == nil || f.Err == nil {
		return ""
	}
	return f.Err.Code
}

// Error summarizes the flattened issues of the failure.
func (f *Failure) Error() string {
	if f == nil {
		return ""
	}
	return f.Issues().Error()
}

// MarshalJSON renders the envelope as
// {"type":...,"validationError":{"ok":false,"error":{...}}}.
func (f *Failure) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Type            Kind `json:"type"`
		ValidationError struct {
			OK    bool   `json:"ok"`
			Error *Error `json:"error"`
		} `json:"validationError"`
	}{
		Type: f.Type,
		ValidationError: struct {
			OK    bool   `json:"ok"`
			Error *Error `json:"error"`
		}{Error: f.Err},
	})
}

type wireError struct {
	ErrorCode     ErrorCode `json:"errorCode"`
	FoundType     string    `json:"foundType,omitempty"`
	Length        *int      `json:"length,omitempty"`
	MinLength     *int      `json:"minLength,omitempty"`
	MaxLength     *int      `json:"maxLength,omitempty"`
	Min           *float64  `json:"min,omitempty"`
	Max           *float64  `json:"max,omitempty"`
	EntryCount    *int      `json:"entryCount,omitempty"`
	MinEntries    *int      `json:"minEntries,omitempty"`
	MaxEntries    *int      `json:"maxEntries,omitempty"`
	AllowedValues []any     `json:"allowedValues,omitempty"`
	ChildErrors   any       `json:"childErrors,omitempty"`
	ParseError    string    `json:"parseError,omitempty"`
	ValueError    *Failure  `json:"valueError,omitempty"`
}

type wireItem struct {
	Index int      `json:"index"`
	Error *Failure `json:"error"`
}

// orderedFields keeps declared field order in the JSON object.
type orderedFields []FieldFailure

func (o orderedFields) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Failure)
		if err != nil {
			return nil, err
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// MarshalJSON renders the error with its code-specific payload. Children are
// emitted under "childErrors" whatever their shape.
func (e *Error) MarshalJSON() ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	w := wireError{
		ErrorCode:     e.Code,
		FoundType:     e.FoundType,
		MinLength:     e.MinLength,
		MaxLength:     e.MaxLength,
		Min:           e.Min,
		Max:           e.Max,
		MinEntries:    e.MinEntries,
		MaxEntries:    e.MaxEntries,
		AllowedValues: e.AllowedValues,
		ParseError:    e.ParseError,
		ValueError:    e.ValueError,
	}
	switch e.Code {
	case CodeLength:
		n := e.Length
		w.Length = &n
	case CodeEntryCount:
		n := e.EntryCount
		w.EntryCount = &n
	}
	switch {
	case e.Fields != nil:
		w.ChildErrors = orderedFields(e.Fields)
	case e.Items != nil:
		items := make([]wireItem, len(e.Items))
		for i, it := range e.Items {
			items[i] = wireItem{Index: it.Index, Error: it.Failure}
		}
		w.ChildErrors = items
	case e.Members != nil:
		w.ChildErrors = e.Members
	}
	return json.Marshal(w)
}

// Issue is a single flattened problem with a JSON Pointer path, ready for
// display or logging.
type Issue struct {
	Path    string    // JSON Pointer (for example: /items/2/price).
	Kind    Kind      // Kind of the schema that rejected the value.
	Code    ErrorCode // Code of the innermost error.
	Message string
	// Params carries the structured payload of the error (bounds, found
	// type, allowed values) for i18n and observability.
	Params map[string]any
}

// Issues is a collection of flattened problems that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. type at /name
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AsIssues extracts Issues from an error using errors.As internally. A
// *Failure is flattened.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	if f, ok := AsFailure(err); ok {
		return f.Issues(), true
	}
	return nil, false
}

// AsFailure extracts the failure envelope from an error.
func AsFailure(err error) (*Failure, bool) {
	if err == nil {
		return nil, false
	}
	var f *Failure
	if errors.As(err, &f) && f != nil {
		return f, true
	}
	return nil, false
}
