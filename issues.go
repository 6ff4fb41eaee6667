package shapecheck

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/shapecheck/i18n"
)

// Issues flattens the failure tree into one Issue per leaf problem. Object
// fields and array/record positions extend the path; intersection members
// and stringified values report at the path of the value they describe. An
// exhausted union is a single issue carrying the number of alternatives.
func (f *Failure) Issues() Issues {
	var out Issues
	collectIssues(f, pointer{}, &out)
	return out
}

func collectIssues(f *Failure, at pointer, out *Issues) {
	if f == nil || f.Err == nil {
		return
	}
	e := f.Err
	switch {
	case e.Code == CodeChildren && e.Fields != nil:
		for _, ff := range e.Fields {
			collectIssues(ff.Failure, at.Field(ff.Name), out)
		}
		return
	case e.Code == CodeChildren && e.Items != nil:
		for _, it := range e.Items {
			collectIssues(it.Failure, at.Index(it.Index), out)
		}
		return
	case e.Code == CodeChildren:
		for _, m := range e.Members {
			collectIssues(m, at, out)
		}
		return
	case e.Code == CodeValue:
		collectIssues(e.ValueError, at, out)
		return
	}
	params := issueParams(e)
	key := string(e.Code)
	if e.Code == CodeType && e.Members != nil {
		key = "union"
	}
	*out = append(*out, Issue{
		Path:    at.String(),
		Kind:    f.Type,
		Code:    e.Code,
		Message: i18n.T(key, messageData(params)),
		Params:  params,
	})
}

func issueParams(e *Error) map[string]any {
	p := map[string]any{}
	switch e.Code {
	case CodeType:
		if e.Members != nil {
			p["alternatives"] = len(e.Members)
		} else {
			p["found"] = e.FoundType
		}
	case CodeLength:
		p["length"] = e.Length
		if e.MinLength != nil {
			p["min"] = *e.MinLength
		}
		if e.MaxLength != nil {
			p["max"] = *e.MaxLength
		}
	case CodeRange:
		if e.Min != nil {
			p["min"] = *e.Min
		}
		if e.Max != nil {
			p["max"] = *e.Max
		}
	case CodeEntryCount:
		p["entryCount"] = e.EntryCount
		if e.MinEntries != nil {
			p["min"] = *e.MinEntries
		}
		if e.MaxEntries != nil {
			p["max"] = *e.MaxEntries
		}
	case CodeMismatch:
		p["allowed"] = e.AllowedValues
	case CodeParse:
		p["error"] = e.ParseError
	}
	return p
}

func messageData(params map[string]any) map[string]string {
	if len(params) == 0 {
		return nil
	}
	data := make(map[string]string, len(params))
	for k, v := range params {
		if vs, ok := v.([]any); ok {
			parts := make([]string, len(vs))
			for i, x := range vs {
				parts[i] = fmt.Sprint(x)
			}
			data[k] = strings.Join(parts, ", ")
			continue
		}
		data[k] = fmt.Sprint(v)
	}
	return data
}

// pointer builds RFC 6901 JSON Pointers without sharing backing arrays.
type pointer []string

func (p pointer) Field(name string) pointer {
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return append(append(pointer{}, p...), esc)
}

func (p pointer) Index(i int) pointer {
	return append(append(pointer{}, p...), strconv.Itoa(i))
}

func (p pointer) String() string {
	if len(p) == 0 {
		return "/"
	}
	return "/" + strings.Join(p, "/")
}
