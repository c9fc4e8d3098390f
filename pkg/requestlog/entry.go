package requestlog

import (
	"github.com/getmockd/mockbetter/pkg/jsonvalue"
)

// Entry is a single observed mock request.
type Entry struct {
	// Method is the HTTP method.
	Method string
	// Body is the parsed JSON request body, or nil if it was absent or not JSON.
	Body *jsonvalue.Value
	// Path is the request path without the tenant segment.
	Path string
}

// Value returns the entry as a history document: {"method", "body", "path"}.
func (e Entry) Value() *jsonvalue.Value {
	body := jsonvalue.Null()
	if e.Body != nil {
		body = e.Body.Clone()
	}
	obj := jsonvalue.NewObject()
	obj.Set("method", jsonvalue.String(e.Method))
	obj.Set("body", body)
	obj.Set("path", jsonvalue.String(e.Path))
	return jsonvalue.FromObject(obj)
}

// EntryFromValue reads an entry back from a history document. Fields of the
// wrong type are left empty.
func EntryFromValue(v *jsonvalue.Value) Entry {
	var e Entry
	obj := v.Object()
	if obj == nil {
		return e
	}
	if m, ok := obj.Get("method"); ok {
		e.Method, _ = m.AsString()
	}
	if p, ok := obj.Get("path"); ok {
		e.Path, _ = p.AsString()
	}
	if b, ok := obj.Get("body"); ok && !b.IsNull() {
		e.Body = b
	}
	return e
}
