package config

import (
	"fmt"

	"github.com/getmockd/mockbetter/pkg/jsonvalue"
)

// ValidationError describes a part of a configuration document the engine
// cannot serve.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Decode validates a configuration document and returns its typed view.
//
// Missing keys decode to zero values: no headers, an empty prefix, a default
// with mode "mock" and no tenants. Keys the engine does not know about are
// ignored.
func Decode(doc *jsonvalue.Value) (*View, error) {
	root := doc.Object()
	if root == nil {
		return nil, invalid("config", "expected an object, got %s", doc.Kind())
	}

	view := &View{Tenants: make(map[string]*Tenant)}

	if v, ok := root.Get(KeyHeaders); ok {
		headers, err := DecodeHeaders(KeyHeaders, v)
		if err != nil {
			return nil, err
		}
		view.Headers = headers
	}

	if v, ok := root.Get(KeyPrefix); ok {
		s, isString := v.AsString()
		if !isString {
			return nil, invalid(KeyPrefix, "expected a string, got %s", v.Kind())
		}
		view.Prefix = s
	}

	def, err := decodeDefault(root)
	if err != nil {
		return nil, err
	}
	view.Default = def

	if v, ok := root.Get(KeyTenants); ok && !v.IsNull() {
		tenants := v.Object()
		if tenants == nil {
			return nil, invalid(KeyTenants, "expected an object, got %s", v.Kind())
		}
		for _, name := range tenants.Keys() {
			tv, _ := tenants.Get(name)
			tenant, err := decodeTenant(name, tv)
			if err != nil {
				return nil, err
			}
			view.Tenants[name] = tenant
		}
	}

	return view, nil
}

func decodeDefault(root *jsonvalue.Object) (Default, error) {
	def := Default{Mode: ModeMock, Body: jsonvalue.Null()}
	v, ok := root.Get(KeyDefault)
	if !ok || v.IsNull() {
		return def, nil
	}
	obj := v.Object()
	if obj == nil {
		return def, invalid(KeyDefault, "expected an object, got %s", v.Kind())
	}

	code, err := decodeCode(KeyDefault+"."+KeyCode, obj)
	if err != nil {
		return def, err
	}
	def.Code = code

	if body, ok := obj.Get(KeyBody); ok {
		def.Body = body
	}

	if mode, ok := obj.Get(KeyMode); ok && !mode.IsNull() {
		s, isString := mode.AsString()
		if !isString {
			return def, invalid(KeyDefault+"."+KeyMode, "expected a string, got %s", mode.Kind())
		}
		def.Mode = s
	}
	return def, nil
}

func decodeTenant(name string, v *jsonvalue.Value) (*Tenant, error) {
	field := KeyTenants + "." + name
	obj := v.Object()
	if obj == nil {
		return nil, invalid(field, "expected an object, got %s", v.Kind())
	}

	tenant := &Tenant{}
	if routes, ok := obj.Get(KeyRoutes); ok && !routes.IsNull() {
		if !routes.IsArray() {
			return nil, invalid(field+"."+KeyRoutes, "expected an array, got %s", routes.Kind())
		}
		for i, rv := range routes.Elems() {
			route, err := DecodeRoute(fmt.Sprintf("%s.%s[%d]", field, KeyRoutes, i), rv)
			if err != nil {
				return nil, err
			}
			tenant.Routes = append(tenant.Routes, route)
		}
	}
	if history, ok := obj.Get(KeyHistory); ok && !history.IsNull() && !history.IsArray() {
		return nil, invalid(field+"."+KeyHistory, "expected an array, got %s", history.Kind())
	}
	return tenant, nil
}

// DecodeRoute validates a route object. field names the route in errors.
func DecodeRoute(field string, v *jsonvalue.Value) (Route, error) {
	var route Route
	obj := v.Object()
	if obj == nil {
		return route, invalid(field, "expected an object, got %s", v.Kind())
	}

	var err error
	if route.Method, err = optionalString(field+"."+KeyMethod, obj, KeyMethod); err != nil {
		return route, err
	}
	if route.Path, err = optionalString(field+"."+KeyPath, obj, KeyPath); err != nil {
		return route, err
	}
	if route.Code, err = decodeCode(field+"."+KeyCode, obj); err != nil {
		return route, err
	}
	if hv, ok := obj.Get(KeyHeaders); ok && !hv.IsNull() {
		if route.Headers, err = DecodeHeaders(field+"."+KeyHeaders, hv); err != nil {
			return route, err
		}
	}
	route.Body = jsonvalue.Null()
	if body, ok := obj.Get(KeyBody); ok {
		route.Body = body
	}
	return route, nil
}

// DecodeHeaders validates an object of header names to string values.
func DecodeHeaders(field string, v *jsonvalue.Value) (Headers, error) {
	obj := v.Object()
	if obj == nil {
		return nil, invalid(field, "expected an object, got %s", v.Kind())
	}
	headers := make(Headers, 0, obj.Len())
	for _, name := range obj.Keys() {
		hv, _ := obj.Get(name)
		s, ok := hv.AsString()
		if !ok {
			return nil, invalid(field+"."+name, "expected a string, got %s", hv.Kind())
		}
		headers = append(headers, Header{Name: name, Value: s})
	}
	return headers, nil
}

func optionalString(field string, obj *jsonvalue.Object, key string) (string, error) {
	v, ok := obj.Get(key)
	if !ok || v.IsNull() {
		return "", nil
	}
	s, isString := v.AsString()
	if !isString {
		return "", invalid(field, "expected a string, got %s", v.Kind())
	}
	return s, nil
}

// decodeCode accepts a status code written either as a string or a number.
func decodeCode(field string, obj *jsonvalue.Object) (string, error) {
	v, ok := obj.Get(KeyCode)
	if !ok || v.IsNull() {
		return "", nil
	}
	if s, isString := v.AsString(); isString {
		return s, nil
	}
	if n, isNumber := v.AsNumber(); isNumber {
		return n.String(), nil
	}
	return "", invalid(field, "expected a string or number, got %s", v.Kind())
}
