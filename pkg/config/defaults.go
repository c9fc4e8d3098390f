package config

import (
	"github.com/getmockd/mockbetter/pkg/jsonvalue"
)

// DefaultMessage is the body of the factory default response.
const DefaultMessage = "mock better"

// Defaults returns the factory configuration document for the given
// administrative prefix. An empty prefix is kept as is.
func Defaults(prefix string) *jsonvalue.Value {
	headers := jsonvalue.NewObject()
	headers.Set("Content-Type", jsonvalue.String(ContentTypeJSON))

	body := jsonvalue.NewObject()
	body.Set("message", jsonvalue.String(DefaultMessage))

	def := jsonvalue.NewObject()
	def.Set(KeyCode, jsonvalue.String("200"))
	def.Set(KeyBody, jsonvalue.FromObject(body))
	def.Set(KeyMode, jsonvalue.String(ModeMock))

	doc := jsonvalue.NewObject()
	doc.Set(KeyHeaders, jsonvalue.FromObject(headers))
	doc.Set(KeyPrefix, jsonvalue.String(prefix))
	doc.Set(KeyDefault, jsonvalue.FromObject(def))
	doc.Set(KeyTenants, jsonvalue.FromObject(nil))
	return jsonvalue.FromObject(doc)
}

// TenantState returns the state object of the named tenant inside doc,
// creating the tenant and its routes and history arrays if they are missing.
// doc must be an object whose tenants key, if present, holds an object.
func TenantState(doc *jsonvalue.Value, name string) *jsonvalue.Object {
	root := doc.Object()
	tenantsVal, ok := root.Get(KeyTenants)
	if !ok || !tenantsVal.IsObject() {
		tenantsVal = jsonvalue.FromObject(nil)
		root.Set(KeyTenants, tenantsVal)
	}
	tenants := tenantsVal.Object()

	stateVal, ok := tenants.Get(name)
	if !ok || !stateVal.IsObject() {
		stateVal = jsonvalue.FromObject(nil)
		tenants.Set(name, stateVal)
	}
	state := stateVal.Object()

	for _, key := range []string{KeyRoutes, KeyHistory} {
		if v, ok := state.Get(key); !ok || !v.IsArray() {
			state.Set(key, jsonvalue.Array())
		}
	}
	return state
}
