// Package jsonvalue provides the dynamic JSON document model used for the
// mock server configuration.
//
// A Value is a tagged union over the six JSON kinds. Objects keep their keys
// in insertion order so that documents round-trip through the admin API in
// the order clients wrote them.
//
// # Parsing
//
// Parse is strict and returns an error for malformed input. ParseLenient
// returns nil instead, which is how request bodies are treated: a body that
// is not valid JSON is simply absent.
//
//	v := jsonvalue.ParseLenient(body)
//	if v.IsObject() {
//	    ...
//	}
//
// # Merging
//
// Merge combines an update document into an existing one:
//   - object into object: recurse key by key
//   - array into array: order-preserving union
//   - anything else: replace
//
// Equal defines the equality used by the array union.
package jsonvalue
