// Package storage owns the mutable state of the mock server.
//
// The state is a single configuration document (see package config): global
// response headers, the administrative prefix, the default policy and the
// tenants with their routes and history. It is held by a Store and only ever
// changed through the Store's operations, each of which runs under one
// process-wide lock.
//
// Key types:
//
//   - Store: interface describing the state operations
//   - MemoryStore: the in-memory implementation used by the server
//   - TenantStore: a Store bound to one tenant
//   - Resolution: outcome of recording and matching one mock request
//
// Mutations are staged on a copy of the document, validated by decoding the
// copy and only then swapped in. A failed or interrupted operation leaves the
// previous state in place.
//
// Tenants are created lazily: any operation that names a tenant creates it
// with empty routes and history if it does not exist yet.
package storage
