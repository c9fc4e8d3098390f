package storage

import (
	"github.com/getmockd/mockbetter/internal/matching"
	"github.com/getmockd/mockbetter/pkg/config"
	"github.com/getmockd/mockbetter/pkg/jsonvalue"
	"github.com/getmockd/mockbetter/pkg/requestlog"
)

// Store defines the operations on the mock server state. Every method is
// atomic with respect to every other.
//
// Methods returning []byte return the JSON encoding of the full configuration
// document after the operation.
type Store interface {
	// Config returns the current configuration document.
	Config() []byte

	// Prefix returns the administrative path segment.
	Prefix() string

	// Headers returns the global response headers.
	Headers() config.Headers

	// Merge deep-merges update into the configuration. update must be an
	// object. The configuration is unchanged if the result is not valid.
	Merge(update *jsonvalue.Value) ([]byte, error)

	// Reset replaces the configuration with the factory document.
	Reset() []byte

	// AddRoute appends route to the tenant unless a route with the same
	// method and path is already registered.
	AddRoute(tenant string, route *jsonvalue.Value) ([]byte, error)

	// DeleteRoutes removes the tenant's routes matching every method and
	// path field present in criteria.
	DeleteRoutes(tenant string, criteria *jsonvalue.Value) []byte

	// History returns the tenant's history entries kept by f, as a JSON array.
	// A nil filter keeps every entry.
	History(tenant string, f *requestlog.Filter) []byte

	// ClearHistory empties the tenant's history.
	ClearHistory(tenant string) []byte

	// Record appends entry to the tenant's history and matches the request
	// against the tenant's routes.
	Record(tenant string, entry requestlog.Entry, method, path string) (*Resolution, error)

	// TenantCount returns the number of known tenants.
	TenantCount() int
}

// Resolution is the outcome of Record.
type Resolution struct {
	// Match is the matched route, or nil if no route matched.
	Match *matching.MatchResult
	// Default is the default policy in effect when the request was recorded.
	Default config.Default
	// Headers are the global response headers.
	Headers config.Headers
	// HistoryLen is the length of the tenant's history after the append.
	HistoryLen int
}

// Matched reports whether a route matched the request.
func (r *Resolution) Matched() bool {
	return r != nil && r.Match != nil
}
