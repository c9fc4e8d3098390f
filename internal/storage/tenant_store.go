package storage

import (
	"github.com/getmockd/mockbetter/pkg/jsonvalue"
	"github.com/getmockd/mockbetter/pkg/requestlog"
)

// TenantStore binds a Store to a single tenant.
// All operations act on that tenant only, so state registered through one
// TenantStore is invisible to a TenantStore of another tenant.
type TenantStore struct {
	underlying Store
	tenant     string
}

// NewTenantStore creates a tenant-bound view of store.
func NewTenantStore(store Store, tenant string) *TenantStore {
	return &TenantStore{
		underlying: store,
		tenant:     tenant,
	}
}

// AddRoute registers a route for the tenant.
func (t *TenantStore) AddRoute(route *jsonvalue.Value) ([]byte, error) {
	return t.underlying.AddRoute(t.tenant, route)
}

// DeleteRoutes removes the tenant's routes matching criteria.
func (t *TenantStore) DeleteRoutes(criteria *jsonvalue.Value) []byte {
	return t.underlying.DeleteRoutes(t.tenant, criteria)
}

// History returns the tenant's history kept by f.
func (t *TenantStore) History(f *requestlog.Filter) []byte {
	return t.underlying.History(t.tenant, f)
}

// ClearHistory empties the tenant's history.
func (t *TenantStore) ClearHistory() []byte {
	return t.underlying.ClearHistory(t.tenant)
}

// Record appends entry to the tenant's history and matches the request.
func (t *TenantStore) Record(entry requestlog.Entry, method, path string) (*Resolution, error) {
	return t.underlying.Record(t.tenant, entry, method, path)
}
