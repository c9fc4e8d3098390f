package storage

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getmockd/mockbetter/internal/matching"
	"github.com/getmockd/mockbetter/pkg/config"
	"github.com/getmockd/mockbetter/pkg/jsonvalue"
	"github.com/getmockd/mockbetter/pkg/logging"
	"github.com/getmockd/mockbetter/pkg/requestlog"
)

// MemoryStore is the in-memory implementation of Store.
type MemoryStore struct {
	mu      sync.Mutex
	doc     *jsonvalue.Value
	view    *config.View
	prefix  string
	seed    *jsonvalue.Value
	matcher *matching.Matcher
	log     *slog.Logger
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithPrefix sets the administrative prefix of the factory document.
func WithPrefix(prefix string) Option {
	return func(s *MemoryStore) {
		s.prefix = prefix
	}
}

// WithSeed sets a document merged over the factory document at creation and
// on every reset.
func WithSeed(seed *jsonvalue.Value) Option {
	return func(s *MemoryStore) {
		s.seed = seed
	}
}

// WithMatcher sets the route matcher.
func WithMatcher(m *matching.Matcher) Option {
	return func(s *MemoryStore) {
		s.matcher = m
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *MemoryStore) {
		if log != nil {
			s.log = log
		}
	}
}

// NewMemoryStore creates a store holding the factory document. It fails if
// the seed document does not produce a valid configuration.
func NewMemoryStore(opts ...Option) (*MemoryStore, error) {
	s := &MemoryStore{
		prefix: config.DefaultPrefix,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.matcher == nil {
		s.matcher = matching.NewMatcher()
	}
	if s.seed != nil && !s.seed.IsObject() {
		return nil, fmt.Errorf("seed document: expected an object, got %s", s.seed.Kind())
	}

	doc := s.factory()
	view, err := config.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("seed document: %w", err)
	}
	s.doc, s.view = doc, view
	return s, nil
}

func (s *MemoryStore) factory() *jsonvalue.Value {
	doc := config.Defaults(s.prefix)
	if s.seed != nil {
		jsonvalue.Merge(doc, s.seed)
	}
	return doc
}

// commit validates doc and makes it the current state.
func (s *MemoryStore) commit(doc *jsonvalue.Value) error {
	view, err := config.Decode(doc)
	if err != nil {
		return err
	}
	s.doc, s.view = doc, view
	return nil
}

// Config returns the current configuration document.
func (s *MemoryStore) Config() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return jsonvalue.Encode(s.doc)
}

// Prefix returns the administrative path segment.
func (s *MemoryStore) Prefix() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Prefix
}

// Headers returns the global response headers.
func (s *MemoryStore) Headers() config.Headers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(config.Headers(nil), s.view.Headers...)
}

// Merge deep-merges update into the configuration.
func (s *MemoryStore) Merge(update *jsonvalue.Value) ([]byte, error) {
	if !update.IsObject() {
		return nil, fmt.Errorf("merge: expected an object, got %s", update.Kind())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.doc.Clone()
	jsonvalue.Merge(doc, update)
	if err := s.commit(doc); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	s.log.Debug("configuration merged", "tenants", len(s.view.Tenants))
	return jsonvalue.Encode(s.doc), nil
}

// Reset replaces the configuration with the factory document.
func (s *MemoryStore) Reset() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = s.factory()
	s.refresh()
	s.log.Debug("configuration reset")
	return jsonvalue.Encode(s.doc)
}

// AddRoute appends route to the tenant unless its identity is already present.
func (s *MemoryStore) AddRoute(tenant string, route *jsonvalue.Value) ([]byte, error) {
	candidate, err := config.DecodeRoute(config.KeyRoutes, route)
	if err != nil {
		return nil, fmt.Errorf("add route: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	routes := s.tenantRoutes(tenant)
	exists := false
	for _, rv := range routes.Elems() {
		if sameIdentity(rv, route) {
			exists = true
			break
		}
	}
	if !exists {
		// tenantArray always returns an array, so Append cannot fail.
		_ = routes.Append(route.Clone())
		s.refresh()
	}

	s.log.Debug("route added",
		"tenant", tenant,
		"method", candidate.Method,
		"path", candidate.Path,
		"duplicate", exists,
	)
	return jsonvalue.Encode(s.doc), nil
}

// DeleteRoutes removes the tenant's routes matching criteria. A route matches
// when it has the same value as criteria for each of the method and path keys
// criteria carries. Criteria with neither key match every route.
func (s *MemoryStore) DeleteRoutes(tenant string, criteria *jsonvalue.Value) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	routes := s.tenantRoutes(tenant)
	kept := make([]*jsonvalue.Value, 0, len(routes.Elems()))
	for _, rv := range routes.Elems() {
		if !matchesCriteria(rv, criteria) {
			kept = append(kept, rv)
		}
	}
	removed := len(routes.Elems()) - len(kept)
	_ = routes.SetElems(kept) // routes is an array
	s.refresh()

	s.log.Debug("routes deleted", "tenant", tenant, "removed", removed)
	return jsonvalue.Encode(s.doc)
}

// History returns the tenant's history entries kept by f.
func (s *MemoryStore) History(tenant string, f *requestlog.Filter) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.tenantHistory(tenant)
	return jsonvalue.Encode(jsonvalue.Array(f.Apply(history.Elems())...))
}

// ClearHistory empties the tenant's history.
func (s *MemoryStore) ClearHistory(tenant string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.tenantHistory(tenant)
	_ = history.SetElems(nil) // history is an array
	s.log.Debug("history cleared", "tenant", tenant)
	return jsonvalue.Encode(s.doc)
}

// Record appends entry to the tenant's history, then matches the request
// against the tenant's routes. The entry is appended even if matching fails.
func (s *MemoryStore) Record(tenant string, entry requestlog.Entry, method, path string) (*Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.tenantHistory(tenant)
	_ = history.Append(entry.Value()) // history is an array

	res := &Resolution{
		Default:    s.view.Default,
		Headers:    s.view.Headers,
		HistoryLen: len(history.Elems()),
	}
	res.Default.Body = res.Default.Body.Clone()

	match, err := s.matcher.Match(s.view.Routes(tenant), s.view.Headers, method, path)
	if err != nil {
		return res, err
	}
	if match != nil {
		match.Route.Body = match.Route.Body.Clone()
		res.Match = match
	}
	return res, nil
}

// TenantCount returns the number of known tenants.
func (s *MemoryStore) TenantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.view.Tenants)
}

// tenantHistory returns the history array of the tenant, creating the tenant
// if needed. Must be called with mu held.
func (s *MemoryStore) tenantHistory(tenant string) *jsonvalue.Value {
	return s.tenantArray(tenant, config.KeyHistory)
}

// tenantRoutes returns the routes array of the tenant, creating the tenant if
// needed. Must be called with mu held.
func (s *MemoryStore) tenantRoutes(tenant string) *jsonvalue.Value {
	return s.tenantArray(tenant, config.KeyRoutes)
}

// tenantArray changes the document in place: adding an empty tenant or
// replacing a null routes or history with an empty array keeps it valid.
func (s *MemoryStore) tenantArray(tenant, key string) *jsonvalue.Value {
	state := config.TenantState(s.doc, tenant)
	if _, ok := s.view.Tenants[tenant]; !ok {
		s.view.Tenants[tenant] = &config.Tenant{}
	}
	v, _ := state.Get(key)
	return v
}

// refresh rebuilds the typed view after an in-place change. Must be called
// with mu held.
func (s *MemoryStore) refresh() {
	if err := s.commit(s.doc); err != nil {
		panic(fmt.Sprintf("configuration became invalid: %v", err))
	}
}

func sameIdentity(a, b *jsonvalue.Value) bool {
	return fieldEqual(a, b, config.KeyMethod) && fieldEqual(a, b, config.KeyPath)
}

func fieldEqual(a, b *jsonvalue.Value, key string) bool {
	av, aok := a.Object().Get(key)
	bv, bok := b.Object().Get(key)
	if !aok {
		av = jsonvalue.Null()
	}
	if !bok {
		bv = jsonvalue.Null()
	}
	return jsonvalue.Equal(av, bv)
}

func matchesCriteria(route, criteria *jsonvalue.Value) bool {
	c := criteria.Object()
	if c == nil {
		return true
	}
	for _, key := range []string{config.KeyMethod, config.KeyPath} {
		if _, ok := c.Get(key); ok && !fieldEqual(route, criteria, key) {
			return false
		}
	}
	return true
}

var _ Store = (*MemoryStore)(nil)
