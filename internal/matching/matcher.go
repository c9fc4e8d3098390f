package matching

import (
	"github.com/getmockd/mockbetter/pkg/config"
)

// MatchResult is the route selected for a request.
type MatchResult struct {
	// Route is the matched route.
	Route config.Route
	// Index is the position of the route in the tenant's route list.
	Index int
	// Headers are the global headers overlaid with the route's headers.
	Headers config.Headers
}

// Matcher selects the first route matching a request.
type Matcher struct {
	patterns *PatternCache
}

// NewMatcher creates a Matcher with its own pattern cache.
func NewMatcher() *Matcher {
	return &Matcher{patterns: NewPatternCache(0)}
}

// MatchMethod reports whether a route method accepts the request method.
func MatchMethod(routeMethod, method string) bool {
	return routeMethod == method || routeMethod == config.MethodAny
}

// Match scans routes in order and returns the first whose method accepts
// method and whose path pattern is found in path. global are the headers
// every response carries. Returns nil if no route matches.
//
// A route whose method matches but whose pattern does not compile stops the
// scan with a *PatternError; routes after it are not considered.
func (m *Matcher) Match(routes []config.Route, global config.Headers, method, path string) (*MatchResult, error) {
	for i, route := range routes {
		if !MatchMethod(route.Method, method) {
			continue
		}
		ok, err := m.patterns.MatchPathPattern(route.Path, path)
		if err != nil {
			return nil, err
		}
		if ok {
			return &MatchResult{
				Route:   route,
				Index:   i,
				Headers: global.Overlay(route.Headers),
			}, nil
		}
	}
	return nil, nil
}
