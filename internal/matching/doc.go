// Package matching provides the route matching algorithm for the mock server.
//
// Routes of a tenant are scanned in registration order and the first route
// that matches wins. There is no specificity ranking: registration order is
// the only tie-break.
//
// A route matches a request when:
//
//   - Method: the route method equals the request method, or is "ANY"
//   - Path: the route path, read as a regular expression (RE2 syntax), is
//     found anywhere in the full request path (unanchored search)
//
// Patterns are compiled once and cached, so repeated matching against the
// same routes does not recompile them. Compilation errors are cached too and
// reported to the caller whenever a request reaches the offending route.
//
// Key types:
//
//   - Matcher: scans routes and returns the first match
//   - PatternCache: thread-safe cache of compiled path patterns
//   - PatternError: returned when a route's path is not a valid pattern
package matching
