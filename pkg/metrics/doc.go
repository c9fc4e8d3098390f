// Package metrics provides Prometheus metrics for the mock server.
//
// Metrics are registered on a dedicated prometheus.Registry together with
// the Go runtime and process collectors, and exposed in the Prometheus text
// format by Handler.
//
// # Metrics
//
//   - mockbetter_requests_total: requests by kind (admin, mock), operation and status
//   - mockbetter_request_duration_seconds: request latency by kind and operation
//   - mockbetter_route_hits_total: mock requests answered by a route, by tenant
//   - mockbetter_route_misses_total: mock requests answered by the default policy, by tenant and mode
//   - mockbetter_errors_total: error responses by type
//   - mockbetter_tenants: number of known tenants
//   - mockbetter_uptime_seconds: seconds since the metrics were created
//
// # Usage
//
//	m := metrics.New()
//	m.ObserveRequest("mock", "mock", "200", elapsed)
//	http.Handle("/metrics", m.Handler())
//
// Every method is safe to call on a nil *Metrics, which records nothing.
package metrics
