package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "mockbetter"

// Request kinds.
const (
	KindAdmin = "admin"
	KindMock  = "mock"
)

// Error types.
const (
	ErrorObjectRequired = "object_required"
	ErrorTenantRequired = "tenant_required"
	ErrorInvalidConfig  = "invalid_config"
	ErrorInvalidFilter  = "invalid_filter"
	ErrorBodyTooLarge   = "body_too_large"
	ErrorFault          = "fault"
)

// Metrics holds the collectors of the mock server.
type Metrics struct {
	registry *prometheus.Registry
	started  time.Time

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RouteHitsTotal   *prometheus.CounterVec
	RouteMissesTotal *prometheus.CounterVec
	ErrorsTotal      *prometheus.CounterVec
}

// New creates the collectors and registers them on a new registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Total number of requests by kind, operation and status.",
		}, []string{"kind", "operation", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "operation"}),
		RouteHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "route_hits_total",
			Help:      "Mock requests answered by a registered route.",
		}, []string{"tenant"}),
		RouteMissesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "route_misses_total",
			Help:      "Mock requests answered by the default policy.",
		}, []string{"tenant", "mode"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Error responses by type.",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.RouteHitsTotal,
		m.RouteMissesTotal,
		m.ErrorsTotal,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the server started.",
		}, func() float64 { return time.Since(m.started).Seconds() }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveTenants registers the tenants gauge, reading its value from count
// at scrape time.
func (m *Metrics) ObserveTenants(count func() int) error {
	if m == nil {
		return nil
	}
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "tenants",
		Help:      "Number of known tenants.",
	}, func() float64 { return float64(count()) }))
}

// ObserveRequest records a finished request.
func (m *Metrics) ObserveRequest(kind, operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(kind, operation, status).Inc()
	m.RequestDuration.WithLabelValues(kind, operation).Observe(elapsed.Seconds())
}

// RouteHit records a mock request answered by a route.
func (m *Metrics) RouteHit(tenant string) {
	if m == nil {
		return
	}
	m.RouteHitsTotal.WithLabelValues(tenant).Inc()
}

// RouteMiss records a mock request answered by the default policy.
func (m *Metrics) RouteMiss(tenant, mode string) {
	if m == nil {
		return
	}
	m.RouteMissesTotal.WithLabelValues(tenant, mode).Inc()
}

// Error records an error response.
func (m *Metrics) Error(errType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errType).Inc()
}

// Handler returns an http.Handler serving the registry in the Prometheus
// text exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
