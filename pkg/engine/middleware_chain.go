package engine

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/getmockd/mockbetter/internal/id"
	"github.com/getmockd/mockbetter/pkg/logging"
	"github.com/getmockd/mockbetter/pkg/metrics"
)

// HeaderRequestID carries the request ID on requests and responses.
const HeaderRequestID = "X-Request-Id"

// spanName names the server spans of the mock server.
const spanName = "mockbetter"

// MiddlewareChain manages the HTTP middleware stack for the mock server.
type MiddlewareChain struct {
	metrics *metrics.Metrics
	log     *slog.Logger
	tracing bool
	tp      trace.TracerProvider
}

// MiddlewareChainOption configures a MiddlewareChain.
type MiddlewareChainOption func(*MiddlewareChain)

// WithChainMetrics sets the metrics recorded by the chain.
func WithChainMetrics(m *metrics.Metrics) MiddlewareChainOption {
	return func(mc *MiddlewareChain) {
		mc.metrics = m
	}
}

// WithChainLogger sets the logger of the chain.
func WithChainLogger(log *slog.Logger) MiddlewareChainOption {
	return func(mc *MiddlewareChain) {
		if log != nil {
			mc.log = log
		}
	}
}

// WithChainTracing enables or disables OpenTelemetry instrumentation.
// Spans go to the global tracer provider.
func WithChainTracing(enabled bool) MiddlewareChainOption {
	return func(mc *MiddlewareChain) {
		mc.tracing = enabled
	}
}

// WithChainTracerProvider sets the tracer provider used instead of the
// global one.
func WithChainTracerProvider(tp trace.TracerProvider) MiddlewareChainOption {
	return func(mc *MiddlewareChain) {
		mc.tp = tp
	}
}

// NewMiddlewareChain creates a new middleware chain.
func NewMiddlewareChain(opts ...MiddlewareChainOption) *MiddlewareChain {
	mc := &MiddlewareChain{log: logging.Nop(), tracing: true}
	for _, opt := range opts {
		opt(mc)
	}
	return mc
}

// Wrap wraps the given handler with all configured middleware.
// The order is: tracing -> request ID -> metrics -> handler
func (mc *MiddlewareChain) Wrap(handler http.Handler) http.Handler {
	h := MetricsMiddleware(mc.metrics)(handler)
	h = RequestIDMiddleware(mc.log)(h)
	if mc.tracing {
		opts := []otelhttp.Option{
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
		}
		if mc.tp != nil {
			opts = append(opts, otelhttp.WithTracerProvider(mc.tp))
		}
		h = otelhttp.NewHandler(h, spanName, opts...)
	}
	return h
}

// RequestIDMiddleware assigns every request an ID, reusing a well-formed
// inbound X-Request-Id. The ID is set on the response and stored in the
// request context for logging.
func RequestIDMiddleware(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := id.RequestID(r.Header.Get(HeaderRequestID))
			w.Header().Set(HeaderRequestID, reqID)
			ctx := logging.WithRequestID(r.Context(), reqID)
			log.DebugContext(ctx, "request received", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
