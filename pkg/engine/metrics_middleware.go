package engine

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/getmockd/mockbetter/pkg/metrics"
)

// requestInfo collects what the dispatcher learned about a request for the
// middleware wrapped around it.
type requestInfo struct {
	op     Operation
	tenant string
}

type requestInfoKey struct{}

func withRequestInfo(ctx context.Context) (context.Context, *requestInfo) {
	info := &requestInfo{}
	return context.WithValue(ctx, requestInfoKey{}, info), info
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// metricsResponseWriter wraps http.ResponseWriter to capture the status code.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// newMetricsResponseWriter creates a new metricsResponseWriter.
func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // default
	}
}

// WriteHeader captures the status code and writes it to the underlying ResponseWriter.
func (w *metricsResponseWriter) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

// Write writes data to the underlying ResponseWriter.
func (w *metricsResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.written = true
	}
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (w *metricsResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// MetricsMiddleware wraps an http.Handler to record request counts and
// durations labelled by request kind and operation. It also annotates the
// active trace span with the operation and tenant.
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, info := withRequestInfo(r.Context())
			mrw := newMetricsResponseWriter(w)

			next.ServeHTTP(mrw, r.WithContext(ctx))

			op, kind := info.op, metrics.KindMock
			if op == "" {
				op = "none"
			} else if op.IsAdmin() {
				kind = metrics.KindAdmin
			}
			m.ObserveRequest(kind, string(op), strconv.Itoa(mrw.statusCode), time.Since(start))

			span := trace.SpanFromContext(ctx)
			span.SetAttributes(
				attribute.String("mockbetter.operation", string(op)),
				attribute.String("mockbetter.tenant", info.tenant),
			)
		})
	}
}
