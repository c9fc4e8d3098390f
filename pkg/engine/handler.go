// HTTP transport adapter for the dispatcher.

package engine

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/getmockd/mockbetter/pkg/config"
	"github.com/getmockd/mockbetter/pkg/httputil"
	"github.com/getmockd/mockbetter/pkg/logging"
	"github.com/getmockd/mockbetter/pkg/metrics"
)

// MaxRequestBodySize is the default maximum request body size (10MB).
const MaxRequestBodySize = 10 << 20 // 10MB

// Handler feeds HTTP requests to a Dispatcher and writes back its responses.
type Handler struct {
	dispatcher  *Dispatcher
	maxBodySize int64
	metrics     *metrics.Metrics
	log         *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMaxBodySize sets the maximum accepted request body size in bytes.
// Values <= 0 keep MaxRequestBodySize.
func WithMaxBodySize(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBodySize = n
		}
	}
}

// WithHandlerLogger sets the handler's logger.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithHandlerMetrics sets the metrics the handler records to.
func WithHandlerMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler creates a new Handler.
func NewHandler(d *Dispatcher, opts ...HandlerOption) *Handler {
	h := &Handler{
		dispatcher:  d,
		maxBodySize: MaxRequestBodySize,
		log:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// MaxBytesReader returns an error when the limit is exceeded, unlike
	// LimitReader which silently truncates.
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
		if err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				h.log.WarnContext(r.Context(), "request body too large", "limit", maxBytesErr.Limit, "path", r.URL.Path)
				h.metrics.Error(metrics.ErrorBodyTooLarge)
				h.write(w, h.dispatcher.errorResponse(ErrBodyTooLarge.Error()))
				return
			}
			h.log.WarnContext(r.Context(), "failed to read request body", "error", err, "path", r.URL.Path)
			h.metrics.Error(metrics.ErrorFault)
			h.write(w, h.dispatcher.errorResponse(err.Error()))
			return
		}
	}

	resp := h.dispatcher.Dispatch(r.Context(), Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   body,
		Query:  r.URL.Query(),
	})
	h.write(w, resp)
}

func (h *Handler) write(w http.ResponseWriter, resp Response) {
	status, err := httputil.ParseStatus(resp.Status)
	if err != nil {
		// Dispatch validates statuses, so only a hand-built Response gets here.
		status = http.StatusInternalServerError
	}
	httputil.WriteRaw(w, status, headerPairs(resp.Headers), resp.Body)
}

func headerPairs(headers config.Headers) [][2]string {
	pairs := make([][2]string, len(headers))
	for i, hdr := range headers {
		pairs[i] = [2]string{hdr.Name, hdr.Value}
	}
	return pairs
}
