package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/getmockd/mockbetter/internal/storage"
	"github.com/getmockd/mockbetter/pkg/config"
	"github.com/getmockd/mockbetter/pkg/httputil"
	"github.com/getmockd/mockbetter/pkg/jsonvalue"
	"github.com/getmockd/mockbetter/pkg/logging"
	"github.com/getmockd/mockbetter/pkg/metrics"
	"github.com/getmockd/mockbetter/pkg/requestlog"
)

// StatusError is the status of every error response.
const StatusError = "500"

// History query parameters.
const (
	QueryFilter = "filter"
	QueryMethod = "method"
	QueryPath   = "path"
	QueryLimit  = "limit"
	QueryWhere  = "where"
)

// Request is a transport-independent inbound request.
type Request struct {
	Method string
	// Path is the request path without the query string.
	Path string
	// Body is the raw request body. Bodies that are not valid JSON are
	// treated as absent.
	Body  []byte
	Query url.Values
}

// Response is the status, headers and encoded body produced for a request.
type Response struct {
	// Status is the HTTP status code as a string.
	Status  string
	Headers config.Headers
	Body    []byte
}

// Dispatcher classifies requests and produces their responses.
// It is safe for concurrent use.
type Dispatcher struct {
	store   storage.Store
	metrics *metrics.Metrics
	log     *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the dispatcher's logger.
func WithDispatcherLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithDispatcherMetrics sets the metrics the dispatcher records to.
func WithDispatcherMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a Dispatcher serving the state held by store.
func NewDispatcher(store storage.Store, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store: store,
		log:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Store returns the dispatcher's state store.
func (d *Dispatcher) Store() storage.Store {
	return d.store
}

// Dispatch handles one request. It never panics: a fault while handling the
// request becomes a 500 response describing the fault.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	info := requestInfoFrom(ctx)
	defer func() {
		if r := recover(); r != nil {
			d.log.ErrorContext(ctx, "request handling panicked", "panic", r, "method", req.Method, "path", req.Path)
			d.metrics.Error(metrics.ErrorFault)
			resp = d.errorResponse(fmt.Sprintf("%v\n%s", r, debug.Stack()))
		}
	}()

	c := Classify(req.Method, req.Path, d.store.Prefix())
	if info != nil {
		info.op, info.tenant = c.Op, c.Tenant
	}

	body := jsonvalue.ParseLenient(req.Body)
	resp, err := d.dispatch(ctx, c, req, body)
	if err != nil {
		d.metrics.Error(errorType(err))
		d.log.DebugContext(ctx, "request failed", "operation", c.Op, "tenant", c.Tenant, "error", err)
		return d.errorResponse(err.Error())
	}

	if _, err := httputil.ParseStatus(resp.Status); err != nil {
		d.metrics.Error(metrics.ErrorFault)
		d.log.WarnContext(ctx, "response has an invalid status", "operation", c.Op, "tenant", c.Tenant, "status", resp.Status)
		return d.errorResponse(err.Error())
	}

	d.log.DebugContext(ctx, "request dispatched",
		"operation", c.Op,
		"tenant", c.Tenant,
		"method", req.Method,
		"path", req.Path,
		"status", resp.Status,
	)
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, c Classification, req Request, body *jsonvalue.Value) (Response, error) {
	if c.Op.NeedsObject() && !body.IsObject() {
		return Response{}, ErrObjectRequired
	}
	if c.Op.NeedsTenant() && c.Tenant == "" {
		return Response{}, ErrTenantRequired
	}

	switch c.Op {
	case OpConfGet:
		return d.ok(d.store.Config()), nil

	case OpConfMerge:
		cfg, err := d.store.Merge(body)
		if err != nil {
			return Response{}, &configError{err: err}
		}
		return d.ok(cfg), nil

	case OpReset:
		return d.ok(d.store.Reset()), nil

	case OpRouteAdd:
		cfg, err := storage.NewTenantStore(d.store, c.Tenant).AddRoute(body)
		if err != nil {
			return Response{}, &configError{err: err}
		}
		return d.ok(cfg), nil

	case OpRouteDelete:
		return d.ok(storage.NewTenantStore(d.store, c.Tenant).DeleteRoutes(body)), nil

	case OpHistoryGet:
		f, err := historyFilter(req.Query)
		if err != nil {
			return Response{}, err
		}
		return d.ok(storage.NewTenantStore(d.store, c.Tenant).History(f)), nil

	case OpHistoryClear:
		return d.ok(storage.NewTenantStore(d.store, c.Tenant).ClearHistory()), nil

	default:
		return d.mock(ctx, c, req, body)
	}
}

// mock records the request in the tenant's history, then answers it with the
// first matching route or the default policy.
func (d *Dispatcher) mock(ctx context.Context, c Classification, req Request, body *jsonvalue.Value) (Response, error) {
	entry := requestlog.Entry{
		Method: req.Method,
		Body:   body,
		Path:   "/" + strings.Join(c.Segments[1:], "/"),
	}

	res, err := storage.NewTenantStore(d.store, c.Tenant).Record(entry, req.Method, req.Path)
	if err != nil {
		return Response{}, err
	}

	if res.Matched() {
		route := res.Match.Route
		d.metrics.RouteHit(c.Tenant)
		d.log.DebugContext(ctx, "route matched",
			"tenant", c.Tenant,
			"index", res.Match.Index,
			"route_method", route.Method,
			"route_path", route.Path,
		)
		return Response{
			Status:  route.Code,
			Headers: res.Match.Headers,
			Body:    jsonvalue.Encode(route.Body),
		}, nil
	}

	d.metrics.RouteMiss(c.Tenant, res.Default.Mode)
	return ApplyDefault(res.Default, res.Headers, req.Method, c.Segments[1:], body), nil
}

func (d *Dispatcher) ok(body []byte) Response {
	return Response{Status: "200", Headers: d.store.Headers(), Body: body}
}

// errorResponse builds the 500 response carrying message.
func (d *Dispatcher) errorResponse(message string) Response {
	return Response{
		Status:  StatusError,
		Headers: d.safeHeaders(),
		Body:    ErrorBody(message),
	}
}

// safeHeaders returns the global headers, falling back to a JSON content type
// if they cannot be read.
func (d *Dispatcher) safeHeaders() (headers config.Headers) {
	defer func() {
		if recover() != nil {
			headers = config.Headers{{Name: "Content-Type", Value: config.ContentTypeJSON}}
		}
	}()
	return d.store.Headers()
}

// ErrorBody encodes {"message": message}.
func ErrorBody(message string) []byte {
	obj := jsonvalue.NewObject()
	obj.Set("message", jsonvalue.String(message))
	return jsonvalue.Encode(jsonvalue.FromObject(obj))
}

func historyFilter(q url.Values) (*requestlog.Filter, error) {
	opts := requestlog.FilterOptions{
		Method:   q.Get(QueryMethod),
		Path:     q.Get(QueryPath),
		JSONPath: q.Get(QueryFilter),
		Where:    q.Get(QueryWhere),
	}
	if s := q.Get(QueryLimit); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return nil, &filterError{err: fmt.Errorf("invalid limit %q", s)}
		}
		opts.Limit = n
	}
	if opts.IsEmpty() {
		return nil, nil
	}
	f, err := requestlog.NewFilter(opts)
	if err != nil {
		return nil, &filterError{err: err}
	}
	return f, nil
}

// configError wraps a rejected configuration change.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// filterError wraps an unusable history filter.
type filterError struct{ err error }

func (e *filterError) Error() string { return e.err.Error() }
func (e *filterError) Unwrap() error { return e.err }

func errorType(err error) string {
	var cfgErr *configError
	var fltErr *filterError
	switch {
	case errors.Is(err, ErrObjectRequired):
		return metrics.ErrorObjectRequired
	case errors.Is(err, ErrTenantRequired):
		return metrics.ErrorTenantRequired
	case errors.As(err, &cfgErr):
		return metrics.ErrorInvalidConfig
	case errors.As(err, &fltErr):
		return metrics.ErrorInvalidFilter
	default:
		return metrics.ErrorFault
	}
}
