// Package telemetry exports OpenTelemetry traces of the mock server to an
// OTLP collector.
//
// The engine instruments requests through the global tracer provider, which
// is a no-op until Setup installs an exporting one:
//
//	tel, err := telemetry.Setup(ctx, "http://collector:4318", log)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/getmockd/mockbetter/pkg/logging"
)

// ServiceName is reported as the service.name resource attribute.
const ServiceName = "mockbetter"

// Default OTLP ports.
const (
	DefaultGRPCPort = "4317"
	DefaultHTTPPort = "4318"
)

// exportTimeout bounds a single export.
const exportTimeout = 10 * time.Second

// Protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// ErrEmptyEndpoint is returned by ParseEndpoint for a blank endpoint.
var ErrEmptyEndpoint = errors.New("telemetry: empty endpoint")

// Target is a resolved OTLP collector address.
type Target struct {
	Protocol string
	// Endpoint is host:port.
	Endpoint string
	// Path is the URL path of an HTTP collector ("" for the default).
	Path     string
	Insecure bool
}

// ParseEndpoint resolves an OTLP endpoint. A bare host or host:port is an
// insecure gRPC collector. URLs select the protocol by scheme: grpc, grpcs,
// http or https.
func ParseEndpoint(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, ErrEmptyEndpoint
	}
	if !strings.Contains(raw, "://") {
		return Target{
			Protocol: ProtocolGRPC,
			Endpoint: withDefaultPort(raw, DefaultGRPCPort),
			Insecure: true,
		}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("telemetry: parse endpoint: %w", err)
	}
	if u.Host == "" {
		return Target{}, fmt.Errorf("telemetry: missing endpoint host in %q", raw)
	}

	t := Target{Path: strings.TrimSuffix(u.Path, "/")}
	switch strings.ToLower(u.Scheme) {
	case "grpc":
		t.Protocol, t.Insecure = ProtocolGRPC, true
	case "grpcs":
		t.Protocol = ProtocolGRPC
	case "http":
		t.Protocol, t.Insecure = ProtocolHTTP, true
	case "https":
		t.Protocol = ProtocolHTTP
	default:
		return Target{}, fmt.Errorf("telemetry: unknown scheme %q", u.Scheme)
	}

	port := DefaultHTTPPort
	if t.Protocol == ProtocolGRPC {
		port = DefaultGRPCPort
		t.Path = ""
	}
	t.Endpoint = withDefaultPort(u.Host, port)
	return t, nil
}

func withDefaultPort(host, port string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), port)
}

// Telemetry owns the exporting tracer provider. A nil *Telemetry is valid and
// does nothing.
type Telemetry struct {
	provider *sdktrace.TracerProvider
	target   Target
	log      *slog.Logger
}

// Setup installs a global tracer provider exporting to endpoint, along with
// W3C trace-context and baggage propagation. An empty endpoint disables
// export and returns nil.
func Setup(ctx context.Context, endpoint string, log *slog.Logger) (*Telemetry, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, nil
	}
	if log == nil {
		log = logging.Nop()
	}

	target, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithSchemaURL(semconv.SchemaURL),
		resource.WithAttributes(semconv.ServiceName(ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	var exporter sdktrace.SpanExporter
	switch target.Protocol {
	case ProtocolGRPC:
		exporter, err = newGRPCExporter(ctx, target)
	default:
		exporter, err = newHTTPExporter(ctx, target)
	}
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		log.Warn("trace export failed", "error", err)
	}))

	log.Info("tracing enabled",
		"protocol", target.Protocol,
		"endpoint", target.Endpoint,
		"path", target.Path,
		"insecure", target.Insecure,
	)
	return &Telemetry{provider: provider, target: target, log: log}, nil
}

func newGRPCExporter(ctx context.Context, target Target) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(target.Endpoint),
		otlptracegrpc.WithTimeout(exportTimeout),
	}
	if target.Insecure {
		opts = append(opts,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	} else {
		opts = append(opts, otlptracegrpc.WithDialOption(
			grpc.WithTransportCredentials(credentials.NewClientTLSFromCert(nil, ""))))
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: start trace exporter (grpc): %w", err)
	}
	return exporter, nil
}

func newHTTPExporter(ctx context.Context, target Target) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(target.Endpoint),
		otlptracehttp.WithTimeout(exportTimeout),
	}
	if target.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if target.Path != "" {
		opts = append(opts, otlptracehttp.WithURLPath(target.Path))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: start trace exporter (http): %w", err)
	}
	return exporter, nil
}

// Target returns the collector the spans are exported to.
func (t *Telemetry) Target() Target {
	if t == nil {
		return Target{}
	}
	return t.target
}

// Shutdown flushes pending spans and stops the exporter.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("trace shutdown: %w", err)
	}
	t.log.Debug("tracing stopped")
	return nil
}
