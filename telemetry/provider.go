// OpenTelemetry provider initialization and configuration.
package telemetry

import (
	"context"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"

	"github.com/vinayprograms/taskboard/errors"
)

// Supported OTLP protocols.
const (
	ProtocolGRPC = "grpc"
	ProtocolHTTP = "http"
)

// DefaultServiceName is used when neither the config nor OTEL_SERVICE_NAME
// names the service.
const DefaultServiceName = "taskboard"

var (
	// ErrNoEndpoint indicates neither the config nor the environment names a collector.
	ErrNoEndpoint = errors.InvalidInput("telemetry endpoint not configured (set endpoint or OTEL_EXPORTER_OTLP_ENDPOINT)")

	// ErrUnknownProtocol indicates a protocol other than grpc or http.
	ErrUnknownProtocol = errors.InvalidInput("unknown telemetry protocol (use 'grpc' or 'http')")
)

// ProviderConfig configures the OpenTelemetry provider.
type ProviderConfig struct {
	// ServiceName defaults to OTEL_SERVICE_NAME, then "taskboard".
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP collector address, e.g. "localhost:4317".
	// If empty, uses OTEL_EXPORTER_OTLP_ENDPOINT.
	Endpoint string

	// Protocol is "grpc" or "http". Default is "grpc".
	Protocol string

	// Insecure disables TLS.
	Insecure bool

	// Debug records task titles on spans.
	Debug bool

	// BatchTimeout is the maximum time to wait before sending a batch.
	BatchTimeout time.Duration
}

// ValidProtocol reports whether p names a supported protocol. Empty selects grpc.
func ValidProtocol(p string) bool {
	switch p {
	case "", ProtocolGRPC, ProtocolHTTP:
		return true
	}
	return false
}

// Provider owns an SDK TracerProvider and the Tracer built on it.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer *Tracer
}

// InitProvider builds an OTLP exporter, installs the provider globally and
// sets the global Tracer. The Provider must be shut down to flush spans.
func InitProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInternal, "creating resource")
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Protocol {
	case "", ProtocolGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	case ProtocolHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	default:
		return nil, errors.Wrap(ErrUnknownProtocol, "protocol "+cfg.Protocol)
	}
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrCodeInternal, "creating exporter")
	}

	var batchOpts []sdktrace.BatchSpanProcessorOption
	if cfg.BatchTimeout > 0 {
		batchOpts = append(batchOpts, sdktrace.WithBatchTimeout(cfg.BatchTimeout))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, batchOpts...),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	tracer := NewTracerWithProvider(tp, serviceName, cfg.Debug)
	SetGlobalTracer(tracer)

	return &Provider{tp: tp, tracer: tracer}, nil
}

// Tracer returns the tracer for this provider.
func (p *Provider) Tracer() *Tracer {
	return p.tracer
}

// ForceFlush exports all pending spans.
func (p *Provider) ForceFlush(ctx context.Context) error {
	return p.tp.ForceFlush(ctx)
}

// Shutdown flushes pending spans and stops the exporter. The global tracer
// falls back to no-op if it still points at this provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	tracerMu.Lock()
	if globalTracer == p.tracer {
		globalTracer = nil
	}
	tracerMu.Unlock()
	return p.tp.Shutdown(ctx)
}

// OnShutdown implements shutdown.Handler.
func (p *Provider) OnShutdown(ctx context.Context) error {
	return p.Shutdown(ctx)
}
