package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	logging "usage-report-bot/internal/infra/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.uber.org/zap"
)

const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

var ErrUnknownExporter = errors.New("unknown trace exporter")

type Options struct {
	Enabled        bool
	Exporter       string // stdout or otlp
	Endpoint       string // host:port of the OTLP gRPC collector
	Insecure       bool
	ServiceName    string
	ServiceVersion string
	// Writer receives stdout spans. Defaults to os.Stdout.
	Writer io.Writer
}

// Provider owns the tracer provider installed as the otel global.
type Provider struct {
	tp *sdktrace.TracerProvider
}

// Setup installs a global tracer provider. When tracing is disabled the
// otel no-op provider stays in place and Shutdown does nothing.
func Setup(ctx context.Context, opts Options) (*Provider, error) {
	if !opts.Enabled {
		return &Provider{}, nil
	}

	exporter, err := newExporter(ctx, opts)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(opts.ServiceVersion),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logging.LogInfo("Tracing enabled", zap.String("exporter", opts.Exporter), zap.String("service", opts.ServiceName))
	return &Provider{tp: tp}, nil
}

func newExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	switch opts.Exporter {
	case ExporterOTLP:
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
		if opts.Insecure {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		return exp, nil
	case ExporterStdout, "":
		w := opts.Writer
		if w == nil {
			w = os.Stdout
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExporter, opts.Exporter)
	}
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
