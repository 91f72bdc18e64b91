package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"

	"github.com/zero-day-ai/medqa/internal/types"
	"github.com/zero-day-ai/medqa/pkg/version"
)

const (
	defaultServiceName  = "medqa"
	defaultBatchTimeout = 5 * time.Second
)

// TracingOption customizes InitTracing.
type TracingOption func(*tracingOptions)

type tracingOptions struct {
	sampler      sdktrace.Sampler
	resource     *resource.Resource
	writer       io.Writer
	batchTimeout time.Duration
}

// WithSampler overrides the ratio sampler derived from the config.
func WithSampler(sampler sdktrace.Sampler) TracingOption {
	return func(o *tracingOptions) {
		o.sampler = sampler
	}
}

// WithResource overrides the service resource.
func WithResource(res *resource.Resource) TracingOption {
	return func(o *tracingOptions) {
		o.resource = res
	}
}

// WithWriter sets the destination of the stdout provider. Defaults to
// os.Stderr so spans never mix with command output.
func WithWriter(w io.Writer) TracingOption {
	return func(o *tracingOptions) {
		o.writer = w
	}
}

// WithBatchTimeout sets the export batch timeout for the otlp provider.
func WithBatchTimeout(timeout time.Duration) TracingOption {
	return func(o *tracingOptions) {
		o.batchTimeout = timeout
	}
}

// InitTracing builds a tracer provider from cfg and installs it as the global
// provider. When tracing is disabled or the provider is noop the returned
// provider records nothing and the global provider is left untouched.
func InitTracing(ctx context.Context, cfg TracingConfig, opts ...TracingOption) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled || strings.EqualFold(cfg.Provider, "noop") {
		return sdktrace.NewTracerProvider(), nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, types.WrapError(types.TRACING_INIT_FAILED, "invalid tracing configuration", err)
	}

	options := &tracingOptions{
		writer:       os.Stderr,
		batchTimeout: defaultBatchTimeout,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.sampler == nil {
		options.sampler = sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))
	}
	if options.resource == nil {
		serviceName := cfg.ServiceName
		if serviceName == "" {
			serviceName = defaultServiceName
		}
		res, err := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version.Version),
			),
			resource.WithFromEnv(),
			resource.WithTelemetrySDK(),
		)
		if err != nil {
			return nil, types.WrapError(types.TRACING_INIT_FAILED, "failed to create resource", err)
		}
		options.resource = res
	}

	var processor sdktrace.TracerProviderOption
	switch strings.ToLower(cfg.Provider) {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(options.writer))
		if err != nil {
			return nil, types.WrapError(types.TRACING_INIT_FAILED, "failed to create stdout exporter", err)
		}
		// One-shot commands exit right after the answer; export synchronously.
		processor = sdktrace.WithSyncer(exporter)

	case "otlp":
		otlpOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			otlpOpts = append(otlpOpts, otlptracegrpc.WithInsecure())
		} else {
			otlpOpts = append(otlpOpts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(nil)))
		}
		exporter, err := otlptracegrpc.New(ctx, otlpOpts...)
		if err != nil {
			return nil, types.WrapRetryableError(types.TRACING_INIT_FAILED,
				fmt.Sprintf("failed to create otlp exporter for %s", cfg.Endpoint), err)
		}
		processor = sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(options.batchTimeout))

	default:
		return nil, types.NewError(types.TRACING_INIT_FAILED, "unsupported tracing provider: "+cfg.Provider)
	}

	tp := sdktrace.NewTracerProvider(
		processor,
		sdktrace.WithSampler(options.sampler),
		sdktrace.WithResource(options.resource),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// ShutdownTracing flushes pending spans and stops the provider.
func ShutdownTracing(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}
	if err := provider.Shutdown(ctx); err != nil {
		return types.WrapError(types.TRACING_INIT_FAILED, "tracer provider shutdown failed", err)
	}
	return nil
}
