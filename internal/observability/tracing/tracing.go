package tracing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Init configures an OTLP HTTP exporter when endpoint is set.
// With no endpoint tracing stays a no-op.
func Init(ctx context.Context, logger *slog.Logger, endpoint, serviceName, environment string) (func(context.Context) error, error) {
	if endpoint == "" {
		if logger != nil {
			logger.Info("tracing disabled: tracing.endpoint not set")
		}
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.DeploymentEnvironment(environment),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	if logger != nil {
		logger.Info("tracing initialized", slog.String("endpoint", endpoint))
	}
	return tp.Shutdown, nil
}

