package cli

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/hgarciaospina/library-management/config"
	"github.com/hgarciaospina/library-management/service/listing"
	loansvc "github.com/hgarciaospina/library-management/service/loan"
)

const (
	serviceName         = "library-management"
	instrumentationName = "github.com/hgarciaospina/library-management"
)

// telemetry owns the tracer and meter providers handed to the services.
// A nil *telemetry means export is off and services keep the global no-op providers.
type telemetry struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// newTelemetry builds OTLP gRPC exporters for cfg.OTLPEndpoint. It returns
// nil when no endpoint is configured.
func newTelemetry(ctx context.Context, cfg config.App) (*telemetry, error) {
	if cfg.OTLPEndpoint == "" {
		return nil, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.OTLPInsecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}

	traceExporter, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("otlp trace exporter: %w", err)
	}
	metricExporter, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		return nil, fmt.Errorf("otlp metric exporter: %w", err)
	}

	return newTelemetryWith(res,
		sdktrace.WithBatcher(traceExporter),
		sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(cfg.MetricsInterval)),
	), nil
}

func newTelemetryWith(res *resource.Resource, spans sdktrace.TracerProviderOption, reader sdkmetric.Reader) *telemetry {
	return &telemetry{
		tp: sdktrace.NewTracerProvider(spans, sdktrace.WithResource(res)),
		mp: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res)),
	}
}

func (t *telemetry) loanOptions() []loansvc.Option {
	if t == nil {
		return nil
	}
	return []loansvc.Option{
		loansvc.WithTracer(t.tp.Tracer(instrumentationName)),
		loansvc.WithMeter(t.mp.Meter(instrumentationName)),
	}
}

func (t *telemetry) listingOptions() []listing.Option {
	if t == nil {
		return nil
	}
	return []listing.Option{listing.WithTracer(t.tp.Tracer(instrumentationName))}
}

// Shutdown flushes pending spans and metrics.
func (t *telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return errors.Join(t.tp.Shutdown(ctx), t.mp.Shutdown(ctx))
}
