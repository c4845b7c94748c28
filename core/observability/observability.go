// Package observability sets up OpenTelemetry tracing and metrics and serves
// Prometheus metrics and health checks over HTTP.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	"github.com/m3rciful/coursebot/core/logger"
)

// Config selects what gets exported.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// OTLPEndpoint enables trace export over gRPC when set (host:port).
	OTLPEndpoint string
}

// FromCore maps the observability section of the core config.
func FromCore(cfg coreconfig.ObservabilityConfig, service, version string) Config {
	env := cfg.Environment
	if env == "" {
		env = "development"
	}
	return Config{
		ServiceName:    service,
		ServiceVersion: version,
		Environment:    env,
		OTLPEndpoint:   strings.TrimSpace(cfg.OTLPEndpoint),
	}
}

// Observability owns the tracer and meter providers.
type Observability struct {
	Config   Config
	Tracer   trace.Tracer
	Meter    metric.Meter
	Registry *prometheus.Registry

	shutdown []func(context.Context) error
}

// New builds the providers and installs them as the OTel globals.
// Without an OTLP endpoint spans are still recorded locally so trace ids
// reach the logs, but nothing is exported.
func New(ctx context.Context, cfg Config) (*Observability, error) {
	if cfg.ServiceName == "" {
		return nil, errors.New("observability: service name is required")
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observability: resource: %w", err)
	}

	obs := &Observability{Config: cfg, Registry: prometheus.NewRegistry()}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	}
	if cfg.OTLPEndpoint != "" {
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("observability: otlp exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}
	tracerProvider := sdktrace.NewTracerProvider(tpOpts...)
	obs.shutdown = append(obs.shutdown, tracerProvider.Shutdown)

	promExporter, err := otelprom.New(otelprom.WithRegisterer(obs.Registry))
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, fmt.Errorf("observability: prometheus exporter: %w", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	)
	obs.shutdown = append(obs.shutdown, meterProvider.Shutdown)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	obs.Tracer = tracerProvider.Tracer(cfg.ServiceName)
	obs.Meter = meterProvider.Meter(cfg.ServiceName)

	logger.LogEvent(ctx, logger.Obs, slog.LevelInfo, "obs.init",
		slog.String("status", "ok"),
		slog.Bool("otlp", cfg.OTLPEndpoint != ""),
		slog.String("env", cfg.Environment),
	)
	return obs, nil
}

// Shutdown flushes pending spans and stops both providers.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	var errs []error
	for i := len(o.shutdown) - 1; i >= 0; i-- {
		if err := o.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	o.shutdown = nil
	return errors.Join(errs...)
}
