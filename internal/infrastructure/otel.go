package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "northstar-log-analyzer"
	ServiceVersion = "1.0.0"
	MeterName      = "northstar"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	EnableTracing  bool
	EnableMetrics  bool
	TraceFilePath  string // destination for stdout trace export, "" = stderr
}

// OTelProviders holds the OpenTelemetry providers and the instruments
// the pipeline records against.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Logger         *slog.Logger

	apiRequests   metric.Int64Counter
	apiDuration   metric.Float64Histogram
	stageDuration metric.Float64Histogram
	deathEvents   metric.Int64Counter
}

// DefaultOTelConfig returns the configuration used by the CLI tools:
// metrics always on, tracing only when debugging.
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    "development",
		EnableTracing:  false,
		EnableMetrics:  true,
	}
}

// InitializeOTel initializes tracing and metrics. A nil config selects
// DefaultOTelConfig.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("deployment.environment", cfg.Environment),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{Logger: logger}

	if cfg.EnableTracing {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		providers.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(providers.TracerProvider)
	} else {
		providers.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.NeverSample()),
			sdktrace.WithResource(res),
		)
	}
	providers.Tracer = providers.TracerProvider.Tracer(MeterName)

	// A short-lived CLI has no scrape surface; metrics are collected
	// through a manual reader and logged at shutdown.
	reader := sdkmetric.NewManualReader()
	providers.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(providers.MeterProvider)
	providers.Meter = providers.MeterProvider.Meter(MeterName)

	if err := providers.createInstruments(); err != nil {
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}

	logger.Info("OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

func (p *OTelProviders) createInstruments() error {
	var err error

	p.apiRequests, err = p.Meter.Int64Counter("northstar.api.requests",
		metric.WithDescription("GraphQL requests sent to the log provider"),
		metric.WithUnit("{request}"))
	if err != nil {
		return err
	}

	p.apiDuration, err = p.Meter.Float64Histogram("northstar.api.request.duration",
		metric.WithDescription("Latency of provider requests"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	p.stageDuration, err = p.Meter.Float64Histogram("northstar.pipeline.stage.duration",
		metric.WithDescription("Duration of pipeline stages"),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}

	p.deathEvents, err = p.Meter.Int64Counter("northstar.deaths.events",
		metric.WithDescription("Death events processed"),
		metric.WithUnit("{event}"))
	if err != nil {
		return err
	}

	return nil
}

// RecordAPIRequest records one provider request with its outcome.
func (p *OTelProviders) RecordAPIRequest(ctx context.Context, operation string, duration time.Duration, err error) {
	if p == nil || p.apiRequests == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	p.apiRequests.Add(ctx, 1, attrs)
	p.apiDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStage records the duration of one pipeline stage.
func (p *OTelProviders) RecordStage(ctx context.Context, stage string, duration time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordDeathEvents counts death events attributed during extraction.
func (p *OTelProviders) RecordDeathEvents(ctx context.Context, count int) {
	if p == nil || p.deathEvents == nil {
		return
	}
	p.deathEvents.Add(ctx, int64(count))
}

// StartSpan starts a pipeline span. Callers must End the returned span.
func (p *OTelProviders) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if p == nil || p.Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan ends a span, recording the error if one occurred.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Shutdown flushes and stops the providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var firstErr error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
