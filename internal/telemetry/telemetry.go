package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultServiceName  = "vehicle-catalog"
	ServiceVersion      = "1.0.0"
	DefaultOTLPEndpoint = "http://localhost:4318"
)

// Exporter constructors, replaced in tests.
var (
	newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(endpoint+"/v1/traces"))
	}
	newMetricExporter = func(ctx context.Context, endpoint string) (sdkmetric.Exporter, error) {
		return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(endpoint+"/v1/metrics"))
	}
	newLogExporter = func(ctx context.Context, endpoint string) (sdklog.Exporter, error) {
		return otlploghttp.New(ctx, otlploghttp.WithEndpointURL(endpoint+"/v1/logs"))
	}
)

type Config struct {
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	// Export enables the OTLP/HTTP exporters. Without it spans, metrics and
	// logs are produced but never leave the process.
	Export bool
}

type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider
	tracer         trace.Tracer
	meter          metric.Meter
	serviceName    string
}

func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}
	if cfg.OTLPEndpoint == "" {
		cfg.OTLPEndpoint = DefaultOTLPEndpoint
	}

	resAttrs := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithFromEnv(),
	}

	res, err := resource.New(ctx, resAttrs...)
	if err != nil {
		return nil, err
	}

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	metricOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	logOpts := []sdklog.LoggerProviderOption{sdklog.WithResource(res)}

	if cfg.Export {
		endpoint := strings.TrimSuffix(cfg.OTLPEndpoint, "/")

		traceExporter, err := newTraceExporter(ctx, endpoint)
		if err != nil {
			return nil, err
		}

		metricExporter, err := newMetricExporter(ctx, endpoint)
		if err != nil {
			return nil, errors.Join(err, traceExporter.Shutdown(ctx))
		}

		logExporter, err := newLogExporter(ctx, endpoint)
		if err != nil {
			return nil, errors.Join(err,
				traceExporter.Shutdown(ctx),
				metricExporter.Shutdown(ctx),
			)
		}

		traceOpts = append(traceOpts, sdktrace.WithBatcher(traceExporter))
		metricOpts = append(metricOpts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(5*time.Second)),
		))
		logOpts = append(logOpts, sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)))
	}

	p := NewWithProviders(cfg.ServiceName,
		sdktrace.NewTracerProvider(traceOpts...),
		sdkmetric.NewMeterProvider(metricOpts...),
		sdklog.NewLoggerProvider(logOpts...),
	)
	p.setGlobal()

	return p, nil
}

// NewWithProviders wraps already configured SDK providers. Tests use it with
// an in-memory span recorder and a manual metric reader. Any nil provider is
// replaced by one that records nothing.
func NewWithProviders(serviceName string, tp *sdktrace.TracerProvider, mp *sdkmetric.MeterProvider, lp *sdklog.LoggerProvider) *Provider {
	if tp == nil {
		tp = sdktrace.NewTracerProvider()
	}
	if mp == nil {
		mp = sdkmetric.NewMeterProvider()
	}
	if lp == nil {
		lp = sdklog.NewLoggerProvider()
	}

	return &Provider{
		tracerProvider: tp,
		meterProvider:  mp,
		loggerProvider: lp,
		tracer:         tp.Tracer(serviceName),
		meter:          mp.Meter(serviceName),
		serviceName:    serviceName,
	}
}

func (p *Provider) setGlobal() {
	otel.SetTracerProvider(p.tracerProvider)
	otel.SetMeterProvider(p.meterProvider)
	global.SetLoggerProvider(p.loggerProvider)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

func (p *Provider) Meter() metric.Meter {
	return p.meter
}

func (p *Provider) LoggerProvider() otellog.LoggerProvider {
	return p.loggerProvider
}

func (p *Provider) ServiceName() string {
	return p.serviceName
}

func (p *Provider) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.tracerProvider.Shutdown(ctx),
		p.meterProvider.Shutdown(ctx),
		p.loggerProvider.Shutdown(ctx),
	)
}
