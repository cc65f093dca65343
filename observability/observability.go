// Package observability provides OTEL-based tracing, metrics, and logging
// for catalogmatch's warmup and search operations. Configuration comes from
// standard OTEL env vars (OTEL_EXPORTER_OTLP_ENDPOINT and friends); Init
// wires OTLP HTTP exporters for traces, metrics, and logs.
package observability

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/nevindra/catalogmatch"
)

const scopeName = "github.com/nevindra/catalogmatch/observability"

// Instruments holds the OTEL instruments catalogmatch's warmup and search
// paths record against.
type Instruments struct {
	Tracer trace.Tracer
	Meter  metric.Meter
	Logger otellog.Logger

	WarmupCount    metric.Int64Counter
	WarmupDuration metric.Float64Histogram
	WarmupItems    metric.Int64Histogram

	SearchRequests     metric.Int64Counter
	SearchDuration     metric.Float64Histogram
	FuzzyFallbackCount metric.Int64Counter

	CatalogsLoaded metric.Int64UpDownCounter
}

// Init sets up OTEL trace, metric, and log providers with OTLP HTTP
// exporters. Returns a shutdown function that must be called on
// application exit.
func Init(ctx context.Context, serviceName string) (*Instruments, func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, nil, err
	}

	traceExp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricExp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logExp, err := otlploghttp.New(ctx)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, nil, err
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)

	inst, err := newInstruments()
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		_ = lp.Shutdown(ctx)
		return nil, nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx), lp.Shutdown(ctx))
	}
	return inst, shutdown, nil
}

func newInstruments() (*Instruments, error) {
	tracer := otel.Tracer(scopeName)
	meter := otel.Meter(scopeName)
	logger := global.GetLoggerProvider().Logger(scopeName)

	warmupCount, err := meter.Int64Counter("catalogmatch.warmup.count",
		metric.WithDescription("Catalog warmup invocations"), metric.WithUnit("{warmup}"))
	if err != nil {
		return nil, err
	}
	warmupDuration, err := meter.Float64Histogram("catalogmatch.warmup.duration",
		metric.WithDescription("Catalog warmup duration"), metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	warmupItems, err := meter.Int64Histogram("catalogmatch.warmup.items",
		metric.WithDescription("Items indexed per warmup"), metric.WithUnit("{item}"))
	if err != nil {
		return nil, err
	}
	searchRequests, err := meter.Int64Counter("catalogmatch.search.requests",
		metric.WithDescription("Search requests"), metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	searchDuration, err := meter.Float64Histogram("catalogmatch.search.duration",
		metric.WithDescription("Search duration"), metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	fuzzyFallbackCount, err := meter.Int64Counter("catalogmatch.search.fuzzy_fallback",
		metric.WithDescription("Searches resolved via fuzzy fallback instead of the threshold gate"), metric.WithUnit("{search}"))
	if err != nil {
		return nil, err
	}
	catalogsLoaded, err := meter.Int64UpDownCounter("catalogmatch.catalogs.loaded",
		metric.WithDescription("Currently warmed catalog count"), metric.WithUnit("{catalog}"))
	if err != nil {
		return nil, err
	}

	return &Instruments{
		Tracer:             tracer,
		Meter:              meter,
		Logger:             logger,
		WarmupCount:        warmupCount,
		WarmupDuration:     warmupDuration,
		WarmupItems:        warmupItems,
		SearchRequests:     searchRequests,
		SearchDuration:     searchDuration,
		FuzzyFallbackCount: fuzzyFallbackCount,
		CatalogsLoaded:     catalogsLoaded,
	}, nil
}

// otelTracer implements catalogmatch.Tracer using OpenTelemetry.
type otelTracer struct {
	inner trace.Tracer
}

// NewTracer returns a catalogmatch.Tracer backed by the global OTEL
// TracerProvider. Call Init first to configure the provider; otherwise
// spans go to a no-op backend.
func NewTracer() catalogmatch.Tracer {
	return &otelTracer{inner: otel.Tracer(scopeName)}
}

func (t *otelTracer) Start(ctx context.Context, name string, attrs ...catalogmatch.SpanAttr) (context.Context, catalogmatch.Span) {
	otelAttrs := make([]attribute.KeyValue, len(attrs))
	for i, a := range attrs {
		otelAttrs[i] = toOTELAttr(a)
	}
	ctx, span := t.inner.Start(ctx, name, trace.WithAttributes(otelAttrs...))
	return ctx, &otelSpan{inner: span}
}

type otelSpan struct {
	inner trace.Span
}

func (s *otelSpan) SetAttr(attrs ...catalogmatch.SpanAttr) {
	otelAttrs := make([]attribute.KeyValue, len(attrs))
	for i, a := range attrs {
		otelAttrs[i] = toOTELAttr(a)
	}
	s.inner.SetAttributes(otelAttrs...)
}

func (s *otelSpan) Event(name string, attrs ...catalogmatch.SpanAttr) {
	otelAttrs := make([]attribute.KeyValue, len(attrs))
	for i, a := range attrs {
		otelAttrs[i] = toOTELAttr(a)
	}
	s.inner.AddEvent(name, trace.WithAttributes(otelAttrs...))
}

func (s *otelSpan) Error(err error) {
	s.inner.RecordError(err)
	s.inner.SetStatus(codes.Error, err.Error())
}

func (s *otelSpan) End() {
	s.inner.End()
}

func toOTELAttr(a catalogmatch.SpanAttr) attribute.KeyValue {
	switch v := a.Value.(type) {
	case string:
		return attribute.String(a.Key, v)
	case int:
		return attribute.Int(a.Key, v)
	case int64:
		return attribute.Int64(a.Key, v)
	case float64:
		return attribute.Float64(a.Key, v)
	case bool:
		return attribute.Bool(a.Key, v)
	default:
		return attribute.String(a.Key, fmt.Sprintf("%v", v))
	}
}

var (
	_ catalogmatch.Tracer = (*otelTracer)(nil)
	_ catalogmatch.Span   = (*otelSpan)(nil)
)
