package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/carepoint-health/appointments/backend"

// Metrics holds all application metrics
type Metrics struct {
	RequestCount     metric.Int64Counter
	RequestDuration  metric.Float64Histogram
	BookingsCreated  metric.Int64Counter
	BookingConflicts metric.Int64Counter
	CacheHitCount    metric.Int64Counter
	CacheMissCount   metric.Int64Counter
}

// Setup initializes OpenTelemetry
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdown := func(ctx context.Context) error {
		return tracerProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(scopeName)

	requestCount, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	bookingsCreated, err := meter.Int64Counter(
		"booking.created.count",
		metric.WithDescription("Number of bookings committed to the ledger"),
	)
	if err != nil {
		return nil, err
	}

	bookingConflicts, err := meter.Int64Counter(
		"booking.conflict.count",
		metric.WithDescription("Number of booking attempts rejected by quota or occupancy"),
	)
	if err != nil {
		return nil, err
	}

	cacheHitCount, err := meter.Int64Counter(
		"cache.hit.count",
		metric.WithDescription("Number of cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMissCount, err := meter.Int64Counter(
		"cache.miss.count",
		metric.WithDescription("Number of cache misses"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:     requestCount,
		RequestDuration:  requestDuration,
		BookingsCreated:  bookingsCreated,
		BookingConflicts: bookingConflicts,
		CacheHitCount:    cacheHitCount,
		CacheMissCount:   cacheMissCount,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(scopeName)
	return tracer.Start(ctx, spanName)
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records a request metric with attributes
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordBookingCreated counts a committed booking
func RecordBookingCreated(ctx context.Context, metrics *Metrics, doctorID string) {
	if metrics == nil {
		return
	}
	metrics.BookingsCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("doctor.id", doctorID),
	))
}

// RecordBookingConflict counts a rejected booking attempt
func RecordBookingConflict(ctx context.Context, metrics *Metrics, code string) {
	if metrics == nil {
		return
	}
	metrics.BookingConflicts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("conflict.code", code),
	))
}

// RecordCacheHit records a cache hit
func RecordCacheHit(ctx context.Context, metrics *Metrics, key string) {
	if metrics == nil {
		return
	}
	metrics.CacheHitCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.key", key),
	))
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(ctx context.Context, metrics *Metrics, key string) {
	if metrics == nil {
		return
	}
	metrics.CacheMissCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.key", key),
	))
}
