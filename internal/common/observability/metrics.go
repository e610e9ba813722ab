package observability

import (
	"context"
	"time"

	"loan-console/internal/common/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the meter and tracer used around backend calls.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerShutdown func(context.Context) error
	meter          otelmetric.Meter
	tracer         trace.Tracer
	callCounter    otelmetric.Int64Counter
	callDuration   otelmetric.Float64Histogram
}

// New wires the otel meter provider to the Prometheus exporter and, when
// jaegerEndpoint is set, a Jaeger trace exporter.
func New(serviceName, jaegerEndpoint string, log logger.Logger) *Observability {
	o := &Observability{tracerShutdown: func(context.Context) error { return nil }}

	tp, err := newTracerProvider(serviceName, jaegerEndpoint)
	if err != nil {
		log.Warn("tracing disabled", map[string]interface{}{"error": err})
	} else if tp != nil {
		otel.SetTracerProvider(tp)
		o.tracerShutdown = tp.Shutdown
	}
	o.tracer = otel.Tracer(serviceName)

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create Prometheus exporter", map[string]interface{}{"error": err})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	callCounter, _ := meter.Int64Counter(
		"gateway.calls",
		otelmetric.WithDescription("Number of backend calls"),
	)

	callDuration, _ := meter.Float64Histogram(
		"gateway.duration",
		otelmetric.WithDescription("Backend call duration"),
		otelmetric.WithUnit("ms"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.callCounter = callCounter
	o.callDuration = callDuration
	return o
}

// Tracer returns the tracer for gateway spans. It is never nil.
func (o *Observability) Tracer() trace.Tracer {
	if o == nil || o.tracer == nil {
		return otel.Tracer("loan-console")
	}
	return o.tracer
}

func (o *Observability) RecordCall(ctx context.Context, endpoint string, duration time.Duration, outcome string) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	)
	if o.callCounter != nil {
		o.callCounter.Add(ctx, 1, attrs)
	}
	if o.callDuration != nil {
		o.callDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	_ = o.tracerShutdown(ctx)
}
