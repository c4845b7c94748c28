package dialogue

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type engineMetrics struct {
	events           metric.Int64Counter
	duration         metric.Float64Histogram
	deliveryFailures metric.Int64Counter
	storeErrors      metric.Int64Counter
	unknownState     metric.Int64Counter
}

func newEngineMetrics(meter metric.Meter) (*engineMetrics, error) {
	m := &engineMetrics{}
	var err error

	m.events, err = meter.Int64Counter(
		"dialogue_events_total",
		metric.WithDescription("Inbound events processed by the dialogue engine"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.duration, err = meter.Float64Histogram(
		"dialogue_event_duration_seconds",
		metric.WithDescription("Time spent processing one inbound event"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.deliveryFailures, err = meter.Int64Counter(
		"dialogue_delivery_failures_total",
		metric.WithDescription("Outbound operations rejected by the transport"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.storeErrors, err = meter.Int64Counter(
		"dialogue_store_errors_total",
		metric.WithDescription("Failed session store reads and writes"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	m.unknownState, err = meter.Int64Counter(
		"dialogue_unknown_state_total",
		metric.WithDescription("Events dropped because the stored state label was not recognised"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *engineMetrics) observe(ctx context.Context, state, outcome string, took time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("state", state),
		attribute.String("outcome", outcome),
	)
	m.events.Add(ctx, 1, attrs)
	m.duration.Record(ctx, took.Seconds(), attrs)
}

func (m *engineMetrics) deliveryFailed(ctx context.Context, op OpKind) {
	m.deliveryFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op.String())))
}

func (m *engineMetrics) storeFailed(ctx context.Context, op string) {
	m.storeErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
