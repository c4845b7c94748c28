package dialogue

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/m3rciful/coursebot/content"
)

func sumCounter(t *testing.T, rm metricdata.ResourceMetrics, name string, match attribute.KeyValue) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, want Sum[int64]", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				if match.Key != "" {
					if v, ok := dp.Attributes.Value(match.Key); !ok || v != match.Value {
						continue
					}
				}
				total += dp.Value
			}
		}
	}
	return total
}

func TestEngineRecordsMetricsAndSpans(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
		_ = tp.Shutdown(context.Background())
	})

	cat, err := content.Default()
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	kv := newFakeKV()
	tr := &fakeTransport{}
	eng, err := NewEngine(NewKeyedStore(kv, "tg_user_%d_state"), tr, cat, Options{
		Meter:  mp.Meter("test"),
		Tracer: tp.Tracer("test"),
	})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	ctx := context.Background()
	_ = eng.Process(ctx, chatID, TextMessage(chatID, ResetCommand))
	kv.seed("CORRUPT")
	_ = eng.Process(ctx, chatID, ButtonClick(chatID, 1, TokenProgram))
	kv.seed(StateMenu.String())
	tr.err = context.DeadlineExceeded
	_ = eng.Process(ctx, chatID, ButtonClick(chatID, 1, TokenProgram))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got := sumCounter(t, rm, "dialogue_events_total", attribute.KeyValue{}); got != 3 {
		t.Fatalf("dialogue_events_total = %d, want 3", got)
	}
	if got := sumCounter(t, rm, "dialogue_events_total", attribute.String("outcome", OutcomeOK)); got != 1 {
		t.Fatalf("ok events = %d, want 1", got)
	}
	if got := sumCounter(t, rm, "dialogue_unknown_state_total", attribute.KeyValue{}); got != 1 {
		t.Fatalf("dialogue_unknown_state_total = %d, want 1", got)
	}
	if got := sumCounter(t, rm, "dialogue_delivery_failures_total", attribute.String("op", "send")); got != 1 {
		t.Fatalf("dialogue_delivery_failures_total = %d, want 1", got)
	}

	spans := recorder.Ended()
	if len(spans) != 3 {
		t.Fatalf("ended spans = %d, want 3", len(spans))
	}
	for _, s := range spans {
		if s.Name() != "dialogue.process" {
			t.Fatalf("span name = %s", s.Name())
		}
	}
	var outcome string
	for _, kv := range spans[1].Attributes() {
		if kv.Key == "dialogue.outcome" {
			outcome = kv.Value.AsString()
		}
	}
	if outcome != OutcomeUnknownState {
		t.Fatalf("second span outcome = %q", outcome)
	}
}
