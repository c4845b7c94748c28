package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

func newBot(t *testing.T) *tele.Bot {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{Offline: true})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return bot
}

func messageUpdate(id int, userID int64) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		Text:   "hello",
	}}
}

func callbackUpdate(id int, userID int64) tele.Update {
	return tele.Update{ID: id, Callback: &tele.Callback{
		Sender:  &tele.User{ID: userID},
		Data:    "program",
		Message: &tele.Message{ID: 10, Chat: &tele.Chat{ID: userID}},
	}}
}

func TestRateLimitMiddleware(t *testing.T) {
	bot := newBot(t)
	now := time.Unix(1_700_000_000, 0)
	var limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Exclude:   map[string]struct{}{"callback": {}},
		OnLimited: func(tele.Context) error { limited++; return nil },
		now:       func() time.Time { return now },
	})
	var handled int
	h := mw(func(tele.Context) error { handled++; return nil })

	_ = h(bot.NewContext(messageUpdate(1, 7)))
	_ = h(bot.NewContext(messageUpdate(2, 7)))
	_ = h(bot.NewContext(messageUpdate(3, 8)))
	if handled != 2 || limited != 1 {
		t.Fatalf("handled=%d limited=%d, want 2 and 1", handled, limited)
	}

	_ = h(bot.NewContext(callbackUpdate(4, 7)))
	if handled != 3 {
		t.Fatalf("excluded callback should pass, handled=%d", handled)
	}

	now = now.Add(2 * time.Second)
	_ = h(bot.NewContext(messageUpdate(5, 7)))
	if handled != 4 {
		t.Fatalf("update after interval should pass, handled=%d", handled)
	}
}

func TestRecoverMiddleware(t *testing.T) {
	bot := newBot(t)
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	if err := h(bot.NewContext(messageUpdate(1, 7))); err != nil {
		t.Fatalf("recovered panic should yield nil, got %v", err)
	}

	want := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return want })
	if err := h(bot.NewContext(messageUpdate(2, 7))); !errors.Is(err, want) {
		t.Fatalf("errors must pass through, got %v", err)
	}
}

func TestLoggerMiddlewareStoresRID(t *testing.T) {
	bot := newBot(t)
	c := bot.NewContext(callbackUpdate(42, 7))
	h := LoggerMiddleware(func(c tele.Context) error {
		if rid, _ := c.Get("rid").(string); rid == "" {
			t.Fatalf("rid not stored")
		}
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
}

func TestUpdateMetricsMiddleware(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	mw, err := UpdateMetricsMiddleware(mp.Meter("test"))
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	bot := newBot(t)
	_ = mw(func(tele.Context) error { return nil })(bot.NewContext(messageUpdate(1, 7)))
	_ = mw(func(tele.Context) error { return errors.New("x") })(bot.NewContext(callbackUpdate(2, 7)))
	// routes log their own failures and hand nil back to telebot
	_ = mw(func(c tele.Context) error {
		tghelpers.SetStatus(c, "fail")
		return nil
	})(bot.NewContext(callbackUpdate(3, 7)))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	byStatus := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "tg_updates_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				byStatus[status.AsString()] += dp.Value
			}
		}
	}
	if byStatus["ok"] != 1 || byStatus["fail"] != 2 {
		t.Fatalf("tg_updates_total by status = %v, want ok=1 fail=2", byStatus)
	}
}
