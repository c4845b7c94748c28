package middleware

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/m3rciful/coursebot/core/logger"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// UpdateMetricsMiddleware counts inbound updates by kind and handler status
// and records their handling time. The status is the one the route recorded,
// falling back to the error returned down the chain.
func UpdateMetricsMiddleware(meter metric.Meter) (tele.MiddlewareFunc, error) {
	updates, err := meter.Int64Counter(
		"tg_updates_total",
		metric.WithDescription("Inbound Telegram updates by kind and status"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"tg_update_duration_seconds",
		metric.WithDescription("Time spent in the handler chain per update"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()
			err := next(c)
			ctx := tghelpers.BuildContext(c)
			kind := attribute.String("kind", updateKind(c.Update()))
			status := tghelpers.StatusFrom(c)
			if status == "" {
				status = logger.Status(err)
			}
			updates.Add(ctx, 1, metric.WithAttributes(kind, attribute.String("status", status)))
			duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(kind))
			return err
		}
	}, nil
}
