package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/coursebot/core/telegram"
	"github.com/m3rciful/coursebot/core/telegram/callbacks"
	"github.com/m3rciful/coursebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute answers every button press and hands it to handler.
// Buttons carry bare payloads, so telebot delivers all of them to OnCallback.
func CallbackRoute(handler tele.HandlerFunc) tg.Route {
	h := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}
		payload := callbacks.Payload(c)
		// Stop the client's loading spinner before the slower send.
		_ = c.Respond()

		if handler == nil {
			logHandlerSummary(c, "callback", start, "skip", nil, slog.String("cb_key", payload))
			return nil
		}
		return handleWithSummary(c, "callback", start, func() error {
			return handler(c)
		}, slog.String("cb_key", payload))
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(h)),
	}
}
