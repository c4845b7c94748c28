package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/coursebot/core/logger"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds ("callback", "message") that bypass the limit.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	now       func() time.Time
}

// RateLimitMiddleware drops updates arriving from the same user faster than
// Interval. It also absorbs accidental double taps on menu buttons.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.now == nil {
		opts.now = time.Now
	}
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
		sweepAt  time.Time
	)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}

			now := opts.now()
			mu.Lock()
			if now.After(sweepAt) {
				for id, ts := range lastSeen {
					if now.Sub(ts) >= opts.Interval {
						delete(lastSeen, id)
					}
				}
				sweepAt = now.Add(time.Minute)
			}
			last, seen := lastSeen[user.ID]
			limited := seen && now.Sub(last) < opts.Interval
			if !limited {
				lastSeen[user.ID] = now
			}
			mu.Unlock()

			if !limited {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			logger.Warn(ctx, "tg", "tg.rate_limit",
				slog.String("outcome", "rate_limited"),
				slog.String("op", updateKind(c.Update())),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
