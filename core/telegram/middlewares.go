package telegram

import (
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	"github.com/m3rciful/coursebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared middleware chain: panic recovery,
// per-user rate limiting, update logging and, when meter is set, metrics.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited func(tele.Context) error, meter metric.Meter) ([]Middleware, error) {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	if cfg != nil {
		interval := time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
		if interval > 0 {
			ex := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
			for _, t := range cfg.RateLimit.ExcludeUpdates {
				ex[strings.ToLower(t)] = struct{}{}
			}
			mws = append(mws, Middleware{
				Name: "rate_limit",
				Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
					Interval:  interval,
					Exclude:   ex,
					OnLimited: onLimited,
				}),
			})
		}
	}

	mws = append(mws, Middleware{Name: "logger", Use: middleware.LoggerMiddleware})

	if meter != nil {
		mw, err := middleware.UpdateMetricsMiddleware(meter)
		if err != nil {
			return nil, err
		}
		mws = append(mws, Middleware{Name: "metrics", Use: mw})
	}
	return mws, nil
}
