// Package helpers bridges telebot contexts and the request-scoped context.Context
// used by services and the logger.
package helpers

import (
	"context"

	"github.com/m3rciful/coursebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	ctxKey    = "logger_ctx"
	statusKey = "handler_status"
	// RIDKey stores the update correlation id on tele.Context.
	RIDKey = "rid"
)

// StoreContext attaches ctx to c for downstream handlers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(ctxKey, ctx)
}

// ContextFrom returns the context stored by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// Meta returns the update, chat and sender ids of c (zero when absent).
func Meta(c tele.Context) (updateID int, chatID, userID int64) {
	updateID = c.Update().ID
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	return updateID, chatID, userID
}

// BuildContext returns the stored request context or derives one carrying
// the rid and update metadata.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	updateID, chatID, userID := Meta(c)
	rid, _ := c.Get(RIDKey).(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
		c.Set(RIDKey, rid)
	}

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	StoreContext(c, ctx)
	return ctx
}

// WithHandler records the handler name on the request context.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}

// SetStatus records the outcome a route reported for the update. Routes
// swallow handler errors, so middleware reads the status from here.
func SetStatus(c tele.Context, status string) {
	if c == nil || status == "" {
		return
	}
	c.Set(statusKey, status)
}

// StatusFrom returns the status recorded by SetStatus.
func StatusFrom(c tele.Context) string {
	if c == nil {
		return ""
	}
	status, _ := c.Get(statusKey).(string)
	return status
}
