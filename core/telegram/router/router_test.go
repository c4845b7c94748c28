package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	tg "github.com/m3rciful/coursebot/core/telegram"
	"github.com/m3rciful/coursebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type offlineTransport struct{}

func (offlineTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("offline")
}

func newBot(t *testing.T) *tele.Bot {
	t.Helper()
	bot, err := tele.NewBot(tele.Settings{
		Offline: true,
		Client:  &http.Client{Transport: offlineTransport{}},
	})
	if err != nil {
		t.Fatalf("bot: %v", err)
	}
	return bot
}

func textUpdate(id int, text string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		Sender: &tele.User{ID: 5},
		Chat:   &tele.Chat{ID: 5, Type: tele.ChatPrivate},
		Text:   text,
	}}
}

func TestCallbackRoutePassesPayload(t *testing.T) {
	bot := newBot(t)
	var got string
	route := CallbackRoute(func(c tele.Context) error {
		got = c.Callback().Data
		return errors.New("boom")
	})
	if route.Endpoint != tele.OnCallback {
		t.Fatalf("endpoint = %v", route.Endpoint)
	}
	upd := tele.Update{ID: 3, Callback: &tele.Callback{
		ID:      "cb-1",
		Sender:  &tele.User{ID: 5},
		Data:    "lesson_2",
		Message: &tele.Message{ID: 40, Chat: &tele.Chat{ID: 5}},
	}}
	c := bot.NewContext(upd)
	if err := route.Handler(c); err != nil {
		t.Fatalf("route must swallow handler errors, got %v", err)
	}
	if got != "lesson_2" {
		t.Fatalf("payload = %q", got)
	}
	if status := tghelpers.StatusFrom(c); status != "fail" {
		t.Fatalf("recorded status = %q, want fail", status)
	}
}

func TestTextRoutes(t *testing.T) {
	bot := newBot(t)
	var cmdCalls, fallbackCalls int
	reg := tg.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     func(tele.Context) error { cmdCalls++; return nil },
		Description: "menu",
	})
	reg.SetTextFallback(func(tele.Context) error { fallbackCalls++; return nil })

	routes := TextRoutes(reg, TextOptions{})
	if len(routes) != 1 || routes[0].Endpoint != tele.OnText {
		t.Fatalf("routes = %+v", routes)
	}
	h := routes[0].Handler
	for i, text := range []string{"/start", "/start@other_bot", "start", "Программа"} {
		_ = h(bot.NewContext(textUpdate(100+i, text)))
	}
	if cmdCalls != 2 || fallbackCalls != 2 {
		t.Fatalf("commands=%d fallback=%d, want 2 and 2", cmdCalls, fallbackCalls)
	}
}

func TestCommandRoutes(t *testing.T) {
	reg := tg.NewRegistry()
	for _, name := range []string{"/start", "/about"} {
		reg.RegisterCommand(name, commands.Command{
			Handler:     func(tele.Context) error { return nil },
			Description: name,
		})
	}
	routes := CommandRoutes(reg)
	endpoints := map[any]bool{}
	for _, r := range routes {
		endpoints[r.Endpoint] = true
	}
	if len(routes) != 2 || !endpoints["/start"] || !endpoints["/about"] {
		t.Fatalf("routes = %v", endpoints)
	}
}

type leveled struct{ level slog.Level }

func (l leveled) Error() string        { return "leveled" }
func (l leveled) Code() string         { return "unknown state" }
func (l leveled) LogLevel() slog.Level { return l.level }

func TestErrorClassification(t *testing.T) {
	joined := errors.Join(errors.New("plain"), fmt.Errorf("wrap: %w", leveled{slog.LevelWarn}))
	if got := errorLevel(joined); got != slog.LevelWarn {
		t.Fatalf("level = %v, want warn", got)
	}
	if got := deriveErrorCode(joined); got != "UNKNOWN_STATE" {
		t.Fatalf("code = %q", got)
	}
	if got := errorLevel(errors.New("plain")); got != slog.LevelError {
		t.Fatalf("plain level = %v", got)
	}
	if got := deriveErrorCode(errors.New("plain")); got != "ERRORSTRING" {
		t.Fatalf("plain code = %q", got)
	}
}
