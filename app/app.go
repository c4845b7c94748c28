// Package app wires the course dialogue to Telegram: configuration, the
// Bot API transport, update routing and process lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/m3rciful/coursebot/content"
	"github.com/m3rciful/coursebot/core/bootstrap"
	"github.com/m3rciful/coursebot/core/buildinfo"
	corecmd "github.com/m3rciful/coursebot/core/cmd"
	"github.com/m3rciful/coursebot/core/logger"
	coretelegram "github.com/m3rciful/coursebot/core/telegram"
	"github.com/m3rciful/coursebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/coursebot/core/telegram/helpers"
	"github.com/m3rciful/coursebot/core/telegram/router"
	tgsender "github.com/m3rciful/coursebot/core/telegram/sender"
	"github.com/m3rciful/coursebot/dialogue"

	tele "gopkg.in/telebot.v4"
)

// Deps are the collaborators New assembles the app from.
type Deps struct {
	Store   dialogue.KV
	Content dialogue.Content
	// Bot is the telebot instance routes are registered on.
	Bot *tele.Bot
	// API performs Bot API calls; defaults to Bot.
	API    botAPI
	Meter  metric.Meter
	Tracer trace.Tracer
}

// App holds the wired dialogue engine and Telegram runtime pieces.
type App struct {
	cfg        *Config
	bot        *tele.Bot
	engine     *dialogue.Engine
	dispatcher *tgsender.Dispatcher
	registry   *coretelegram.Registry
	meter      metric.Meter
	infra      *bootstrap.Result
}

// New builds the engine and command registry around deps.
func New(cfg *Config, deps Deps) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if deps.Bot == nil {
		return nil, errors.New("app: nil bot")
	}
	api := deps.API
	if api == nil {
		api = deps.Bot
	}

	dispatcher := tgsender.NewDispatcher(cfg.DispatcherOptions())
	store := dialogue.NewKeyedStore(deps.Store, cfg.Session.KeyFormat)
	engine, err := dialogue.NewEngine(store, NewTransport(api, dispatcher), deps.Content, dialogue.Options{
		StoreTimeout:    time.Duration(cfg.Session.StoreTimeoutMS) * time.Millisecond,
		DeliveryTimeout: time.Duration(cfg.Session.DeliveryTimeoutMS) * time.Millisecond,
		LegacyAliases:   cfg.Session.LegacyAliases,
		Tracer:          deps.Tracer,
		Meter:           deps.Meter,
	})
	if err != nil {
		dispatcher.Close()
		return nil, fmt.Errorf("app: engine: %w", err)
	}

	a := &App{
		cfg:        cfg,
		bot:        deps.Bot,
		engine:     engine,
		dispatcher: dispatcher,
		registry:   coretelegram.NewRegistry(),
		meter:      deps.Meter,
	}
	a.registry.RegisterCommand(dialogue.ResetCommand, commands.Command{
		Handler:     a.handleStart,
		Description: "Главное меню",
	})
	a.registry.SetTextFallback(a.handleUpdate)
	return a, nil
}

// Bootstrap implements cmd.Options.Bootstrap: it brings up logging,
// observability and the session store, loads the course content and
// creates the bot.
func Bootstrap(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", carrier)
	}

	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:         &cfg.Config,
		Database:       cfg.Database,
		ServiceName:    buildinfo.ServiceName,
		ServiceVersion: buildinfo.Version,
	})
	if err != nil {
		return nil, err
	}

	a, err := assemble(cfg, infra)
	if err != nil {
		_ = infra.Close(ctx)
		return nil, err
	}
	return a, nil
}

func assemble(cfg *Config, infra *bootstrap.Result) (*App, error) {
	catalog, err := loadContent(cfg.Content.Dir)
	if err != nil {
		return nil, err
	}
	bot, err := coretelegram.NewBot(&cfg.Config)
	if err != nil {
		return nil, err
	}
	a, err := New(cfg, Deps{
		Store:   infra.Store,
		Content: catalog,
		Bot:     bot,
		Meter:   infra.Observability.Meter,
		Tracer:  infra.Observability.Tracer,
	})
	if err != nil {
		return nil, err
	}
	a.infra = infra
	return a, nil
}

func loadContent(dir string) (*content.Catalog, error) {
	if dir == "" {
		return content.Default()
	}
	return content.Load(dir)
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	mws, err := coretelegram.DefaultMiddlewares(&a.cfg.Config, nil, a.meter)
	if err != nil {
		return coretelegram.RunOptions{}, fmt.Errorf("app: middlewares: %w", err)
	}

	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.TextRoutes(a.registry, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(a.handleUpdate))

	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Bot:         a.bot,
		Dispatcher:  a.dispatcher,
		Middlewares: mws,
		Routes:      routes,
	}, nil
}

// Close releases the infrastructure created by Bootstrap.
func (a *App) Close(ctx context.Context) error {
	if a.infra == nil {
		return nil
	}
	return a.infra.Close(ctx)
}

// handleStart restarts the dialogue. Deep-link arguments are ignored.
func (a *App) handleStart(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	return a.process(c, dialogue.TextMessage(chat.ID, dialogue.ResetCommand))
}

// handleUpdate feeds free text and button presses to the engine.
func (a *App) handleUpdate(c tele.Context) error {
	ev, ok := EventFrom(c)
	if !ok {
		logger.Debug(tghelpers.BuildContext(c), "app", "update.skip", slog.String("cause", "no_event"))
		return nil
	}
	return a.process(c, ev)
}

func (a *App) process(c tele.Context, ev dialogue.Event) error {
	return a.engine.Process(tghelpers.BuildContext(c), ev.ChatID, ev)
}
