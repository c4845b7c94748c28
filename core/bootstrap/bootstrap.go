// Package bootstrap initialises logging, observability and the session store.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	coredatabase "github.com/m3rciful/coursebot/core/database"
	"github.com/m3rciful/coursebot/core/logger"
	"github.com/m3rciful/coursebot/core/observability"
	"github.com/m3rciful/coursebot/core/session"
)

const dbReadyTimeout = 30 * time.Second

// Options control the bootstrap pipeline. Function fields default to the
// real implementations and exist so tests can stub infrastructure.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	ServiceName    string
	ServiceVersion string

	LoggerInit   func(*coreconfig.Config) error
	ConnectRedis func(context.Context, coreconfig.RedisConfig) (*redis.Client, error)
	ConnectDB    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate      func(context.Context, coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	Store         session.Store
	Observability *observability.Observability
	Health        *observability.HealthServer
}

// Run initializes the logger, observability and the configured session store.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	obs, err := observability.New(ctx, observability.FromCore(cfg.Observability, opts.ServiceName, opts.ServiceVersion))
	if err != nil {
		return nil, fmt.Errorf("bootstrap: observability init failed: %w", err)
	}
	res := &Result{Observability: obs}

	store, err := OpenStore(ctx, opts)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("bootstrap: session store init failed: %w", err)
	}
	res.Store = store

	if cfg.Observability.Listen != "" {
		hs := observability.NewHealthServer(cfg.Observability.Listen, opts.ServiceVersion, obs.Registry)
		hs.AddCheck("session_store", store.Ping)
		if err := hs.Start(ctx); err != nil {
			_ = res.Close(ctx)
			return nil, fmt.Errorf("bootstrap: health server failed: %w", err)
		}
		res.Health = hs
	}
	return res, nil
}

// OpenStore connects the backend selected by session.backend.
func OpenStore(ctx context.Context, opts Options) (session.Store, error) {
	cfg := opts.Config
	backend := cfg.Session.Backend
	var (
		store session.Store
		err   error
	)
	switch backend {
	case coreconfig.BackendRedis:
		store, err = openRedis(ctx, opts)
	case coreconfig.BackendPostgres:
		store, err = openPostgres(ctx, opts)
	case coreconfig.BackendMemory:
		store = session.NewMemoryStore()
	default:
		err = fmt.Errorf("unknown session backend %q", backend)
	}
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if backend == coreconfig.BackendMemory {
		// State is lost on restart.
		level = slog.LevelWarn
	}
	logger.LogEvent(ctx, logger.Session, level, "session.store",
		slog.String("status", "ok"),
		slog.String("backend", backend),
		slog.Int("ttl_seconds", cfg.Session.TTLSeconds),
	)
	return store, nil
}

func openRedis(ctx context.Context, opts Options) (session.Store, error) {
	connect := opts.ConnectRedis
	if connect == nil {
		connect = session.ConnectRedis
	}
	client, err := connect(ctx, opts.Config.Redis)
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(opts.Config.Session.TTLSeconds) * time.Second
	return session.NewRedisStore(client, ttl), nil
}

func openPostgres(ctx context.Context, opts Options) (session.Store, error) {
	connect := opts.ConnectDB
	if connect == nil {
		connect = coredatabase.Connect
	}
	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}

	db, err := connect(ctx, opts.Database)
	if err != nil {
		return nil, err
	}
	if err := coredatabase.WaitReady(ctx, db, dbReadyTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, opts.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return session.NewPostgresStore(db), nil
}

// Close releases everything Run created, newest first.
func (r *Result) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Health != nil {
		errs = append(errs, r.Health.Shutdown(ctx))
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	errs = append(errs, r.Observability.Shutdown(ctx))
	return errors.Join(errs...)
}
