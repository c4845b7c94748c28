package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	coretelegram "github.com/m3rciful/coursebot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *fakeApp) Close(context.Context) error {
	a.closed = true
	return nil
}

func TestRunWiresLifecycle(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("COURSEBOT_RUNNER_TEST=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("COURSEBOT_RUNNER_TEST", "")
	os.Unsetenv("COURSEBOT_RUNNER_TEST")
	t.Setenv("CONFIG_PATH", "from-env.yaml")

	app := &fakeApp{}
	var loadedPath string
	var started, stopped bool
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{envFile, filepath.Join(dir, "missing.env")},
		LoadConfig: func(path string) (ConfigCarrier, error) {
			loadedPath = path
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return app, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			if err := opts.OnStart(ctx, coretelegram.Runtime{}); err != nil {
				return err
			}
			started = true
			stopped = opts.OnStop(ctx, coretelegram.Runtime{}) == nil
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if loadedPath != "from-env.yaml" {
		t.Fatalf("config path = %q", loadedPath)
	}
	if got := os.Getenv("COURSEBOT_RUNNER_TEST"); got != "from-dotenv" {
		t.Fatalf("dotenv value = %q", got)
	}
	if !started || !stopped || !app.closed {
		t.Fatalf("lifecycle started=%v stopped=%v closed=%v", started, stopped, app.closed)
	}
}

func TestRunBootstrapError(t *testing.T) {
	boom := errors.New("redis down")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{},
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunRequiresLoaders(t *testing.T) {
	if err := Run(Options{}); err == nil {
		t.Fatalf("expected error without LoadConfig")
	}
}
