package app

import (
	"errors"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/coursebot/core/config"
	coredatabase "github.com/m3rciful/coursebot/core/database"
	tgsender "github.com/m3rciful/coursebot/core/telegram/sender"
)

// SenderConfig tunes outbound Bot API calls.
type SenderConfig struct {
	Workers        int `yaml:"workers" envconfig:"SENDER_WORKERS"`
	MaxRetries     int `yaml:"max_retries" envconfig:"SENDER_MAX_RETRIES"`
	RetryBackoffMS int `yaml:"retry_backoff_ms" envconfig:"SENDER_RETRY_BACKOFF_MS"`
}

// Config is the bot configuration: the core sections plus bot specific ones.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Sender   SenderConfig        `yaml:"sender"`
}

// CoreConfig implements cmd.ConfigCarrier.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// LoadConfig reads path, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core sections and the bot specific ones.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if c.Session.Backend == coreconfig.BackendPostgres {
		if strings.TrimSpace(c.Database.Host) == "" || strings.TrimSpace(c.Database.Name) == "" {
			return errors.New("database.host and database.name are required when session.backend is 'postgres'")
		}
		if c.Database.Port == "" {
			c.Database.Port = "5432"
		}
	}
	if c.Sender.MaxRetries < 0 {
		return errors.New("sender.max_retries must be >= 0")
	}
	if c.Sender.MaxRetries == 0 {
		c.Sender.MaxRetries = 3
	}
	return nil
}

// DispatcherOptions maps the sender section.
func (c *Config) DispatcherOptions() tgsender.Options {
	return tgsender.Options{
		Workers:      c.Sender.Workers,
		MaxRetries:   c.Sender.MaxRetries,
		RetryBackoff: time.Duration(c.Sender.RetryBackoffMS) * time.Millisecond,
		MaxDuration:  time.Duration(c.Session.DeliveryTimeoutMS) * time.Millisecond,
	}
}
