package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
)

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// - "callback": Telegram callback button presses
// - "message": standard text messages
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

const (
	// BackendRedis keeps dialogue state in Redis.
	BackendRedis = "redis"
	// BackendPostgres keeps dialogue state in a Postgres table.
	BackendPostgres = "postgres"
	// BackendMemory keeps dialogue state in process memory (development only).
	BackendMemory = "memory"

	// DefaultKeyFormat is the per-chat state key layout.
	DefaultKeyFormat = "tg_user_%d_state"

	defaultStoreTimeoutMS    = 2000
	defaultDeliveryTimeoutMS = 10000
)

// SessionConfig controls where and how dialogue state is persisted.
type SessionConfig struct {
	Backend   string `yaml:"backend" envconfig:"SESSION_BACKEND"`
	KeyFormat string `yaml:"key_format" envconfig:"SESSION_KEY_FORMAT"`
	// TTLSeconds expires idle sessions in stores that support it; 0 keeps them forever.
	TTLSeconds        int `yaml:"ttl_seconds" envconfig:"SESSION_TTL_SECONDS"`
	StoreTimeoutMS    int `yaml:"store_timeout_ms" envconfig:"SESSION_STORE_TIMEOUT_MS"`
	DeliveryTimeoutMS int `yaml:"delivery_timeout_ms" envconfig:"SESSION_DELIVERY_TIMEOUT_MS"`
	// LegacyAliases keeps state and buttons written by the previous bot working.
	LegacyAliases bool `yaml:"legacy_aliases" envconfig:"SESSION_LEGACY_ALIASES"`
}

// RedisConfig holds the Redis connection used by the redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// ContentConfig points at an optional directory overriding the embedded course content.
type ContentConfig struct {
	Dir string `yaml:"dir" envconfig:"COURSE_CONTENT_PATH"`
}

// ObservabilityConfig enables the metrics/health listener and trace export.
type ObservabilityConfig struct {
	Listen       string `yaml:"listen" envconfig:"OBSERVABILITY_LISTEN"`
	OTLPEndpoint string `yaml:"otlp_endpoint" envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Environment  string `yaml:"environment" envconfig:"APP_ENV"`
}

// Config aggregates the configuration that belongs to the reusable core.
type Config struct {
	Telegram      TelegramConfig      `yaml:"telegram"`
	Webhook       WebhookConfig       `yaml:"webhook"`
	Logging       LoggingConfig       `yaml:"logging"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Session       SessionConfig       `yaml:"session"`
	Redis         RedisConfig         `yaml:"redis"`
	Content       ContentConfig       `yaml:"content"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Decode fills out from the YAML file at path and then overlays environment variables.
// out may embed Config to carry bot specific sections.
func Decode(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", out); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	return nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" {
		rm = RunModeLongpoll
	}
	if rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
	}
	for i, v := range cfg.RateLimit.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message", v)
		}
		cfg.RateLimit.ExcludeUpdates[i] = key
	}

	return normalizeSession(cfg)
}

func normalizeSession(cfg *Config) error {
	s := &cfg.Session
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	if backend == "" {
		backend = BackendRedis
	}
	switch backend {
	case BackendRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required when session.backend is 'redis'")
		}
	case BackendPostgres, BackendMemory:
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: redis, postgres, memory", s.Backend)
	}
	s.Backend = backend

	if strings.TrimSpace(s.KeyFormat) == "" {
		s.KeyFormat = DefaultKeyFormat
	}
	if strings.Count(s.KeyFormat, "%d") != 1 {
		return fmt.Errorf("session.key_format %q must contain exactly one %%d verb", s.KeyFormat)
	}
	if s.TTLSeconds < 0 {
		return fmt.Errorf("session.ttl_seconds must be >= 0")
	}
	if s.StoreTimeoutMS <= 0 {
		s.StoreTimeoutMS = defaultStoreTimeoutMS
	}
	if s.DeliveryTimeoutMS <= 0 {
		s.DeliveryTimeoutMS = defaultDeliveryTimeoutMS
	}
	return nil
}
