package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Queue backends understood by QUEUE_BACKEND.
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; DATABASE_URL, HOST_TOKEN and
// NONCE_SECRET are required.
type Config struct {
	// Server
	HTTPPort        string        `env:"HTTP_PORT, default=8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT, default=5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT, default=10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=30s"`
	LogLevel        string        `env:"LOG_LEVEL, default=info"`

	// Database
	DatabaseURL    string `env:"DATABASE_URL, required"`
	DBMaxConns     int32  `env:"DB_MAX_CONNS, default=25"`
	DBMinConns     int32  `env:"DB_MIN_CONNS, default=5"`
	MigrationsPath string `env:"MIGRATIONS_PATH, default=file://migrations"`

	// Action queue
	QueueBackend  string `env:"QUEUE_BACKEND, default=memory"`
	QueueCapacity int    `env:"QUEUE_CAPACITY, default=5000"`
	RedisAddr     string `env:"REDIS_ADDR, default=localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB, default=0"`
	Workers       int    `env:"ACTION_WORKERS, default=4"`

	// Maximum executions per second of any one action name.
	RateLimit int `env:"ACTION_RATE_LIMIT, default=20"`

	// Email marketing integration
	IntegrationURL         string        `env:"INTEGRATION_URL, default=http://localhost:8081"`
	IntegrationToken       string        `env:"INTEGRATION_TOKEN"`
	IntegrationTimeout     time.Duration `env:"INTEGRATION_TIMEOUT, default=10s"`
	IntegrationSettingsURL string        `env:"INTEGRATION_SETTINGS_URL, default=/wp-admin/admin.php?page=mailchimp-woocommerce"`
	RequireIntegration     bool          `env:"REQUIRE_INTEGRATION, default=false"`

	// Host bridge
	HostToken     string        `env:"HOST_TOKEN, required"`
	NonceSecret   string        `env:"NONCE_SECRET, required"`
	NonceLifetime time.Duration `env:"NONCE_LIFETIME, default=24h"`

	// Consent checkbox on edit-profile screens.
	ShowOnEdit bool `env:"SHOW_ON_EDIT, default=false"`

	// Batch subscribe
	BatchChunk    int    `env:"BATCH_CHUNK, default=200"`
	BatchSchedule string `env:"BATCH_SCHEDULE"`
}

// Load reads the process environment into a Config.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.QueueBackend {
	case QueueMemory, QueueRedis:
	default:
		return fmt.Errorf("QUEUE_BACKEND must be %q or %q, got %q", QueueMemory, QueueRedis, c.QueueBackend)
	}
	if c.BatchChunk <= 0 {
		return fmt.Errorf("BATCH_CHUNK must be positive, got %d", c.BatchChunk)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("ACTION_WORKERS must be positive, got %d", c.Workers)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("ACTION_RATE_LIMIT must be positive, got %d", c.RateLimit)
	}
	if c.NonceLifetime < time.Second {
		return fmt.Errorf("NONCE_LIFETIME must be at least 1s, got %s", c.NonceLifetime)
	}
	return nil
}
