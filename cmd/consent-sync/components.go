package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ricirt/consent-sync/internal/auth"
	"github.com/ricirt/consent-sync/internal/config"
	"github.com/ricirt/consent-sync/internal/db"
	"github.com/ricirt/consent-sync/internal/hooks"
	"github.com/ricirt/consent-sync/internal/integration"
	"github.com/ricirt/consent-sync/internal/metrics"
	"github.com/ricirt/consent-sync/internal/nonce"
	"github.com/ricirt/consent-sync/internal/plugin"
	"github.com/ricirt/consent-sync/internal/queue"
	"github.com/ricirt/consent-sync/internal/repository"
)

// systemActor runs scheduled and command-line batch starts.
var systemActor = auth.NewActor(0, true, auth.CapManageOptions)

// components holds everything built from the configuration.
type components struct {
	cfg      *config.Config
	logger   *zap.Logger
	pool     *pgxpool.Pool
	queue    queue.Queue
	integ    *integration.HTTPIntegration
	registry *hooks.Registry
	promReg  *prometheus.Registry
	metrics  *metrics.Metrics
	repo     repository.UserRepository
	plugin   *plugin.Plugin

	closeQueue func() error
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

// loadConfig reads the environment and builds the logger.
func loadConfig(ctx context.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newQueue(cfg *config.Config, logger *zap.Logger) (queue.Queue, func() error) {
	if cfg.QueueBackend == config.QueueRedis {
		q := queue.NewRedisQueue(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger.Named("queue"))
		return q, q.Close
	}
	return queue.NewMemoryQueue(cfg.QueueCapacity), func() error { return nil }
}

// setup connects to the database and wires the plugin onto a fresh registry.
func setup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	c := &components{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		integ:    integration.NewHTTPIntegration(cfg.IntegrationURL, cfg.IntegrationToken, cfg.IntegrationTimeout, logger.Named("integration")),
		registry: hooks.NewRegistry(),
		promReg:  prometheus.NewRegistry(),
		repo:     repository.NewPgUserRepository(pool),
	}
	c.metrics = metrics.New(c.promReg)
	c.queue, c.closeQueue = newQueue(cfg, logger)

	c.plugin = plugin.Init(c.registry, plugin.Settings{
		ShowOnEdit:  cfg.ShowOnEdit,
		BatchChunk:  cfg.BatchChunk,
		SettingsURL: cfg.IntegrationSettingsURL,
	}, plugin.Deps{
		Repo:        c.repo,
		Integration: c.integ,
		Scheduler:   c.queue,
		Nonces:      nonce.New(cfg.NonceSecret, cfg.NonceLifetime),
		Logger:      logger,
		OnOutcome:   c.metrics.OutcomeHook(),
		OnPage:      c.metrics.PageHook(),
	})

	return c, nil
}

func (c *components) Close() {
	if err := c.closeQueue(); err != nil {
		c.logger.Warn("queue close error", zap.Error(err))
	}
	c.pool.Close()
}
