package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ricirt/consent-sync/internal/api"
	"github.com/ricirt/consent-sync/internal/db"
	"github.com/ricirt/consent-sync/internal/ratelimiter"
	"github.com/ricirt/consent-sync/internal/worker"
)

const depthSampleInterval = 5 * time.Second

func runServe(ctx context.Context, skipMigrate bool) error {
	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- database ----
	if !skipMigrate {
		if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database migrations applied")
	}

	c, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	// ---- dependency guard ----
	if st := c.integ.Status(ctx); !st.Present {
		if cfg.RequireIntegration {
			return errors.New("email marketing integration is not reachable and REQUIRE_INTEGRATION is set")
		}
		logger.Warn("email marketing integration is not reachable; admin notice will be shown")
	}

	// ---- action workers ----
	// Context for all background goroutines; cancelled on shutdown.
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	onDone, onFailed := c.metrics.WorkerHooks()
	pool := worker.NewPool(cfg.Workers, c.queue, c.registry, ratelimiter.New(cfg.RateLimit), logger, worker.MetricHooks{
		OnDone:   onDone,
		OnFailed: onFailed,
	})
	pool.Start(workerCtx)

	sampler := worker.NewDepthSampler(c.queue, depthSampleInterval, func(d int64) {
		c.metrics.QueueDepth.Set(float64(d))
	}, logger)
	go sampler.Run(workerCtx)

	// ---- scheduled batch ----
	if cfg.BatchSchedule != "" {
		sched := cron.New(cron.WithParser(cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
		)))
		if _, err := sched.AddFunc(cfg.BatchSchedule, func() {
			msg := c.plugin.Batch.Start(workerCtx, systemActor)
			logger.Info("scheduled batch start", zap.String("result", msg))
		}); err != nil {
			return fmt.Errorf("parse BATCH_SCHEDULE: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		logger.Info("batch schedule enabled", zap.String("schedule", cfg.BatchSchedule))
	}

	// ---- HTTP server ----
	router := api.NewRouter(api.Deps{
		Hooks:        c.registry,
		Users:        c.repo,
		Queue:        c.queue,
		Integration:  c.integ,
		QueueBackend: cfg.QueueBackend,
		HostToken:    cfg.HostToken,
		Gatherer:     c.promReg,
		Logger:       logger,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// ---- graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop workers taking new actions and wait for in-flight ones.
	cancelWorkers()
	pool.Wait()

	logger.Info("server stopped cleanly")
	return nil
}
