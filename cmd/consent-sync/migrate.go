package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ricirt/consent-sync/internal/db"
)

func runMigrate(ctx context.Context) error {
	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database migrations applied", zap.String("source", cfg.MigrationsPath))
	return nil
}
