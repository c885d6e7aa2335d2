package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ricirt/consent-sync/internal/config"
	"github.com/ricirt/consent-sync/internal/tools"
)

// runBatchStart queues a batch on the shared redis queue for a running
// serve process to execute. An in-memory queue would vanish with this
// process, so it is refused.
func runBatchStart(ctx context.Context) error {
	cfg, logger, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.QueueBackend != config.QueueRedis {
		return errors.New("batch start needs QUEUE_BACKEND=redis so a serve process can pick up the actions")
	}

	c, err := setup(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	msg := c.plugin.Batch.Start(ctx, systemActor)
	fmt.Println(msg)
	if msg != tools.MsgQueued {
		return errors.New("batch not queued")
	}
	return nil
}
