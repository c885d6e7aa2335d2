package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// ActionsKey is the redis list holding pending actions.
	ActionsKey = "consentsync:actions"

	popTimeout   = 2 * time.Second
	errorBackoff = time.Second
)

// RedisQueue keeps pending actions in a redis list: producers RPUSH, workers
// BLPOP. Actions survive process restarts and can be shared by several
// instances.
type RedisQueue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisQueue connects lazily to addr.
func NewRedisQueue(addr, password string, db int, logger *zap.Logger) *RedisQueue {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisQueue{client: rdb, logger: logger}
}

// Available pings redis.
func (q *RedisQueue) Available(ctx context.Context) bool {
	return q.client.Ping(ctx).Err() == nil
}

func (q *RedisQueue) EnqueueAsync(ctx context.Context, name string, args any, group string) (string, error) {
	a, err := NewAction(name, args, group)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("marshal action: %w", err)
	}
	if err := q.client.RPush(ctx, ActionsKey, data).Err(); err != nil {
		return "", fmt.Errorf("push action %s: %w", name, err)
	}
	return a.ID, nil
}

// Dequeue blocks until an action arrives or ctx is cancelled. Malformed
// entries are logged and dropped.
func (q *RedisQueue) Dequeue(ctx context.Context) (Action, bool) {
	for {
		if ctx.Err() != nil {
			return Action{}, false
		}

		result, err := q.client.BLPop(ctx, popTimeout, ActionsKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Action{}, false
			}
			q.logger.Warn("redis dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return Action{}, false
			case <-time.After(errorBackoff):
			}
			continue
		}

		var a Action
		if err := json.Unmarshal([]byte(result[1]), &a); err != nil {
			q.logger.Error("dropping malformed action", zap.Error(err))
			continue
		}
		return a, true
	}
}

// Depth returns the number of actions waiting.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, ActionsKey).Result()
}

// Close releases the redis connection pool.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

var (
	_ Scheduler = (*RedisQueue)(nil)
	_ Consumer  = (*RedisQueue)(nil)
	_ Queue     = (*RedisQueue)(nil)
)
