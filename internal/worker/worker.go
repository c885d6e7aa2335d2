package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/consent-sync/internal/queue"
	"github.com/ricirt/consent-sync/internal/ratelimiter"
)

// ActionRunner executes the handler registered for an action name.
// hooks.Registry satisfies it.
type ActionRunner interface {
	RunAction(ctx context.Context, name string, args json.RawMessage) error
}

// Worker is a single goroutine that pulls actions from the queue, waits for
// the per-action rate limiter and runs the registered handler.
// Failed actions are logged and counted, never re-queued.
type Worker struct {
	id      int
	q       queue.Consumer
	runner  ActionRunner
	limiter *ratelimiter.ActionLimiters
	logger  *zap.Logger

	onDone   func(action string, latency time.Duration)
	onFailed func(action string)
}

// NewWorker constructs a worker. limiter, onDone and onFailed are optional.
func NewWorker(
	id int,
	q queue.Consumer,
	runner ActionRunner,
	limiter *ratelimiter.ActionLimiters,
	logger *zap.Logger,
	onDone func(string, time.Duration),
	onFailed func(string),
) *Worker {
	if onDone == nil {
		onDone = func(string, time.Duration) {}
	}
	if onFailed == nil {
		onFailed = func(string) {}
	}
	return &Worker{
		id: id, q: q, runner: runner, limiter: limiter, logger: logger,
		onDone: onDone, onFailed: onFailed,
	}
}

// Run blocks until ctx is cancelled, processing one action per iteration.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", zap.Int("id", w.id))
	for {
		a, ok := w.q.Dequeue(ctx)
		if !ok {
			w.logger.Info("worker stopping", zap.Int("id", w.id))
			return
		}
		w.process(ctx, a)
	}
}

func (w *Worker) process(ctx context.Context, a queue.Action) {
	log := w.logger.With(
		zap.String("action_id", a.ID),
		zap.String("action", a.Name),
		zap.String("group", a.Group),
	)

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx, a.Name); err != nil {
			// shutting down; the action is dropped with the queue
			log.Debug("rate limiter wait aborted", zap.Error(err))
			return
		}
	}

	start := time.Now()
	err := w.run(ctx, a)
	elapsed := time.Since(start)

	if err != nil {
		log.Error("action failed", zap.Error(err), zap.Duration("latency", elapsed))
		w.onFailed(a.Name)
		return
	}

	w.onDone(a.Name, elapsed)
	log.Debug("action done", zap.Duration("latency", elapsed))
}

// run converts a handler panic into an error so one bad action cannot take
// down the worker goroutine.
func (w *Worker) run(ctx context.Context, a queue.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", a.Name, r)
		}
	}()
	return w.runner.RunAction(ctx, a.Name, a.Args)
}
