package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/consent-sync/internal/queue"
	"github.com/ricirt/consent-sync/internal/ratelimiter"
)

// MetricHooks carries the metric callback functions injected by main.
type MetricHooks struct {
	OnDone   func(action string, latency time.Duration)
	OnFailed func(action string)
}

// Pool manages the lifecycle of all action workers.
// Every worker consumes the same queue; ordering between workers is not
// guaranteed, which the batch actions tolerate.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool creates size identical workers.
func NewPool(
	size int,
	q queue.Consumer,
	runner ActionRunner,
	limiter *ratelimiter.ActionLimiters,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	if size <= 0 {
		size = 1
	}
	workers := make([]*Worker, size)
	for i := range workers {
		workers[i] = NewWorker(
			i, q, runner, limiter,
			logger.With(zap.Int("worker_id", i)),
			hooks.OnDone,
			hooks.OnFailed,
		)
	}
	return &Pool{workers: workers}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches all workers as goroutines.
// Cancelling ctx triggers a graceful shutdown of the entire pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
func (p *Pool) Wait() {
	p.wg.Wait()
}
