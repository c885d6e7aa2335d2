package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ricirt/consent-sync/internal/hooks"
	"github.com/ricirt/consent-sync/internal/queue"
	"github.com/ricirt/consent-sync/internal/ratelimiter"
	"github.com/ricirt/consent-sync/internal/worker"
)

type recorder struct {
	mu     sync.Mutex
	done   map[string]int
	failed map[string]int
}

func newRecorder() *recorder {
	return &recorder{done: map[string]int{}, failed: map[string]int{}}
}

func (r *recorder) hooks() worker.MetricHooks {
	return worker.MetricHooks{
		OnDone: func(action string, _ time.Duration) {
			r.mu.Lock()
			r.done[action]++
			r.mu.Unlock()
		},
		OnFailed: func(action string) {
			r.mu.Lock()
			r.failed[action]++
			r.mu.Unlock()
		},
	}
}

func (r *recorder) counts(action string) (done, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done[action], r.failed[action]
}

func TestPool_RunsRegisteredActions(t *testing.T) {
	reg := hooks.NewRegistry()
	var mu sync.Mutex
	var got []string
	reg.OnAction("echo", func(_ context.Context, args json.RawMessage) error {
		var s string
		if err := json.Unmarshal(args, &s); err != nil {
			return err
		}
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
		return nil
	})
	reg.OnAction("boom", func(context.Context, json.RawMessage) error {
		return errors.New("handler failed")
	})
	reg.OnAction("panic", func(context.Context, json.RawMessage) error {
		panic("bad payload")
	})

	q := queue.NewMemoryQueue(10)
	ctx := context.Background()
	for _, s := range []string{"a", "b", "c"} {
		_, err := q.EnqueueAsync(ctx, "echo", s, "test")
		require.NoError(t, err)
	}
	_, _ = q.EnqueueAsync(ctx, "boom", nil, "test")
	_, _ = q.EnqueueAsync(ctx, "panic", nil, "test")
	_, _ = q.EnqueueAsync(ctx, "unknown", nil, "test")

	rec := newRecorder()
	pool := worker.NewPool(2, q, reg, ratelimiter.New(1000), zap.NewNop(), rec.hooks())
	require.Equal(t, 2, pool.Size())

	runCtx, cancel := context.WithCancel(ctx)
	pool.Start(runCtx)

	require.Eventually(t, func() bool {
		done, _ := rec.counts("echo")
		_, boom := rec.counts("boom")
		_, pan := rec.counts("panic")
		_, unk := rec.counts("unknown")
		return done == 3 && boom == 1 && pan == 1 && unk == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	pool.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got)
}

func TestWorker_StopsOnCancel(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	w := worker.NewWorker(0, q, hooks.NewRegistry(), nil, zap.NewNop(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(stopped)
	}()
	cancel()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

type depthStub struct {
	depth int64
	err   error
}

func (d depthStub) Depth(context.Context) (int64, error) { return d.depth, d.err }

func TestDepthSampler_ReportsDepth(t *testing.T) {
	reported := make(chan int64, 1)
	s := worker.NewDepthSampler(depthStub{depth: 7}, time.Hour, func(d int64) {
		select {
		case reported <- d:
		default:
		}
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case d := <-reported:
		assert.Equal(t, int64(7), d)
	case <-time.After(time.Second):
		t.Fatal("no depth reported")
	}
}

func TestDepthSampler_SkipsOnError(t *testing.T) {
	called := false
	s := worker.NewDepthSampler(depthStub{err: errors.New("redis down")}, time.Hour, func(int64) {
		called = true
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)
	assert.False(t, called)
}
