package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ricirt/consent-sync/internal/domain"
	"github.com/ricirt/consent-sync/internal/queue"
)

func newRedisQueue(t *testing.T) (*queue.RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	q := queue.NewRedisQueue(mr.Addr(), "", 0, zap.NewNop())
	t.Cleanup(func() { _ = q.Close() })
	return q, mr
}

func TestRedisQueue_RoundTrip(t *testing.T) {
	q, _ := newRedisQueue(t)
	ctx := context.Background()

	require.True(t, q.Available(ctx))

	id, err := q.EnqueueAsync(ctx, "worker", domain.WorkerPayload{UserIDs: []int64{5, 9}}, "batch")
	require.NoError(t, err)

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, depth)

	a, ok := q.Dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, "worker", a.Name)
	assert.JSONEq(t, `{"user_ids":[5,9]}`, string(a.Args))
}

func TestRedisQueue_DropsMalformed(t *testing.T) {
	q, mr := newRedisQueue(t)
	ctx := context.Background()

	_, err := mr.RPush(queue.ActionsKey, "{not json")
	require.NoError(t, err)
	_, err = q.EnqueueAsync(ctx, "good", nil, "g")
	require.NoError(t, err)

	a, ok := q.Dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, "good", a.Name)
}

func TestRedisQueue_DequeueStopsOnCancel(t *testing.T) {
	q, _ := newRedisQueue(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue(ctx)
		done <- ok
	}()
	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("Dequeue did not return after context cancellation")
	}
}

func TestRedisQueue_Unavailable(t *testing.T) {
	q, mr := newRedisQueue(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.False(t, q.Available(ctx))
}
