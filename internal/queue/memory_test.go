package queue_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricirt/consent-sync/internal/domain"
	"github.com/ricirt/consent-sync/internal/queue"
)

func TestMemoryQueue_EnqueueDequeue(t *testing.T) {
	q := queue.NewMemoryQueue(10)
	ctx := context.Background()

	id, err := q.EnqueueAsync(ctx, "dispatch", domain.DispatchPayload{LastID: 3, Chunk: 200}, "batch")
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	a, ok := q.Dequeue(ctx)
	require.True(t, ok)
	assert.Equal(t, id, a.ID)
	assert.Equal(t, "dispatch", a.Name)
	assert.Equal(t, "batch", a.Group)

	var p domain.DispatchPayload
	require.NoError(t, json.Unmarshal(a.Args, &p))
	assert.Equal(t, domain.DispatchPayload{LastID: 3, Chunk: 200}, p)
}

func TestMemoryQueue_PreservesOrder(t *testing.T) {
	q := queue.NewMemoryQueue(10)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := q.EnqueueAsync(ctx, name, nil, "g")
		require.NoError(t, err)
	}
	for _, want := range []string{"a", "b", "c"} {
		a, ok := q.Dequeue(ctx)
		require.True(t, ok)
		assert.Equal(t, want, a.Name)
	}
}

// TestMemoryQueue_Full verifies the non-blocking EnqueueAsync returns
// ErrQueueFull when the buffer is saturated.
func TestMemoryQueue_Full(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	ctx := context.Background()

	_, err := q.EnqueueAsync(ctx, "a", nil, "g")
	require.NoError(t, err)
	_, err = q.EnqueueAsync(ctx, "b", nil, "g")
	assert.ErrorIs(t, err, domain.ErrQueueFull)

	depth, _ := q.Depth(ctx)
	assert.EqualValues(t, 1, depth)
}

func TestMemoryQueue_UnmarshalableArgs(t *testing.T) {
	q := queue.NewMemoryQueue(1)
	_, err := q.EnqueueAsync(context.Background(), "a", make(chan int), "g")
	assert.Error(t, err)
}

// TestMemoryQueue_ContextCancellation verifies Dequeue returns (_, false)
// when the context is cancelled while blocking.
func TestMemoryQueue_ContextCancellation(t *testing.T) {
	q := queue.NewMemoryQueue(1)
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
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not return after context cancellation")
	}
}

func TestMemoryQueue_ConcurrentEnqueueDequeue(t *testing.T) {
	q := queue.NewMemoryQueue(1000)

	const producers = 5
	const perProducer = 100
	const total = producers * perProducer

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	received := make(chan struct{}, total)
	var consumer sync.WaitGroup
	consumer.Add(1)
	go func() {
		defer consumer.Done()
		for {
			if _, ok := q.Dequeue(ctx); !ok {
				return
			}
			received <- struct{}{}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				_, _ = q.EnqueueAsync(ctx, "w", j, "g")
			}
		}()
	}
	wg.Wait()

	for i := 0; i < total; i++ {
		select {
		case <-received:
		case <-ctx.Done():
			t.Fatalf("timeout: only received %d/%d actions", i, total)
		}
	}
	cancel()
	consumer.Wait()
}
