package queue

import (
	"context"

	"github.com/ricirt/consent-sync/internal/domain"
)

const defaultCapacity = 5000

// MemoryQueue is a bounded in-process action queue backed by a buffered
// channel. Actions are lost on restart; use RedisQueue when that matters.
type MemoryQueue struct {
	actions chan Action
}

// NewMemoryQueue returns a queue holding up to capacity actions.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryQueue{actions: make(chan Action, capacity)}
}

func (q *MemoryQueue) Available(context.Context) bool { return true }

// EnqueueAsync is non-blocking: if the buffer is full, ErrQueueFull is
// returned immediately rather than blocking the caller.
func (q *MemoryQueue) EnqueueAsync(_ context.Context, name string, args any, group string) (string, error) {
	a, err := NewAction(name, args, group)
	if err != nil {
		return "", err
	}
	return a.ID, q.Push(a)
}

// Push places a prepared action on the queue.
func (q *MemoryQueue) Push(a Action) error {
	select {
	case q.actions <- a:
		return nil
	default:
		return domain.ErrQueueFull
	}
}

// Dequeue blocks until an action is available or ctx is cancelled.
// Returns (Action{}, false) when ctx is cancelled (graceful shutdown signal).
func (q *MemoryQueue) Dequeue(ctx context.Context) (Action, bool) {
	select {
	case a := <-q.actions:
		return a, true
	case <-ctx.Done():
		return Action{}, false
	}
}

// Depth returns the number of actions waiting.
func (q *MemoryQueue) Depth(context.Context) (int64, error) {
	return int64(len(q.actions)), nil
}

var (
	_ Scheduler = (*MemoryQueue)(nil)
	_ Consumer  = (*MemoryQueue)(nil)
	_ Queue     = (*MemoryQueue)(nil)
)
