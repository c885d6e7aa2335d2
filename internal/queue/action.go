package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action is one unit of asynchronous work: a named hook invocation with a
// JSON argument. Handlers are looked up by Name when the action runs.
type Action struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Group      string          `json:"group"`
	Args       json.RawMessage `json:"args"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewAction marshals args and stamps a fresh id.
func NewAction(name string, args any, group string) (Action, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Action{}, fmt.Errorf("marshal %s args: %w", name, err)
	}
	return Action{
		ID:         uuid.New().String(),
		Name:       name,
		Group:      group,
		Args:       raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Scheduler is the enqueue side of the async action queue.
type Scheduler interface {
	// Available reports whether actions can currently be enqueued.
	Available(ctx context.Context) bool
	// EnqueueAsync queues name with args under group and returns the action id.
	EnqueueAsync(ctx context.Context, name string, args any, group string) (string, error)
}

// Consumer is the dequeue side used by the action runner.
type Consumer interface {
	// Dequeue blocks until an action is available; ok is false once ctx is done.
	Dequeue(ctx context.Context) (Action, bool)
}

// Queue is a full backend: both sides plus a depth probe.
type Queue interface {
	Scheduler
	Consumer
	Depth(ctx context.Context) (int64, error)
}
