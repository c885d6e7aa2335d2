package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ricirt/consent-sync/internal/auth"
	"github.com/ricirt/consent-sync/internal/domain"
	"github.com/ricirt/consent-sync/internal/hooks"
	"github.com/ricirt/consent-sync/internal/integration"
	"github.com/ricirt/consent-sync/internal/queue"
	"github.com/ricirt/consent-sync/internal/repository"
	"github.com/ricirt/consent-sync/internal/service"
)

// Names exposed to the host tools panel and the action queue.
const (
	ToolID         = "mc4wc_ob_batch_subscribe"
	ActionDispatch = "mc4wc_ob_dispatch"
	ActionWorker   = "mc4wc_ob_worker"
	Group          = "mc4wc-override-batch"

	DefaultChunk = 200
)

// Messages returned by Start for display in the tools panel.
const (
	MsgDenied       = "Insufficient permissions."
	MsgNotReady     = "Mailchimp for WooCommerce is not installed/configured."
	MsgNoScheduler  = "Action Scheduler is unavailable."
	MsgEnqueueError = "Could not queue the subscription batch. Check the service logs."
	MsgQueued       = "Batch queued. Track progress in the scheduled actions queue."
)

// UserQueuer is the per-user subscribe step run by worker actions.
type UserQueuer interface {
	QueueUser(ctx context.Context, userID int64, source service.Source) (service.Outcome, error)
}

// BatchTool subscribes every eligible user through a chain of actions:
//
//	Start → Dispatch(0) → [Worker(page), Dispatch(max id)] → … → Dispatch(n) finds nothing
//
// The cursor only moves forward, so pages never overlap even when workers
// lag behind dispatches. No completion marker is persisted; the chain ends
// when a dispatch stops re-enqueuing itself.
type BatchTool struct {
	repo   repository.UserRepository
	users  UserQueuer
	integ  integration.Integration
	sched  queue.Scheduler
	chunk  int
	logger *zap.Logger
	onPage func(users int)
}

// Option customizes a BatchTool.
type Option func(*BatchTool)

// WithChunk sets the dispatch page size.
func WithChunk(n int) Option {
	return func(t *BatchTool) {
		if n > 0 {
			t.chunk = n
		}
	}
}

// WithPageHook reports the size of every non-empty dispatch page.
func WithPageHook(fn func(users int)) Option {
	return func(t *BatchTool) {
		if fn != nil {
			t.onPage = fn
		}
	}
}

func NewBatchTool(
	repo repository.UserRepository,
	users UserQueuer,
	integ integration.Integration,
	sched queue.Scheduler,
	logger *zap.Logger,
	opts ...Option,
) *BatchTool {
	t := &BatchTool{
		repo:   repo,
		users:  users,
		integ:  integ,
		sched:  sched,
		chunk:  DefaultChunk,
		logger: logger,
		onPage: func(int) {},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register adds the tools-panel entry and the two action handlers.
func (t *BatchTool) Register(h hooks.Host) {
	h.FilterTools(t.addTool)
	h.OnAction(ActionDispatch, func(ctx context.Context, args json.RawMessage) error {
		var p domain.DispatchPayload
		if err := decode(args, &p); err != nil {
			return err
		}
		return t.Dispatch(ctx, p)
	})
	h.OnAction(ActionWorker, func(ctx context.Context, args json.RawMessage) error {
		var p domain.WorkerPayload
		if err := decode(args, &p); err != nil {
			return err
		}
		return t.Work(ctx, p)
	})
}

func (t *BatchTool) addTool(tools map[string]hooks.Tool) map[string]hooks.Tool {
	tools[ToolID] = hooks.Tool{
		ID:     ToolID,
		Name:   "Subscribe all non-subscribed users (MC4WC)",
		Button: "Queue subscription batch",
		Description: "Finds users whose Mailchimp flag is missing/0 and queues Mailchimp for WooCommerce " +
			"to subscribe & sync. Skips unsubscribed and already subscribed.",
		Callback: t.Start,
	}
	return tools
}

// Start queues the first dispatch and returns a status line for the panel.
func (t *BatchTool) Start(ctx context.Context, actor auth.Actor) string {
	if !actor.CanAny(auth.CapManageWooCommerce, auth.CapManageOptions) {
		return MsgDenied
	}
	if !t.integ.Status(ctx).Ready() {
		return MsgNotReady
	}
	if !t.sched.Available(ctx) {
		return MsgNoScheduler
	}

	payload := domain.DispatchPayload{LastID: 0, Chunk: t.chunk}
	id, err := t.sched.EnqueueAsync(ctx, ActionDispatch, payload, Group)
	if err != nil {
		t.logger.Error("failed to queue batch", zap.Error(err))
		return MsgEnqueueError
	}

	t.logger.Info("subscription batch queued",
		zap.String("action_id", id),
		zap.Int64("actor_id", actor.ID),
		zap.Int("chunk", t.chunk),
	)
	return MsgQueued
}

// Dispatch fetches the next page after p.LastID, queues a worker for it and
// queues the following dispatch. An empty page ends the batch.
func (t *BatchTool) Dispatch(ctx context.Context, p domain.DispatchPayload) error {
	lastID := p.LastID
	if lastID < 0 {
		lastID = 0
	}
	chunk := p.Chunk
	if chunk <= 0 {
		chunk = t.chunk
	}

	ids, err := t.repo.FindEligible(ctx, lastID, chunk)
	if err != nil {
		return fmt.Errorf("dispatch after %d: %w", lastID, err)
	}
	if len(ids) == 0 {
		t.logger.Info("subscription batch complete", zap.Int64("last_id", lastID))
		return nil
	}

	if _, err := t.sched.EnqueueAsync(ctx, ActionWorker, domain.WorkerPayload{UserIDs: ids}, Group); err != nil {
		return fmt.Errorf("queue worker after %d: %w", lastID, err)
	}

	next := domain.DispatchPayload{LastID: maxID(ids), Chunk: chunk}
	if _, err := t.sched.EnqueueAsync(ctx, ActionDispatch, next, Group); err != nil {
		// The chain ends here; restarting the batch picks up from the flags.
		t.logger.Error("batch chain abandoned",
			zap.Int64("last_id", next.LastID),
			zap.Int("chunk", chunk),
			zap.Error(err),
		)
		return fmt.Errorf("queue dispatch after %d: %w", next.LastID, err)
	}

	t.onPage(len(ids))
	t.logger.Debug("dispatched page",
		zap.Int64("last_id", lastID),
		zap.Int64("next_last_id", next.LastID),
		zap.Int("users", len(ids)),
	)
	return nil
}

// Work subscribes every user in the page. Availability is checked once per
// page; a failing user is logged and the rest of the page still runs.
func (t *BatchTool) Work(ctx context.Context, p domain.WorkerPayload) error {
	if len(p.UserIDs) == 0 {
		return nil
	}
	if !t.integ.Status(ctx).SubmitAvailable {
		t.logger.Warn("integration unavailable, skipping page", zap.Int("users", len(p.UserIDs)))
		return nil
	}

	for _, id := range p.UserIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.users.QueueUser(ctx, id, service.SourceBatch); err != nil {
			t.logger.Warn("batch subscribe failed", zap.Int64("user_id", id), zap.Error(err))
		}
	}
	return nil
}

func maxID(ids []int64) int64 {
	m := ids[0]
	for _, id := range ids[1:] {
		if id > m {
			m = id
		}
	}
	return m
}

func decode(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}
