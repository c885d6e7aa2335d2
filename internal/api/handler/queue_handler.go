package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// DepthReader reports how many actions wait in the queue.
type DepthReader interface {
	Depth(ctx context.Context) (int64, error)
}

// QueueHandler serves a JSON snapshot of the action queue.
// Raw Prometheus metrics are available at /metrics.
type QueueHandler struct {
	q       DepthReader
	backend string
	logger  *zap.Logger
}

func NewQueueHandler(q DepthReader, backend string, logger *zap.Logger) *QueueHandler {
	return &QueueHandler{q: q, backend: backend, logger: logger}
}

// GetQueue handles GET /api/v1/queue
//
// @Summary  Real-time action queue depth
// @Tags     queue
// @Produce  json
// @Success  200  {object}  map[string]any
// @Failure  500  {object}  map[string]string
// @Router   /api/v1/queue [get]
func (h *QueueHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	depth, err := h.q.Depth(r.Context())
	if err != nil {
		h.logger.Warn("queue depth failed", zap.Error(err))
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"backend": h.backend,
		"depth":   depth,
	})
}
