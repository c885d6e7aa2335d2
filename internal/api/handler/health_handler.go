package handler

import (
	"context"
	"net/http"

	"github.com/ricirt/consent-sync/internal/integration"
)

// QueueProbe reports whether actions can be enqueued.
type QueueProbe interface {
	Available(ctx context.Context) bool
}

// IntegrationProbe reports the integration's presence and configuration.
type IntegrationProbe interface {
	Status(ctx context.Context) integration.Status
}

// HealthHandler serves the liveness probe. It always answers 200 while the
// process runs; a missing integration or queue only marks it degraded,
// because the hooks keep no-opping safely in that state.
type HealthHandler struct {
	queue   QueueProbe
	integ   IntegrationProbe
	backend string
}

func NewHealthHandler(queue QueueProbe, integ IntegrationProbe, backend string) *HealthHandler {
	return &HealthHandler{queue: queue, integ: integ, backend: backend}
}

// Health handles GET /health
//
// @Summary  Liveness probe with queue and integration state
// @Tags     system
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	queueOK := h.queue == nil || h.queue.Available(r.Context())

	var st integration.Status
	if h.integ != nil {
		st = h.integ.Status(r.Context())
	}

	status := "ok"
	if !queueOK || !st.Ready() {
		status = "degraded"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"queue": map[string]any{
			"backend":   h.backend,
			"available": queueOK,
		},
		"integration": map[string]bool{
			"present":          st.Present,
			"configured":       st.Configured,
			"submit_available": st.SubmitAvailable,
		},
	})
}
