package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/ricirt/consent-sync/internal/api/middleware"
	"github.com/ricirt/consent-sync/internal/auth"
	"github.com/ricirt/consent-sync/internal/hooks"
)

// ToolRunner lists and runs tools-panel entries. hooks.Registry satisfies it.
type ToolRunner interface {
	Tools() []hooks.Tool
	RunTool(ctx context.Context, id string, actor auth.Actor) (string, error)
}

// ToolHandler serves the host's administrative tools panel.
type ToolHandler struct {
	tools  ToolRunner
	logger *zap.Logger
}

func NewToolHandler(tools ToolRunner, logger *zap.Logger) *ToolHandler {
	return &ToolHandler{tools: tools, logger: logger}
}

// List handles GET /api/v1/tools
//
// @Summary  Tools-panel entries
// @Tags     tools
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/tools [get]
func (h *ToolHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"data": h.tools.Tools()})
}

// Run handles POST /api/v1/tools/{id}
//
// The tool's status line is returned even when the tool refused to run.
//
// @Summary  Run a tool callback
// @Tags     tools
// @Produce  json
// @Param    id   path      string  true  "Tool ID"
// @Success  200  {object}  map[string]string
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/tools/{id} [post]
func (h *ToolHandler) Run(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	actor := auth.FromContext(r.Context())

	msg, err := h.tools.RunTool(r.Context(), id, actor)
	if err != nil {
		mapError(w, err)
		return
	}

	h.logger.Info("tool run",
		zap.String("tool", id),
		zap.Int64("actor_id", actor.ID),
		zap.String("message", msg),
		zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
	)
	respondJSON(w, http.StatusOK, map[string]string{"message": msg})
}
