package handler

import (
	"context"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apimw "github.com/ricirt/consent-sync/internal/api/middleware"
	"github.com/ricirt/consent-sync/internal/auth"
	"github.com/ricirt/consent-sync/internal/domain"
	"github.com/ricirt/consent-sync/internal/hooks"
)

// HookFirer fires registered host hooks. hooks.Registry satisfies it.
type HookFirer interface {
	Render(ctx context.Context, point hooks.RenderPoint, req hooks.RenderRequest) (template.HTML, error)
	Save(ctx context.Context, point hooks.SavePoint, ev hooks.SaveEvent)
	Notices(ctx context.Context, actor auth.Actor) []hooks.Notice
}

// UserLookup loads the user shown on an edit screen.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// HookHandler relays form renders and user saves from the host.
type HookHandler struct {
	hooks  HookFirer
	users  UserLookup
	logger *zap.Logger
}

func NewHookHandler(h HookFirer, users UserLookup, logger *zap.Logger) *HookHandler {
	return &HookHandler{hooks: h, users: users, logger: logger}
}

// RenderForm handles GET /api/v1/forms/{hook}
//
// Extra query parameters are treated as the previously posted form.
//
// @Summary  Render the HTML fragment for a user form hook
// @Tags     hooks
// @Produce  html
// @Param    hook     path   string  true   "user_new_form | show_user_profile | edit_user_profile"
// @Param    user_id  query  int     false  "Target user (edit screens)"
// @Success  200
// @Failure  400  {object}  map[string]string
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/forms/{hook} [get]
func (h *HookHandler) RenderForm(w http.ResponseWriter, r *http.Request) {
	point := hooks.RenderPoint(chi.URLParam(r, "hook"))
	if !point.Valid() {
		respondError(w, http.StatusNotFound, "unknown form hook")
		return
	}

	form := r.URL.Query()
	req := hooks.RenderRequest{Actor: auth.FromContext(r.Context()), Form: form}

	if point != hooks.UserNewForm {
		user, ok := h.targetUser(w, r, form)
		if !ok {
			return
		}
		req.User = user
	}
	form.Del("user_id")

	html, err := h.hooks.Render(r.Context(), point, req)
	if err != nil {
		h.logger.Error("render failed",
			zap.String("hook", string(point)),
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

func (h *HookHandler) targetUser(w http.ResponseWriter, r *http.Request, form url.Values) (*domain.User, bool) {
	id, err := strconv.ParseInt(form.Get("user_id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return nil, false
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return nil, false
	}
	return user, true
}

// Register handles POST /api/v1/users/{id}/register
//
// @Summary  Relay the user_register save hook
// @Tags     hooks
// @Accept   x-www-form-urlencoded
// @Param    id   path  int  true  "New user ID"
// @Success  204
// @Failure  400  {object}  map[string]string
// @Router   /api/v1/users/{id}/register [post]
func (h *HookHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, hooks.UserRegister)
}

// Update handles POST /api/v1/users/{id}/update
//
// @Summary  Relay the profile_update save hook
// @Tags     hooks
// @Accept   x-www-form-urlencoded
// @Param    id   path  int  true  "Updated user ID"
// @Success  204
// @Failure  400  {object}  map[string]string
// @Router   /api/v1/users/{id}/update [post]
func (h *HookHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, hooks.ProfileUpdate)
}

// save always answers 204 for a well-formed request: the save hooks no-op
// silently when consent, permission or nonce checks fail.
func (h *HookHandler) save(w http.ResponseWriter, r *http.Request, point hooks.SavePoint) {
	id, ok := userIDParam(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	h.hooks.Save(r.Context(), point, hooks.SaveEvent{
		Actor:  auth.FromContext(r.Context()),
		UserID: id,
		Form:   r.PostForm,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Notices handles GET /api/v1/notices
//
// @Summary  Admin notices for the calling actor
// @Tags     hooks
// @Produce  json
// @Success  200  {object}  map[string]any
// @Router   /api/v1/notices [get]
func (h *HookHandler) Notices(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"data": h.hooks.Notices(r.Context(), auth.FromContext(r.Context())),
	})
}
