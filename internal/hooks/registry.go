package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"sync"

	"github.com/ricirt/consent-sync/internal/auth"
	"github.com/ricirt/consent-sync/internal/domain"
)

// Registry stores callbacks in registration order and fires them.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	renders map[RenderPoint][]RenderFunc
	saves   map[SavePoint][]SaveFunc
	notices []NoticeFunc
	tools   []ToolsFilter
	bools   map[string][]BoolFilter
	actions map[string]ActionFunc
}

func NewRegistry() *Registry {
	return &Registry{
		renders: map[RenderPoint][]RenderFunc{},
		saves:   map[SavePoint][]SaveFunc{},
		bools:   map[string][]BoolFilter{},
		actions: map[string]ActionFunc{},
	}
}

func (r *Registry) OnRender(point RenderPoint, fn RenderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders[point] = append(r.renders[point], fn)
}

func (r *Registry) OnSave(point SavePoint, fn SaveFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves[point] = append(r.saves[point], fn)
}

func (r *Registry) OnAdminNotices(fn NoticeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, fn)
}

func (r *Registry) FilterTools(fn ToolsFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools = append(r.tools, fn)
}

func (r *Registry) FilterBool(name string, fn BoolFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bools[name] = append(r.bools[name], fn)
}

// OnAction registers the single handler for a queued action name; a later
// registration replaces an earlier one.
func (r *Registry) OnAction(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// Render concatenates the output of every callback on point.
func (r *Registry) Render(ctx context.Context, point RenderPoint, req RenderRequest) (template.HTML, error) {
	r.mu.RLock()
	fns := append([]RenderFunc(nil), r.renders[point]...)
	r.mu.RUnlock()

	var b strings.Builder
	for _, fn := range fns {
		out, err := fn(ctx, req)
		if err != nil {
			return "", fmt.Errorf("render %s: %w", point, err)
		}
		b.WriteString(string(out))
	}
	return template.HTML(b.String()), nil //nolint:gosec // fragments are produced by html/template
}

// Save fires every callback on point.
func (r *Registry) Save(ctx context.Context, point SavePoint, ev SaveEvent) {
	r.mu.RLock()
	fns := append([]SaveFunc(nil), r.saves[point]...)
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(ctx, ev)
	}
}

// Notices collects the notices shown to actor.
func (r *Registry) Notices(ctx context.Context, actor auth.Actor) []Notice {
	r.mu.RLock()
	fns := append([]NoticeFunc(nil), r.notices...)
	r.mu.RUnlock()

	out := []Notice{}
	for _, fn := range fns {
		if n, ok := fn(ctx, actor); ok {
			out = append(out, n)
		}
	}
	return out
}

// Tools runs the tools filters over an empty panel and returns the entries
// sorted by id.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	fns := append([]ToolsFilter(nil), r.tools...)
	r.mu.RUnlock()

	panel := map[string]Tool{}
	for _, fn := range fns {
		panel = fn(panel)
	}

	out := make([]Tool, 0, len(panel))
	for id, t := range panel {
		t.ID = id
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RunTool invokes the callback of tool id.
func (r *Registry) RunTool(ctx context.Context, id string, actor auth.Actor) (string, error) {
	for _, t := range r.Tools() {
		if t.ID == id && t.Callback != nil {
			return t.Callback(ctx, actor), nil
		}
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnknownTool, id)
}

// ApplyBool passes value through every filter registered under name.
func (r *Registry) ApplyBool(name string, value bool) bool {
	r.mu.RLock()
	fns := append([]BoolFilter(nil), r.bools[name]...)
	r.mu.RUnlock()

	for _, fn := range fns {
		value = fn(value)
	}
	return value
}

// RunAction invokes the handler registered for name.
func (r *Registry) RunAction(ctx context.Context, name string, args json.RawMessage) error {
	r.mu.RLock()
	fn, ok := r.actions[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownAction, name)
	}
	return fn(ctx, args)
}

var _ Host = (*Registry)(nil)
