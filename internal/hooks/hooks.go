// Package hooks is the event-dispatch collaborator between the host CMS and
// this service. Components register callbacks on a Host explicitly; the
// HTTP bridge and the action runner fire them through the Registry.
package hooks

import (
	"context"
	"encoding/json"
	"html/template"
	"net/url"

	"github.com/ricirt/consent-sync/internal/auth"
	"github.com/ricirt/consent-sync/internal/domain"
)

// RenderPoint names a host form-rendering hook.
type RenderPoint string

const (
	UserNewForm     RenderPoint = "user_new_form"
	ShowUserProfile RenderPoint = "show_user_profile"
	EditUserProfile RenderPoint = "edit_user_profile"
)

// Valid reports whether p is a known render point.
func (p RenderPoint) Valid() bool {
	switch p {
	case UserNewForm, ShowUserProfile, EditUserProfile:
		return true
	}
	return false
}

// SavePoint names a host user-save hook.
type SavePoint string

const (
	UserRegister  SavePoint = "user_register"
	ProfileUpdate SavePoint = "profile_update"
)

// RenderRequest is passed to render callbacks. User is nil on the new-user
// form. Form holds previously posted values when the host re-renders.
type RenderRequest struct {
	Actor auth.Actor
	User  *domain.User
	Form  url.Values
}

// SaveEvent is passed to save callbacks with the submitted form data.
type SaveEvent struct {
	Actor  auth.Actor
	UserID int64
	Form   url.Values
}

// NoticeLevel selects how the host styles an admin notice.
type NoticeLevel string

const (
	NoticeError   NoticeLevel = "error"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is an admin-facing message.
type Notice struct {
	Level    NoticeLevel `json:"level"`
	Message  string      `json:"message"`
	LinkURL  string      `json:"link_url,omitempty"`
	LinkText string      `json:"link_text,omitempty"`
}

// Tool is an entry in the host's administrative tools panel.
type Tool struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Button      string `json:"button"`
	Description string `json:"description"`

	Callback func(ctx context.Context, actor auth.Actor) string `json:"-"`
}

type (
	RenderFunc  func(ctx context.Context, req RenderRequest) (template.HTML, error)
	SaveFunc    func(ctx context.Context, ev SaveEvent)
	NoticeFunc  func(ctx context.Context, actor auth.Actor) (Notice, bool)
	ToolsFilter func(tools map[string]Tool) map[string]Tool
	BoolFilter  func(value bool) bool
	ActionFunc  func(ctx context.Context, args json.RawMessage) error
)

// Host is the registration surface handed to components at bootstrap.
type Host interface {
	OnRender(point RenderPoint, fn RenderFunc)
	OnSave(point SavePoint, fn SaveFunc)
	OnAdminNotices(fn NoticeFunc)
	FilterTools(fn ToolsFilter)
	FilterBool(name string, fn BoolFilter)
	OnAction(name string, fn ActionFunc)
}
