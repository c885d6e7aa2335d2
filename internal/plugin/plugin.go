// Package plugin wires the consent checkbox, the save hooks, the batch tool
// and the dependency notice into a hooks registry.
package plugin

import (
	"context"

	"go.uber.org/zap"

	"github.com/ricirt/consent-sync/internal/auth"
	"github.com/ricirt/consent-sync/internal/consent"
	"github.com/ricirt/consent-sync/internal/hooks"
	"github.com/ricirt/consent-sync/internal/integration"
	"github.com/ricirt/consent-sync/internal/queue"
	"github.com/ricirt/consent-sync/internal/repository"
	"github.com/ricirt/consent-sync/internal/service"
	"github.com/ricirt/consent-sync/internal/tools"
)

// ShowOnEditFilter toggles the checkbox on the edit-profile screens.
const ShowOnEditFilter = "swp_mc_show_on_edit"

const (
	noticePrefix     = "Mailchimp for WooCommerce – Override & Batch Subscribe: "
	MsgMissing       = noticePrefix + "Mailchimp for WooCommerce must be installed and active."
	MsgNotConfigured = noticePrefix + "Mailchimp for WooCommerce is active but not configured."
	settingsLinkText = "Open settings"
)

// Host is the registry surface needed at bootstrap: registration plus the
// bool filter read for the edit-screen toggle.
type Host interface {
	hooks.Host
	ApplyBool(name string, value bool) bool
}

// NonceManager issues and verifies form nonces.
type NonceManager interface {
	Create(action string, actorID int64) string
	Verify(token, action string, actorID int64) bool
}

// Deps are the collaborators shared by every component.
type Deps struct {
	Repo        repository.UserRepository
	Integration integration.Integration
	Scheduler   queue.Scheduler
	Nonces      NonceManager
	Logger      *zap.Logger

	// Optional metric callbacks.
	OnOutcome func(source, outcome string)
	OnPage    func(users int)
}

// Settings are the operator-controlled toggles.
type Settings struct {
	ShowOnEdit  bool
	BatchChunk  int
	SettingsURL string
}

// Plugin holds the wired components.
type Plugin struct {
	Subscriptions *service.SubscriptionService
	UI            *consent.UI
	Batch         *tools.BatchTool
	ShowOnEdit    bool

	integ       integration.Integration
	settingsURL string
}

// Init builds every component and registers it on h. Bool filters for
// ShowOnEditFilter must be added to h before Init runs.
func Init(h Host, s Settings, d Deps) *Plugin {
	p := &Plugin{integ: d.Integration, settingsURL: s.SettingsURL}

	h.OnAdminNotices(p.DependencyNotice)

	p.Subscriptions = service.NewSubscriptionService(
		d.Repo, d.Integration, d.Nonces, d.Logger.Named("subscription"),
		service.WithOutcomeHook(d.OnOutcome),
	)

	p.ShowOnEdit = h.ApplyBool(ShowOnEditFilter, s.ShowOnEdit)
	p.UI = consent.New(p.Subscriptions, d.Nonces, p.ShowOnEdit)
	p.UI.Register(h)

	p.Subscriptions.RegisterSaveHooks(h)

	p.Batch = tools.NewBatchTool(
		d.Repo, p.Subscriptions, d.Integration, d.Scheduler, d.Logger.Named("batch"),
		tools.WithChunk(s.BatchChunk),
		tools.WithPageHook(d.OnPage),
	)
	p.Batch.Register(h)

	d.Logger.Info("plugin initialised", zap.Bool("show_on_edit", p.ShowOnEdit))
	return p
}

// DependencyNotice warns administrators when the integration is missing or
// not configured.
func (p *Plugin) DependencyNotice(ctx context.Context, actor auth.Actor) (hooks.Notice, bool) {
	if !actor.Can(auth.CapManageOptions) {
		return hooks.Notice{}, false
	}

	st := p.integ.Status(ctx)
	switch {
	case !st.Present:
		return hooks.Notice{Level: hooks.NoticeError, Message: MsgMissing}, true
	case !st.Configured:
		return hooks.Notice{
			Level:    hooks.NoticeWarning,
			Message:  MsgNotConfigured,
			LinkURL:  p.settingsURL,
			LinkText: settingsLinkText,
		}, true
	}
	return hooks.Notice{}, false
}
