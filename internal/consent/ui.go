package consent

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/ricirt/consent-sync/internal/auth"
	"github.com/ricirt/consent-sync/internal/domain"
	"github.com/ricirt/consent-sync/internal/hooks"
)

// CheckboxField is the posted field name of the consent checkbox.
const CheckboxField = domain.ConsentField

const (
	refererField = "_wp_http_referer"
	newUserPath  = "/wp-admin/user-new.php"
	editUserPath = "/wp-admin/user-edit.php"
)

// NonceNames supplies the nonce field and action the save handlers verify.
type NonceNames interface {
	NonceField() string
	NonceAction() string
}

// NonceIssuer creates nonces for the acting user.
type NonceIssuer interface {
	Create(action string, actorID int64) string
}

var checkboxTmpl = template.Must(template.New("consent").Parse(`
<input type="hidden" id="{{.NonceField}}" name="{{.NonceField}}" value="{{.Nonce}}" />
<input type="hidden" name="{{.RefererField}}" value="{{.Referer}}" />
<h2>Newsletter Subscription (Mailchimp)</h2>
<table class="form-table" role="presentation"><tbody>
<tr>
<th><label for="{{.Field}}">Subscribe to our newsletter</label></th>
<td><label><input type="checkbox" id="{{.Field}}" name="{{.Field}}" value="1"{{if .Checked}} checked="checked"{{end}} /> If checked, the user will be subscribed via Mailchimp for WooCommerce.</label></td>
</tr>
</tbody></table>
`))

type checkboxView struct {
	NonceField   string
	Nonce        string
	RefererField string
	Referer      string
	Field        string
	Checked      bool
}

// UI renders the consent checkbox on the user forms. Rendering never changes
// state; the save handlers act on the posted value.
type UI struct {
	names      NonceNames
	nonces     NonceIssuer
	showOnEdit bool
}

func New(names NonceNames, nonces NonceIssuer, showOnEdit bool) *UI {
	return &UI{names: names, nonces: nonces, showOnEdit: showOnEdit}
}

// Register attaches the render callbacks. The edit-profile screens are only
// covered when showOnEdit is set.
func (u *UI) Register(h hooks.Host) {
	h.OnRender(hooks.UserNewForm, u.RenderOnAddNew)
	if u.showOnEdit {
		h.OnRender(hooks.ShowUserProfile, u.RenderOnEdit)
		h.OnRender(hooks.EditUserProfile, u.RenderOnEdit)
	}
}

// RenderOnAddNew renders on the new-user screen for actors who can create users.
func (u *UI) RenderOnAddNew(_ context.Context, req hooks.RenderRequest) (template.HTML, error) {
	if !req.Actor.Can(auth.CapCreateUsers) {
		return "", nil
	}
	return u.render(req, newUserPath)
}

// RenderOnEdit renders on the profile screens for actors who can edit the user.
func (u *UI) RenderOnEdit(_ context.Context, req hooks.RenderRequest) (template.HTML, error) {
	if req.User == nil || !req.Actor.CanEditUser(req.User.ID) {
		return "", nil
	}
	return u.render(req, fmt.Sprintf("%s?user_id=%d", editUserPath, req.User.ID))
}

func (u *UI) render(req hooks.RenderRequest, referer string) (template.HTML, error) {
	view := checkboxView{
		NonceField:   u.names.NonceField(),
		Nonce:        u.nonces.Create(u.names.NonceAction(), req.Actor.ID),
		RefererField: refererField,
		Referer:      referer,
		Field:        CheckboxField,
		Checked:      posted(req),
	}

	var buf bytes.Buffer
	if err := checkboxTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render consent checkbox: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}

// posted re-checks the box when the host re-renders a submitted form.
func posted(req hooks.RenderRequest) bool {
	v := req.Form.Get(CheckboxField)
	return v != "" && v != "0"
}
