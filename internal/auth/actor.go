package auth

import "context"

// Capability names mirror the host's user-management capabilities.
type Capability string

const (
	CapCreateUsers       Capability = "create_users"
	CapEditUsers         Capability = "edit_users"
	CapManageOptions     Capability = "manage_options"
	CapManageWooCommerce Capability = "manage_woocommerce"
)

// Actor is the host user on whose behalf a hook fires.
type Actor struct {
	ID           int64
	Capabilities map[Capability]bool

	// Admin is true when the hook fired from an administrative screen.
	Admin bool
}

// NewActor builds an actor holding the given capabilities.
func NewActor(id int64, admin bool, caps ...Capability) Actor {
	a := Actor{ID: id, Admin: admin, Capabilities: make(map[Capability]bool, len(caps))}
	for _, c := range caps {
		a.Capabilities[c] = true
	}
	return a
}

// Can reports whether the actor holds cap.
func (a Actor) Can(c Capability) bool {
	return a.Capabilities[c]
}

// CanAny reports whether the actor holds at least one of caps.
func (a Actor) CanAny(caps ...Capability) bool {
	for _, c := range caps {
		if a.Can(c) {
			return true
		}
	}
	return false
}

// CanEditUser is the per-object edit_user check: users may edit their own
// profile, anyone else needs edit_users.
func (a Actor) CanEditUser(userID int64) bool {
	if a.ID != 0 && a.ID == userID {
		return true
	}
	return a.Can(CapEditUsers)
}

type contextKey struct{}

// WithActor stores the actor on ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext returns the actor stored by WithActor, or an anonymous actor
// without capabilities.
func FromContext(ctx context.Context) Actor {
	a, _ := ctx.Value(contextKey{}).(Actor)
	return a
}
