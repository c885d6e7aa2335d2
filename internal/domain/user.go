package domain

// SubscribedMetaKey is the per-user attribute owned by the email marketing
// integration. This service only reads and writes it.
const SubscribedMetaKey = "mailchimp_woocommerce_is_subscribed"

// Flag is the value stored under SubscribedMetaKey.
type Flag string

const (
	FlagUnset        Flag = ""
	FlagNo           Flag = "0"
	FlagSubscribed   Flag = "1"
	FlagUnsubscribed Flag = "unsubscribed"
)

// Queueable reports whether a user carrying this flag may be handed to the
// integration. Subscribed users are already queued and opted-out users must
// never be re-queued.
func (f Flag) Queueable() bool {
	return f != FlagSubscribed && f != FlagUnsubscribed
}

// User is the slice of the host's user record this service needs.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// HasEmail reports whether the user can be submitted at all.
func (u *User) HasEmail() bool {
	return u != nil && u.Email != ""
}

// ConsentField is the posted form field carrying the consent checkbox.
const ConsentField = "swp_mc_marketing_subscribe"
