// Package nonce issues short-lived form tokens bound to an action name and
// the acting user.
//
// A token stays valid for two ticks of half the configured lifetime, so it
// lives between lifetime/2 and lifetime depending on when it was issued.
package nonce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

const tokenLength = 20

// MinLifetime is the shortest lifetime New accepts; shorter values fall
// back to the 24h default.
const MinLifetime = time.Second

// Manager creates and verifies nonces.
type Manager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New returns a Manager signing with secret. A lifetime below MinLifetime
// falls back to 24h.
func New(secret string, lifetime time.Duration, opts ...Option) *Manager {
	if lifetime < MinLifetime {
		lifetime = 24 * time.Hour
	}
	m := &Manager{secret: []byte(secret), lifetime: lifetime, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create returns a token for action on behalf of actorID.
func (m *Manager) Create(action string, actorID int64) string {
	return m.token(m.tick(), action, actorID)
}

// Verify reports whether token was issued for action and actorID within the
// current or previous tick.
func (m *Manager) Verify(token, action string, actorID int64) bool {
	if token == "" {
		return false
	}
	tick := m.tick()
	for _, t := range []int64{tick, tick - 1} {
		if hmac.Equal([]byte(token), []byte(m.token(t, action, actorID))) {
			return true
		}
	}
	return false
}

func (m *Manager) tick() int64 {
	half := int64(m.lifetime / 2)
	return (m.now().UnixNano() + half - 1) / half
}

func (m *Manager) token(tick int64, action string, actorID int64) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(strconv.FormatInt(tick, 10)))
	mac.Write([]byte{'|'})
	mac.Write([]byte(action))
	mac.Write([]byte{'|'})
	mac.Write([]byte(strconv.FormatInt(actorID, 10)))
	return hex.EncodeToString(mac.Sum(nil))[:tokenLength]
}
