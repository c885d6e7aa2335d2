package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ricirt/consent-sync/internal/auth"
)

// Headers set by the host on every bridged hook call.
const (
	HeaderActorID           = "X-Actor-ID"
	HeaderActorCapabilities = "X-Actor-Capabilities"
	HeaderAdminContext      = "X-Admin-Context"
)

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// BearerAuth rejects requests that do not carry the shared host token.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "missing or incorrect token")
				return
			}
			got := strings.TrimPrefix(header, "Bearer ")
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusForbidden, "missing or incorrect token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Actor decodes the acting host user from the request headers and stores it
// on the context. Missing headers yield an anonymous actor with no
// capabilities; the hooks then no-op.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id int64
		if v := r.Header.Get(HeaderActorID); v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil || parsed < 0 {
				writeError(w, http.StatusBadRequest, "invalid "+HeaderActorID)
				return
			}
			id = parsed
		}

		var caps []auth.Capability
		for _, c := range strings.Split(r.Header.Get(HeaderActorCapabilities), ",") {
			if c = strings.TrimSpace(c); c != "" {
				caps = append(caps, auth.Capability(c))
			}
		}

		admin, _ := strconv.ParseBool(r.Header.Get(HeaderAdminContext))
		actor := auth.NewActor(id, admin, caps...)
		next.ServeHTTP(w, r.WithContext(auth.WithActor(r.Context(), actor)))
	})
}
