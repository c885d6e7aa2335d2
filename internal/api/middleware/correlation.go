package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderCorrelationID is echoed on every response.
const HeaderCorrelationID = "X-Correlation-ID"

// headerRequestID is what the host's HTTP client sends when it has no
// correlation id of its own.
const headerRequestID = "X-Request-ID"

// maxCorrelationIDLen caps ids taken from the host so a hostile header
// cannot bloat every log line.
const maxCorrelationIDLen = 128

type correlationKey struct{}

// CorrelationID ties a bridged hook call to the host request that fired it.
// The id is taken from X-Correlation-ID, then X-Request-ID; a missing or
// oversized value is replaced by a fresh UUID.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := hostCorrelationID(r)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(HeaderCorrelationID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationKey{}, id)))
	})
}

func hostCorrelationID(r *http.Request) string {
	for _, h := range []string{HeaderCorrelationID, headerRequestID} {
		if v := r.Header.Get(h); v != "" {
			if len(v) > maxCorrelationIDLen {
				return ""
			}
			return v
		}
	}
	return ""
}

// GetCorrelationID returns the id stored by CorrelationID, or "" outside it.
func GetCorrelationID(ctx context.Context) string {
	v, _ := ctx.Value(correlationKey{}).(string)
	return v
}
