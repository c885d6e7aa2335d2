package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// statusRecorder captures what the handler wrote for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// probePaths are polled constantly and logged at debug only.
var probePaths = map[string]bool{"/health": true, "/metrics": true}

// RequestLogger writes one access line per bridged call. Besides the HTTP
// basics it records the matched route, the hook, tool or user the call
// targeted and the acting host user, so a save or tool run can be traced
// back to who triggered it.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			level := zapcore.InfoLevel
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = zapcore.ErrorLevel
			case probePaths[r.URL.Path]:
				level = zapcore.DebugLevel
			}
			ce := logger.Check(level, "hook bridge request")
			if ce == nil {
				return
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Int("bytes", rec.bytes),
				zap.Duration("latency", time.Since(start)),
				zap.String("correlation_id", GetCorrelationID(r.Context())),
			}
			if actor := r.Header.Get(HeaderActorID); actor != "" {
				fields = append(fields, zap.String("actor_id", actor))
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					fields = append(fields, zap.String("route", pattern))
				}
				for i, key := range rctx.URLParams.Keys {
					if i < len(rctx.URLParams.Values) {
						fields = append(fields, zap.String(routeField(key), rctx.URLParams.Values[i]))
					}
				}
			}
			ce.Write(fields...)
		})
	}
}

// routeField names the log field for a path parameter.
func routeField(key string) string {
	if key == "id" {
		return "target_id"
	}
	return key
}
