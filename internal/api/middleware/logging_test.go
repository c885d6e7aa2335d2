package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ricirt/consent-sync/internal/api/middleware"
)

func loggedRouter(logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(logger))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {})
	r.Post("/api/v1/tools/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})
	r.Get("/api/v1/forms/{hook}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r
}

func TestRequestLogger_RecordsHookTarget(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := loggedRouter(zap.New(core))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/mc4wc_ob_batch_subscribe", nil)
	req.Header.Set(middleware.HeaderActorID, "42")
	req.Header.Set(middleware.HeaderCorrelationID, "corr-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "/api/v1/tools/{id}", fields["route"])
	assert.Equal(t, "mc4wc_ob_batch_subscribe", fields["target_id"])
	assert.Equal(t, "42", fields["actor_id"])
	assert.Equal(t, "corr-1", fields["correlation_id"])
	assert.EqualValues(t, len(`{"message":"ok"}`), fields["bytes"])
}

func TestRequestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := loggedRouter(zap.New(core))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/forms/user_new_form", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "user_new_form", entries[1].ContextMap()["hook"])
}

func TestRequestLogger_SkipsProbesAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := loggedRouter(zap.New(core))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Zero(t, logs.Len())
}

func TestCorrelationID_HostFallbacks(t *testing.T) {
	var seen string
	h := middleware.CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "wp-req-9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "wp-req-9", seen)
	assert.Equal(t, "wp-req-9", rec.Header().Get(middleware.HeaderCorrelationID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderCorrelationID, strings.Repeat("x", 500))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Len(t, seen, 36, "oversized id replaced by a uuid")
}
