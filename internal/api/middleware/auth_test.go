package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ricirt/consent-sync/internal/api/middleware"
	"github.com/ricirt/consent-sync/internal/auth"
)

func TestActor_DecodesHeaders(t *testing.T) {
	var got auth.Actor
	h := middleware.Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderActorID, "42")
	req.Header.Set(middleware.HeaderActorCapabilities, "create_users, manage_options,,")
	req.Header.Set(middleware.HeaderAdminContext, "true")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, int64(42), got.ID)
	assert.True(t, got.Admin)
	assert.True(t, got.Can(auth.CapCreateUsers))
	assert.True(t, got.Can(auth.CapManageOptions))
	assert.False(t, got.Can(auth.CapEditUsers))
}

func TestActor_AnonymousWithoutHeaders(t *testing.T) {
	var got auth.Actor
	h := middleware.Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = auth.FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Zero(t, got.ID)
	assert.False(t, got.Admin)
	assert.Empty(t, got.Capabilities)
}

func TestBearerAuth(t *testing.T) {
	h := middleware.BearerAuth("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer nope", http.StatusForbidden},
		{"Bearer s3cret", http.StatusTeapot},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, tc.header)
	}
}

func TestCorrelationID_EchoesOrGenerates(t *testing.T) {
	var seen string
	h := middleware.CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Correlation-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
}
