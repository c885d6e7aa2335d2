package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ricirt/consent-sync/internal/api/handler"
	apimw "github.com/ricirt/consent-sync/internal/api/middleware"
	"github.com/ricirt/consent-sync/internal/hooks"
	"github.com/ricirt/consent-sync/internal/queue"
	"github.com/ricirt/consent-sync/internal/repository"
)

// Deps are the collaborators behind the HTTP bridge.
type Deps struct {
	Hooks        *hooks.Registry
	Users        repository.UserRepository
	Queue        queue.Queue
	Integration  handler.IntegrationProbe
	QueueBackend string
	HostToken    string
	Gatherer     prometheus.Gatherer
	Logger       *zap.Logger
}

// NewRouter wires the chi router, attaches all middleware, and registers
// every route. It is the single source of truth for the HTTP surface area.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)          // recover panics, return 500
	r.Use(chimw.RealIP)             // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(1<<20)) // 1 MB max request body
	r.Use(apimw.CorrelationID)      // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(d.Logger))

	// --- handler instances ---
	hk := handler.NewHookHandler(d.Hooks, d.Users, d.Logger)
	th := handler.NewToolHandler(d.Hooks, d.Logger)
	qh := handler.NewQueueHandler(d.Queue, d.QueueBackend, d.Logger)
	hh := handler.NewHealthHandler(d.Queue, d.Integration, d.QueueBackend)

	// --- routes ---
	r.Get("/health", hh.Health)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apimw.BearerAuth(d.HostToken))
		r.Use(apimw.Actor)

		r.Get("/forms/{hook}", hk.RenderForm)
		r.Post("/users/{id}/register", hk.Register)
		r.Post("/users/{id}/update", hk.Update)
		r.Get("/notices", hk.Notices)

		r.Get("/tools", th.List)
		r.Post("/tools/{id}", th.Run)

		r.Get("/queue", qh.GetQueue)
	})

	return r
}
