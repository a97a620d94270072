package httpapi

import (
	"net/http"

	"request-guard/internal/projects"
	"request-guard/middleware/guard"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Options struct {
	Guard    *guard.Guard
	Projects *projects.Service
	Logger   *zap.Logger

	// Metrics, se não for nil, é servido em /metrics fora do guard.
	Metrics http.Handler
}

// NewRouter monta as rotas. /stats e /check-duplicate vêm antes de /{id}
// para não serem capturadas como id.
func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &handlers{svc: opts.Projects, logger: opts.Logger}
	g := opts.Guard

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		guard.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/projects").Subrouter()

	api.Handle("", g.Wrap(h.list,
		guard.WithoutOriginCheck(), guard.WithRateLimitKey("projects:get"))).Methods(http.MethodGet)
	api.Handle("", g.Wrap(h.create,
		guard.WithRateLimitKey("projects:post"))).Methods(http.MethodPost)

	api.Handle("/stats", g.Wrap(h.stats,
		guard.WithoutOriginCheck(), guard.WithRateLimitKey("projects:stats"))).Methods(http.MethodGet)
	api.Handle("/check-duplicate", g.Wrap(h.checkDuplicate,
		guard.WithoutOriginCheck(), guard.WithRateLimitKey("projects:check-duplicate"))).Methods(http.MethodGet)

	api.Handle("/{id}", g.Wrap(h.get,
		guard.WithoutOriginCheck(), guard.WithRateLimitKey("projects:getById"))).Methods(http.MethodGet)
	api.Handle("/{id}", g.Wrap(h.update,
		guard.WithRateLimitKey("projects:put"))).Methods(http.MethodPut)
	api.Handle("/{id}", g.Wrap(h.delete,
		guard.WithRateLimitKey("projects:delete"))).Methods(http.MethodDelete)
	api.Handle("/{id}/archive", g.Wrap(h.archive,
		guard.WithRateLimitKey("projects:archive"))).Methods(http.MethodPost)

	return r
}
