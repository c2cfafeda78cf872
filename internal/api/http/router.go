package api

import (
	"log/slog"
	"net/http"

	"github.com/adamanr/worklog_service/internal/metrics"
	logging "github.com/adamanr/worklog_service/internal/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the API routes with the shared middleware stack,
// /healthz and, when gatherer is set, /metrics.
func NewRouter(server *Server, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
	}

	origins := server.deps.Config.Server.CORSOrigins
	if len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		server.ok(w, http.StatusOK, "OK", nil)
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		server.httpResponse(w, http.StatusNotFound, response{Message: "Route not found"})
	})

	HandlerWithOptions(server, ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			server.httpResponse(w, http.StatusBadRequest, response{Message: "Validation failed", Errors: []string{err.Error()}})
		},
	})

	return r
}
