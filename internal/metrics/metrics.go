// Package metrics holds the prometheus collectors shared by the HTTP layer,
// the lifecycle engine and the record stores.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	ActivityTransitions *prometheus.CounterVec
	StoreErrors         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		ActivityTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_transitions_total",
				Help: "Activities moved out of pending, by resulting status",
			},
			[]string{"status"},
		),
		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_operation_errors_total",
				Help: "Record store operations that failed as unavailable",
			},
			[]string{"op"},
		),
	}

	reg.MustRegister(m.HTTPRequests, m.ActivityTransitions, m.StoreErrors)
	return m
}

// Transition counts an accepted approve or reject.
func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}
	m.ActivityTransitions.WithLabelValues(status).Inc()
}

// StoreError counts a store failure for the named operation.
func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(op).Inc()
}

// Middleware counts requests by chi route pattern so ids do not explode the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		m.HTTPRequests.WithLabelValues(path, r.Method, strconv.Itoa(ww.Status())).Inc()
	})
}
