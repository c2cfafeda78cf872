package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/activities/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, id := range []string{"a1", "a2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/activities/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/activities/{id}", "GET", "200")))
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Transition("approved")
	m.Transition("approved")
	m.StoreError("transition_activity")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActivityTransitions.WithLabelValues("approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("transition_activity")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.Transition("rejected")
		nilMetrics.StoreError("list_activities")
	})
}
