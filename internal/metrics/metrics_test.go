package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/partners/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/partners/abc", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRequestCounter.WithLabelValues("GET", "/partners/{id}")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIErrorCounter.WithLabelValues("GET", "/partners/{id}", "404")))
}

func TestRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordTransition("status", "pending", "approved")
	m.RecordDecision("object_gate", "retrieve", false)
	m.RecordLogin("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PartnerTransitionCounter.WithLabelValues("status", "pending", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthzDecisionCounter.WithLabelValues("object_gate", "retrieve", "deny")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginCounter.WithLabelValues("success")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordTransition("status", "a", "b")
		m.RecordDecision("permission_gate", "create", true)
		m.RecordLogin("failure")
		m.RecordRelationSyncError("write")
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordLogin("success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "partnerhub_logins_total"))
}
