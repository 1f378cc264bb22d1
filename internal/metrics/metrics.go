// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "partnerhub"

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	// Request metrics
	RequestDurationHistogram *prometheus.HistogramVec
	APIRequestCounter        *prometheus.CounterVec
	APIErrorCounter          *prometheus.CounterVec

	// Domain metrics
	PartnerTransitionCounter *prometheus.CounterVec
	AuthzDecisionCounter     *prometheus.CounterVec
	LoginCounter             *prometheus.CounterVec
	RelationSyncErrorCounter *prometheus.CounterVec
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to keep them isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		gatherer: reg,

		RequestDurationHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		APIRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route"},
		),
		APIErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_errors_total",
				Help:      "Total number of HTTP responses with status >= 400",
			},
			[]string{"method", "route", "status"},
		),
		PartnerTransitionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "partner_transitions_total",
				Help:      "Partner status and risk level transitions",
			},
			[]string{"field", "from", "to"},
		),
		AuthzDecisionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authz_decisions_total",
				Help:      "Authorization gate decisions",
			},
			[]string{"gate", "action", "result"},
		),
		LoginCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Login attempts by outcome",
			},
			[]string{"result"},
		),
		RelationSyncErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relation_sync_errors_total",
				Help:      "Failed writes to the external relationship store",
			},
			[]string{"operation"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request count, duration and errors labelled by the
// matched chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		code := strconv.Itoa(status)

		m.APIRequestCounter.WithLabelValues(r.Method, route).Inc()
		m.RequestDurationHistogram.WithLabelValues(r.Method, route, code).Observe(time.Since(start).Seconds())
		if status >= 400 {
			m.APIErrorCounter.WithLabelValues(r.Method, route, code).Inc()
		}
	})
}

// RecordTransition counts a status or risk level change.
func (m *Metrics) RecordTransition(field, from, to string) {
	if m == nil {
		return
	}
	m.PartnerTransitionCounter.WithLabelValues(field, from, to).Inc()
}

// RecordDecision counts an authorization gate outcome.
func (m *Metrics) RecordDecision(gate, action string, allowed bool) {
	if m == nil {
		return
	}
	result := "deny"
	if allowed {
		result = "allow"
	}
	m.AuthzDecisionCounter.WithLabelValues(gate, action, result).Inc()
}

// RecordLogin counts a login attempt outcome.
func (m *Metrics) RecordLogin(result string) {
	if m == nil {
		return
	}
	m.LoginCounter.WithLabelValues(result).Inc()
}

// RecordRelationSyncError counts a failed relationship write.
func (m *Metrics) RecordRelationSyncError(operation string) {
	if m == nil {
		return
	}
	m.RelationSyncErrorCounter.WithLabelValues(operation).Inc()
}
