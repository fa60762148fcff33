// Package metrics exposes Prometheus collectors for the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	MonthEvaluations *prometheus.CounterVec
	PaymentsRecorded *prometheus.CounterVec
	Logins           *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MonthEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentroll",
			Name:      "month_evaluations_total",
			Help:      "Monthly rent evaluations by outcome.",
		}, []string{"outcome"}),
		PaymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentroll",
			Name:      "payments_recorded_total",
			Help:      "Payments appended to the ledger by method.",
		}, []string{"method"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentroll",
			Name:      "logins_total",
			Help:      "Login attempts by role and result.",
		}, []string{"role", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentroll",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rentroll",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.MonthEvaluations,
		m.PaymentsRecorded,
		m.Logins,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The Observe methods are no-ops on a nil *Metrics.

// ObserveHTTP records one completed request.
func (m *Metrics) ObserveHTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}

// ObserveOutcome counts one month evaluation.
func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.MonthEvaluations.WithLabelValues(outcome).Inc()
}

// ObservePayment counts one recorded payment.
func (m *Metrics) ObservePayment(method string) {
	if m == nil {
		return
	}
	m.PaymentsRecorded.WithLabelValues(method).Inc()
}

// ObserveLogin counts one login attempt.
func (m *Metrics) ObserveLogin(role string, ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.Logins.WithLabelValues(role, result).Inc()
}
