// Package metrics содержит Prometheus метрики HTTP сервера и бизнес-событий.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gophgram"

// Business events
const (
	EventSignup         = "signup"
	EventLogin          = "login"
	EventLoginFailed    = "login_failed"
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
	EventLikeToggled    = "like_toggled"
)

// Metrics holds collectors registered in its own registry,
// so several instances can coexist in tests.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	eventsTotal     *prometheus.CounterVec
}

// New creates metrics with Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// Labels: method, route (ServeMux pattern), status
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),

		// Labels: event (signup, login, post_created, ...)
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total business events",
		}, []string{"event"}),
	}
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Event increments business event counter. Safe on nil receiver
func (m *Metrics) Event(name string) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(name).Inc()
}

// Registry returns underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes metrics in Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
