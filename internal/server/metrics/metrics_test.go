package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Event(t *testing.T) {
	m := New()

	m.Event(EventSignup)
	m.Event(EventSignup)
	m.Event(EventLogin)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsTotal.WithLabelValues(EventSignup)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsTotal.WithLabelValues(EventLogin)))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "GET /posts", http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodGet, "GET /posts", "200")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Event(EventLogin)
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Event(EventPostCreated)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gophgram_events_total{event="post_created"} 1`)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
