package middleware

import (
	"net/http"
	"time"

	"github.com/iudanet/gophgram/internal/server/metrics"
)

// MetricsMiddleware записывает количество и длительность запросов.
// Маршрут берется из шаблона ServeMux, чтобы ID не попадали в метки.
func MetricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
