package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewRateLimiter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rate := 10
	window := 1 * time.Minute

	limiter := NewRateLimiter(rate, window, logger)

	assert.NotNil(t, limiter)
	assert.Equal(t, rate, limiter.rate)
	assert.Equal(t, window, limiter.window)
	assert.NotNil(t, limiter.buckets)
	assert.NotNil(t, limiter.cleanupC)

	// Cleanup
	limiter.Stop()
}

func TestRateLimiter_Allow(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("First requests within limit are allowed", func(t *testing.T) {
		limiter := NewRateLimiter(5, 1*time.Minute, logger)
		defer limiter.Stop()

		key := "192.168.1.1"

		// Первые 5 запросов должны пройти
		for i := 0; i < 5; i++ {
			allowed := limiter.Allow(key)
			assert.True(t, allowed, fmt.Sprintf("request %d should be allowed", i+1))
		}
	})

	t.Run("Requests over limit are denied", func(t *testing.T) {
		limiter := NewRateLimiter(3, 1*time.Minute, logger)
		defer limiter.Stop()

		key := "192.168.1.2"

		// Первые 3 запроса проходят
		for i := 0; i < 3; i++ {
			allowed := limiter.Allow(key)
			assert.True(t, allowed)
		}

		// 4-й запрос блокируется
		allowed := limiter.Allow(key)
		assert.False(t, allowed, "request over limit should be denied")
	})

	t.Run("Different keys are tracked separately", func(t *testing.T) {
		limiter := NewRateLimiter(2, 1*time.Minute, logger)
		defer limiter.Stop()

		key1 := "192.168.1.1"
		key2 := "192.168.1.2"

		// key1: 2 запроса проходят
		assert.True(t, limiter.Allow(key1))
		assert.True(t, limiter.Allow(key1))
		assert.False(t, limiter.Allow(key1), "key1 over limit")

		// key2: независимые 2 запроса
		assert.True(t, limiter.Allow(key2))
		assert.True(t, limiter.Allow(key2))
		assert.False(t, limiter.Allow(key2), "key2 over limit")
	})

	t.Run("Tokens refill after window expires", func(t *testing.T) {
		limiter := NewRateLimiter(2, 50*time.Millisecond, logger)
		defer limiter.Stop()

		key := "192.168.1.3"

		// Используем все токены
		assert.True(t, limiter.Allow(key))
		assert.True(t, limiter.Allow(key))
		assert.False(t, limiter.Allow(key), "should be rate limited")

		// Ждем окончания window
		time.Sleep(60 * time.Millisecond)

		// Токены должны обновиться
		assert.True(t, limiter.Allow(key), "tokens should be refilled")
		assert.True(t, limiter.Allow(key), "tokens should be refilled")
	})
}

func TestRateLimiter_Middleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("success"))
	})

	t.Run("Requests within limit pass through", func(t *testing.T) {
		limiter := NewRateLimiter(5, 1*time.Minute, logger)
		defer limiter.Stop()
		handler := limiter.Middleware(ok)

		for i := 0; i < 5; i++ {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "192.168.1.1:12345"
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code, fmt.Sprintf("request %d should pass", i+1))
			assert.Equal(t, "success", w.Body.String())
		}
	})

	t.Run("Requests over limit are blocked with 429", func(t *testing.T) {
		limiter := NewRateLimiter(3, 1*time.Minute, logger)
		defer limiter.Stop()
		handler := limiter.Middleware(ok)

		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.RemoteAddr = "192.168.1.2:12345"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}

		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.168.1.2:12345"
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate limit exceeded")
	})

	t.Run("New connections from same IP share a bucket", func(t *testing.T) {
		limiter := NewRateLimiter(1, 1*time.Minute, logger)
		defer limiter.Stop()
		handler := limiter.Middleware(ok)

		req1 := httptest.NewRequest(http.MethodPost, "/auth/signup", nil)
		req1.RemoteAddr = "192.168.1.3:1111"
		w1 := httptest.NewRecorder()
		handler.ServeHTTP(w1, req1)
		assert.Equal(t, http.StatusOK, w1.Code)

		req2 := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req2.RemoteAddr = "192.168.1.3:2222"
		w2 := httptest.NewRecorder()
		handler.ServeHTTP(w2, req2)
		assert.Equal(t, http.StatusTooManyRequests, w2.Code)
	})

	t.Run("Different IPs are tracked separately", func(t *testing.T) {
		limiter := NewRateLimiter(1, 1*time.Minute, logger)
		defer limiter.Stop()
		handler := limiter.Middleware(ok)

		for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = addr
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code, addr)
		}
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		headers    map[string]string
		name       string
		remoteAddr string
		expected   string
		trustProxy bool
	}{
		{
			name:       "X-Forwarded-For with single IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.1",
		},
		{
			name:       "X-Forwarded-For with chain",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 70.41.3.18"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.1",
		},
		{
			name:       "X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "198.51.100.7"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "198.51.100.7",
		},
		{
			name:       "proxy headers ignored by default",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1", "X-Real-IP": "198.51.100.7"},
			remoteAddr: "10.0.0.1:12345",
			expected:   "10.0.0.1",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.1:12345",
			expected:   "192.168.1.1",
		},
		{
			name:       "RemoteAddr that is not host:port",
			remoteAddr: "unix-socket",
			expected:   "unix-socket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.expected, getClientIP(req, tt.trustProxy))
		})
	}
}

func TestRateLimiter_SpoofedForwardedFor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(h http.Handler, i int) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.168.1.9:4000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("rotating header does not reset the budget", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute, logger)
		defer limiter.Stop()
		handler := limiter.Middleware(ok)

		assert.Equal(t, http.StatusOK, send(handler, 1))
		assert.Equal(t, http.StatusOK, send(handler, 2))
		assert.Equal(t, http.StatusTooManyRequests, send(handler, 3))
	})

	t.Run("behind a trusted proxy header selects the bucket", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute, logger).TrustProxyHeaders(true)
		defer limiter.Stop()
		handler := limiter.Middleware(ok)

		assert.Equal(t, http.StatusOK, send(handler, 1))
		assert.Equal(t, http.StatusOK, send(handler, 2))
		assert.Equal(t, http.StatusTooManyRequests, send(handler, 2))
	})
}

func TestRateLimiter_CleanupOldBuckets(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := NewRateLimiter(5, 10*time.Millisecond, logger)
	defer limiter.Stop()

	limiter.Allow("192.168.1.1")
	limiter.Allow("192.168.1.2")

	limiter.mu.Lock()
	assert.Len(t, limiter.buckets, 2)
	limiter.mu.Unlock()

	time.Sleep(30 * time.Millisecond)
	limiter.cleanupOldBuckets()

	limiter.mu.Lock()
	assert.Empty(t, limiter.buckets, "stale buckets should be removed")
	limiter.mu.Unlock()
}

func TestRateLimiter_StopTwice(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.NotPanics(t, func() {
		limiter.Stop()
		limiter.Stop()
	})
}

func TestRateLimiter_LogsExceededRequests(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	limiter := NewRateLimiter(1, time.Minute, logger)
	defer limiter.Stop()

	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Contains(t, logBuf.String(), "Rate limit exceeded")
	assert.Contains(t, logBuf.String(), "/auth/login")
}
