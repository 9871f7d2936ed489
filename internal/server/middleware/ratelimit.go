package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/gophgram/internal/apperror"
)

// ErrRateLimited is returned when a client exhausted its request budget
var ErrRateLimited = fmt.Errorf("%w: rate limit exceeded, please try again later", apperror.ErrTooManyRequests)

// RateLimiter представляет rate limiter на основе токен-бакета (token bucket)
type RateLimiter struct {
	buckets    map[string]*bucket
	logger     *slog.Logger
	cleanupC   chan struct{}
	stopOnce   sync.Once
	rate       int
	window     time.Duration
	mu         sync.Mutex
	trustProxy bool
}

// bucket представляет bucket для конкретного IP
type bucket struct {
	lastRefill time.Time
	tokens     int
}

// NewRateLimiter создает новый rate limiter.
// rate - максимальное количество запросов за window.
func NewRateLimiter(rate int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		window:   window,
		logger:   logger,
		cleanupC: make(chan struct{}),
	}

	// Периодическая очистка неактивных buckets
	go rl.cleanup()

	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupOldBuckets()
		case <-rl.cleanupC:
			return
		}
	}
}

// cleanupOldBuckets удаляет buckets, которые не пополнялись дольше 2*window
func (rl *RateLimiter) cleanupOldBuckets() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastRefill) > rl.window*2 {
			delete(rl.buckets, key)
		}
	}
}

// TrustProxyHeaders включает определение IP по X-Forwarded-For и X-Real-IP.
// Имеет смысл только за reverse proxy, который перезаписывает эти заголовки.
// Вызывать до начала обслуживания запросов.
func (rl *RateLimiter) TrustProxyHeaders(trust bool) *RateLimiter {
	rl.trustProxy = trust
	return rl
}

// Stop останавливает cleanup goroutine. Повторный вызов безопасен
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.cleanupC) })
}

// Allow проверяет, разрешен ли запрос для данного ключа (обычно IP адрес)
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{tokens: rl.rate, lastRefill: now}
		rl.buckets[key] = b
	}

	// Окно истекло - бакет наполняется заново
	if now.Sub(b.lastRefill) >= rl.window {
		b.tokens = rl.rate
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}

	return false
}

// Middleware ограничивает частоту запросов по IP клиента.
// Один limiter можно навесить на несколько маршрутов с общим бюджетом.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := getClientIP(r, rl.trustProxy)

		if !rl.Allow(key) {
			rl.logger.Warn("Rate limit exceeded",
				"ip", key,
				"method", r.Method,
				"path", r.URL.Path,
			)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
			writeError(w, rl.logger, ErrRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP извлекает IP адрес клиента из запроса.
// Заголовки X-Forwarded-For и X-Real-IP учитываются только при trustProxy,
// иначе клиент мог бы менять их и получать новый bucket на каждый запрос.
func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// Первый IP из X-Forwarded-For - реальный клиент
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	// Порт отбрасываем, иначе каждое соединение получит свой bucket
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
