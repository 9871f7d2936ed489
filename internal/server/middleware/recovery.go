package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RecoveryMiddleware создает middleware для восстановления после паники.
// Перехватывает panic, логирует стек вызовов и возвращает 500 в JSON формате.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// Прерывание соединения обрабатывает сам net/http
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("Panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"stack", string(debug.Stack()),
				)

				// Клиенту отдаем generic ошибку, детали только в логе
				writeError(w, logger, fmt.Errorf("panic: %v", rec))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
