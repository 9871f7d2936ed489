package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// healthTimeout ограничивает проверку БД
const healthTimeout = 2 * time.Second

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	base
	db      Pinger
	version string
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, db Pinger, version string) *HealthHandler {
	return &HealthHandler{
		base:    base{logger: logger},
		db:      db,
		version: version,
	}
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health обрабатывает GET /health
// 503 если база данных недоступна
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "health check failed", slog.Any("error", err))
		h.sendJSON(w, HealthResponse{Status: "unavailable", Version: h.version}, http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, HealthResponse{Status: "ok", Version: h.version}, http.StatusOK)
}
