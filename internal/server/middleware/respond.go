package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/iudanet/gophgram/internal/apperror"
)

// writeError отправляет ошибку клиенту в общем JSON формате
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, body := apperror.Normalize(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
		logger.Error("Failed to encode error response", "error", encErr)
	}
}
