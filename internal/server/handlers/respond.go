package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/iudanet/gophgram/internal/apperror"
	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/middleware"
)

// maxFormMemory часть multipart формы, которая держится в памяти
const maxFormMemory = 1 << 20

// base общая часть всех handlers: логгер и отправка ответов
type base struct {
	logger  *slog.Logger
	maxBody int64
}

// sendJSON отправляет JSON ответ
func (b *base) sendJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		b.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError переводит ошибку в HTTP ответ через apperror.Normalize.
// Внутренние ошибки логируются целиком, клиент видит generic сообщение
func (b *base) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := apperror.Normalize(err)
	if status >= http.StatusInternalServerError {
		b.logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	b.sendJSON(w, resp, status)
}

// identity достает личность, положенную AuthMiddleware
func identity(r *http.Request) (models.Identity, error) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		return models.Identity{}, fmt.Errorf("%w: no identity in context", apperror.ErrUnauthenticated)
	}
	return id, nil
}

// payload тело запроса: JSON или multipart форма с необязательным файлом
type payload struct {
	file multipart.File
}

// File returns uploaded file or nil when none was sent
func (p *payload) File() io.Reader {
	if p == nil || p.file == nil {
		return nil
	}
	return p.file
}

// Close releases the uploaded file
func (p *payload) Close() {
	if p != nil && p.file != nil {
		_ = p.file.Close()
	}
}

// decode читает тело в dst. Для multipart формы значения полей
// переносятся в dst по json тегам, а файл из fileField возвращается в payload.
// Поле, отсутствующее в форме, остается нулевым (nil для указателей).
func (b *base) decode(w http.ResponseWriter, r *http.Request, dst any, fileField string) (*payload, error) {
	if b.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, b.maxBody)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return nil, bodyError(err, "invalid JSON body")
		}
		return &payload{}, nil
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, bodyError(err, "invalid multipart form")
	}

	values := make(map[string]string, len(r.MultipartForm.Value))
	for key, vals := range r.MultipartForm.Value {
		if len(vals) > 0 {
			values[key] = vals[0]
		}
	}
	// Значения формы проходят через тот же декодер, что и JSON
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode form values: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, apperror.BadRequest("invalid form values")
	}

	p := &payload{}
	if fileField != "" {
		file, _, err := r.FormFile(fileField)
		switch {
		case err == nil:
			p.file = file
		case errors.Is(err, http.ErrMissingFile):
		default:
			return nil, bodyError(err, "invalid "+fileField+" file")
		}
	}

	return p, nil
}

// bodyError отличает превышение лимита размера от битого тела
func bodyError(err error, msg string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperror.PayloadTooLarge(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
	}
	return apperror.BadRequest("%s", msg)
}
