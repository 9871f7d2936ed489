// Package apperror описывает таксономию ошибок приложения и их
// отображение в HTTP ответы.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/iudanet/gophgram/pkg/api"
)

// Sentinel errors of the application taxonomy
var (
	// ErrUnauthenticated indicates missing session or vanished user
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidToken indicates bad signature, malformed or expired token
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidCredentials indicates wrong email/password pair
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden indicates authenticated caller is not the owner
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates referenced entity is absent
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates unique constraint violation (email taken)
	ErrConflict = errors.New("conflict")

	// ErrBadRequest indicates malformed request body
	ErrBadRequest = errors.New("bad request")

	// ErrTooManyRequests indicates exhausted rate limit
	ErrTooManyRequests = errors.New("too many requests")

	// ErrPayloadTooLarge indicates upload over the size limit
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrConfiguration indicates missing or invalid server configuration
	ErrConfiguration = errors.New("configuration error")
)

// FieldError описывает ошибку валидации одного поля
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError содержит все ошибки валидации запроса, а не только первую
type ValidationError struct {
	Fields []FieldError
}

// Error implements error
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field has at least one error
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// kindError несет сообщение для клиента и sentinel для errors.Is
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// BadRequest wraps ErrBadRequest with message visible to the client
func BadRequest(format string, args ...any) error {
	return &kindError{kind: ErrBadRequest, msg: fmt.Sprintf(format, args...)}
}

// NotFound wraps ErrNotFound, e.g. NotFound("post") -> "post not found"
func NotFound(entity string) error {
	return &kindError{kind: ErrNotFound, msg: entity + " not found"}
}

// Conflict wraps ErrConflict with message visible to the client
func Conflict(msg string) error {
	return &kindError{kind: ErrConflict, msg: msg}
}

// PayloadTooLarge wraps ErrPayloadTooLarge with message visible to the client
func PayloadTooLarge(msg string) error {
	return &kindError{kind: ErrPayloadTooLarge, msg: msg}
}

// Normalize отображает ошибку в HTTP статус и тело ответа.
// Чистая функция: не логирует и не пишет в ответ. Для 500 сообщение всегда
// generic, детали должен залогировать вызывающий.
func Normalize(err error) (int, api.ErrorResponse) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		fields := make([]api.FieldError, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			fields = append(fields, api.FieldError{Field: f.Field, Message: f.Message})
		}
		return response(http.StatusBadRequest, "validation failed", fields)
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return response(http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUnauthenticated):
		return response(http.StatusUnauthorized, "authentication required", nil)
	case errors.Is(err, ErrForbidden):
		return response(http.StatusForbidden, "you are not the author of this resource", nil)
	case errors.Is(err, ErrNotFound):
		return response(http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ErrConflict):
		return response(http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ErrBadRequest):
		return response(http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrPayloadTooLarge):
		return response(http.StatusRequestEntityTooLarge, err.Error(), nil)
	case errors.Is(err, ErrTooManyRequests):
		return response(http.StatusTooManyRequests, "rate limit exceeded, please try again later", nil)
	default:
		return response(http.StatusInternalServerError, "internal server error", nil)
	}
}

func response(status int, msg string, fields []api.FieldError) (int, api.ErrorResponse) {
	return status, api.ErrorResponse{
		Error:   http.StatusText(status),
		Message: msg,
		Fields:  fields,
	}
}
