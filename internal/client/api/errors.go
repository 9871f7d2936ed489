package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/iudanet/gophgram/pkg/api"
)

// Error ответ сервера со статусом вне 2xx
type Error struct {
	Code    string
	Message string
	Fields  []api.FieldError
	Status  int
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		return fmt.Sprintf("server error (%d): %s", e.Status, strings.Join(parts, "; "))
	}
	msg := e.Message
	if msg == "" {
		msg = e.Code
	}
	return fmt.Sprintf("server error (%d): %s", e.Status, msg)
}

func newError(status int, body []byte) *Error {
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || (errResp.Error == "" && errResp.Message == "") {
		return &Error{Status: status, Code: http.StatusText(status), Message: strings.TrimSpace(string(body))}
	}
	return &Error{
		Status:  status,
		Code:    errResp.Error,
		Message: errResp.Message,
		Fields:  errResp.Fields,
	}
}

// StatusCode returns HTTP status carried by err, 0 when err is not a server error
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether the server rejected the session
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
