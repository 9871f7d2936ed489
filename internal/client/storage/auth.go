package storage

import (
	"context"
	"time"

	"github.com/iudanet/gophgram/pkg/api"
)

// AuthStorage хранит текущую сессию клиента между запусками CLI
type AuthStorage interface {
	// SaveAuth сохраняет сессию, перезаписывая предыдущую
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth возвращает сохраненную сессию как есть.
	// Returns ErrAuthNotFound if no session exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// LoadSession returns the saved session if it is usable against serverURL at now.
	// An expired session or one issued by another server is deleted
	// and ErrSessionStale is returned.
	LoadSession(ctx context.Context, serverURL string, now time.Time) (*AuthData, error)

	// DeleteAuth удаляет сессию (logout)
	DeleteAuth(ctx context.Context) error
}

// AuthData сессия пользователя: профиль из ответа сервера и токен из cookie
type AuthData struct {
	User      api.UserProfile `json:"user"`
	Token     string          `json:"token"`
	ServerURL string          `json:"server_url"`
	ExpiresAt int64           `json:"expires_at"` // unix seconds, 0 если срок неизвестен
}

// Expired reports whether the session token is past its expiry at now
func (a *AuthData) Expired(now time.Time) bool {
	return a.ExpiresAt > 0 && now.Unix() >= a.ExpiresAt
}

// IssuedBy reports whether the session belongs to serverURL.
// Сессии без адреса сервера (старый формат) принимаются любым сервером
func (a *AuthData) IssuedBy(serverURL string) bool {
	return a.ServerURL == "" || a.ServerURL == serverURL
}
