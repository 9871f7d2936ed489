package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/gophgram/internal/apperror"
	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/storage"
)

// CookieName is the session cookie set on signup and login
const CookieName = "token"

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier проверяет токен сессии и возвращает ID пользователя
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserLookup загружает пользователя по ID
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// AuthMiddleware создает middleware проверки сессии.
// Токен берется из cookie, при ее отсутствии из заголовка Authorization.
// Пользователь должен существовать на момент запроса.
func AuthMiddleware(logger *slog.Logger, verifier TokenVerifier, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := extractToken(r)
			if err != nil {
				logger.Debug("Request without session", "path", r.URL.Path, "error", err)
				writeError(w, logger, err)
				return
			}

			userID, err := verifier.Verify(raw)
			if err != nil {
				logger.Warn("Invalid session token", "error", err)
				writeError(w, logger, err)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					logger.Warn("Session user no longer exists", "user_id", userID)
					writeError(w, logger, fmt.Errorf("%w: user not found", apperror.ErrUnauthenticated))
					return
				}
				logger.Error("Failed to load session user", "user_id", userID, "error", err)
				writeError(w, logger, err)
				return
			}

			logger.Debug("User authenticated", "user_id", user.ID, "username", user.Username)

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), user.Identity())))
		})
	}
}

// extractToken достает токен из cookie или из "Bearer <token>"
func extractToken(r *http.Request) (string, error) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", fmt.Errorf("%w: missing token", apperror.ErrUnauthenticated)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: invalid authorization header format", apperror.ErrUnauthenticated)
	}

	return strings.TrimSpace(parts[1]), nil
}

// WithIdentity returns a copy of ctx carrying the authenticated identity
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored by AuthMiddleware
func IdentityFrom(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	return id, ok
}
