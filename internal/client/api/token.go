package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry читает exp из токена без проверки подписи.
// Секрет есть только у сервера, клиенту срок нужен для статуса сессии
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}
