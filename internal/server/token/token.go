// Package token выпускает и проверяет подписанные session token (HS256 JWT).
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/gophgram/internal/apperror"
)

// DefaultTTL время жизни session token
const DefaultTTL = 7 * 24 * time.Hour

// Issuer записывается в claim iss и проверяется при Verify
const Issuer = "gophgram"

// Claims represents JWT claims of a session token
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Service issues and verifies signed session tokens.
// There is no revocation list: a token stays valid until it expires.
type Service struct {
	now    func() time.Time
	secret []byte
	ttl    time.Duration
}

// NewService creates a new token service.
// ttl <= 0 falls back to DefaultTTL. An empty secret is not rejected here:
// Issue fails with apperror.ErrConfiguration instead.
func NewService(secret string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns lifetime of issued tokens
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Issue creates a new signed token for userID
func (s *Service) Issue(userID string) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: jwt secret is not set", apperror.ErrConfiguration)
	}
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("user id cannot be empty")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// Verify checks signature and expiry and returns the embedded user id.
// Every failure wraps apperror.ErrInvalidToken.
func (s *Service) Verify(tokenString string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: jwt secret is not set", apperror.ErrConfiguration)
	}
	if tokenString == "" {
		return "", fmt.Errorf("%w: empty token", apperror.ErrInvalidToken)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", apperror.ErrInvalidToken)
		}
		return "", fmt.Errorf("%w: %v", apperror.ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("%w: bad claims", apperror.ErrInvalidToken)
	}

	return claims.UserID, nil
}
