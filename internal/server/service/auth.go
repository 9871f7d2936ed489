package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/gophgram/internal/apperror"
	"github.com/iudanet/gophgram/internal/crypto"
	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/storage"
	"github.com/iudanet/gophgram/internal/validation"
	"github.com/iudanet/gophgram/pkg/api"
)

// Session is a freshly issued token for an authenticated user
type Session struct {
	ExpiresAt time.Time
	User      *models.User
	Token     string
}

// AuthService регистрирует пользователей, выполняет вход и меняет профиль
type AuthService struct {
	logger *slog.Logger
	users  storage.UserStorage
	tokens TokenIssuer
	images ImageStore
	now    func() time.Time
}

// NewAuthService создает сервис авторизации
func NewAuthService(logger *slog.Logger, users storage.UserStorage, tokens TokenIssuer, images ImageStore) *AuthService {
	return &AuthService{
		logger: logger,
		users:  users,
		tokens: tokens,
		images: images,
		now:    time.Now,
	}
}

// Signup создает пользователя и выпускает для него токен.
// avatar может быть nil.
func (s *AuthService) Signup(ctx context.Context, req api.SignupRequest, avatar io.Reader) (*Session, error) {
	req.Email = validation.NormalizeEmail(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	if err := validation.Check(req); err != nil {
		return nil, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatarName, err := saveImage(s.images, avatar, "avatar")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: hash,
		Username:     req.Username,
		Avatar:       avatarName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		dropImage(s.logger, s.images, avatarName)
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			s.logger.WarnContext(ctx, "email already registered", slog.String("email", req.Email))
			return nil, apperror.Conflict("email already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))

	return s.issue(user)
}

// Login проверяет пароль и выпускает токен.
// Неизвестный email и неверный пароль дают одну и ту же ошибку.
func (s *AuthService) Login(ctx context.Context, req api.LoginRequest) (*Session, error) {
	req.Email = validation.NormalizeEmail(req.Email)

	if err := validation.Check(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Время ответа не должно выдавать существование email
			crypto.BurnCompare(req.Password)
			s.logger.WarnContext(ctx, "login for unknown email")
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := crypto.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			s.logger.WarnContext(ctx, "wrong password", slog.String("user_id", user.ID))
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return s.issue(user)
}

// Me returns the current user profile
func (s *AuthService) Me(ctx context.Context, caller models.Identity) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", apperror.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateMe меняет username и/или аватар текущего пользователя
func (s *AuthService) UpdateMe(ctx context.Context, caller models.Identity, req api.UpdateProfileRequest, avatar io.Reader) (*models.User, error) {
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		req.Username = &trimmed
	}

	if err := validation.Check(req); err != nil {
		return nil, err
	}

	user, err := s.Me(ctx, caller)
	if err != nil {
		return nil, err
	}

	if req.Username == nil && avatar == nil {
		return user, nil
	}

	avatarName, err := saveImage(s.images, avatar, "avatar")
	if err != nil {
		return nil, err
	}

	oldAvatar := user.Avatar
	if req.Username != nil {
		user.Username = *req.Username
	}
	if avatarName != "" {
		user.Avatar = avatarName
	}
	user.UpdatedAt = s.now().UTC()

	if err := s.users.UpdateUser(ctx, user); err != nil {
		dropImage(s.logger, s.images, avatarName)
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", apperror.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if avatarName != "" {
		dropImage(s.logger, s.images, oldAvatar)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))

	return user, nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	tok, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{User: user, Token: tok, ExpiresAt: expiresAt}, nil
}
