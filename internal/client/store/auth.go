package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	clientapi "github.com/iudanet/gophgram/internal/client/api"
	"github.com/iudanet/gophgram/internal/client/storage"
	"github.com/iudanet/gophgram/pkg/api"
)

// Restore поднимает сохраненную сессию. Просроченная сессия или
// сессия другого сервера удаляется, состояние остается idle
func (s *Store) Restore(ctx context.Context) error {
	if s.sessions == nil {
		return nil
	}

	saved, err := s.sessions.LoadSession(ctx, s.serverURL, s.now())
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
		return nil
	case errors.Is(err, storage.ErrSessionStale):
		s.logger.Info("saved session dropped", slog.String("server", s.serverURL))
		return nil
	case err != nil:
		return fmt.Errorf("failed to load session: %w", err)
	}

	s.api.SetToken(saved.Token)
	user := saved.User
	s.update(func(st *State) {
		st.Auth = AuthState{Status: StatusFulfilled, User: &user}
	})
	return nil
}

// Signup регистрирует пользователя и открывает сессию
func (s *Store) Signup(ctx context.Context, req api.SignupRequest, avatar *clientapi.File) error {
	return s.authenticate(ctx, func() (*api.UserProfile, error) {
		return s.api.Signup(ctx, req, avatar)
	})
}

// Login открывает сессию
func (s *Store) Login(ctx context.Context, req api.LoginRequest) error {
	return s.authenticate(ctx, func() (*api.UserProfile, error) {
		return s.api.Login(ctx, req)
	})
}

func (s *Store) authenticate(ctx context.Context, call func() (*api.UserProfile, error)) error {
	s.update(func(st *State) {
		st.Auth.Status = StatusPending
		st.Auth.Error = nil
	})

	user, err := call()
	if err != nil {
		s.update(func(st *State) {
			st.Auth = AuthState{Status: StatusRejected, Error: toError(err)}
		})
		return err
	}

	s.saveSession(ctx, user)
	s.update(func(st *State) {
		st.Auth = AuthState{Status: StatusFulfilled, User: user}
	})
	return nil
}

// Logout закрывает сессию. Локальная сессия удаляется даже если сервер недоступен
func (s *Store) Logout(ctx context.Context) error {
	s.update(func(st *State) {
		st.Auth.Status = StatusPending
		st.Auth.Error = nil
	})

	err := s.api.Logout(ctx)
	s.api.SetToken("")
	s.forgetSession(ctx)

	s.update(func(st *State) {
		st.Auth = AuthState{Status: StatusFulfilled}
	})
	if err != nil {
		return fmt.Errorf("server logout failed, local session removed: %w", err)
	}
	return nil
}

// FetchMe запрашивает профиль текущего пользователя
func (s *Store) FetchMe(ctx context.Context) error {
	return s.refreshUser(ctx, func() (*api.UserProfile, error) {
		return s.api.Me(ctx)
	})
}

// UpdateMe обновляет имя и/или аватар текущего пользователя
func (s *Store) UpdateMe(ctx context.Context, req api.UpdateProfileRequest, avatar *clientapi.File) error {
	return s.refreshUser(ctx, func() (*api.UserProfile, error) {
		return s.api.UpdateMe(ctx, req, avatar)
	})
}

func (s *Store) refreshUser(ctx context.Context, call func() (*api.UserProfile, error)) error {
	s.update(func(st *State) {
		st.Auth.Status = StatusPending
		st.Auth.Error = nil
	})

	user, err := call()
	if err != nil {
		s.update(func(st *State) {
			st.Auth.Status = StatusRejected
			st.Auth.Error = toError(err)
			s.dropSessionOn401(ctx, st, err)
		})
		return err
	}

	s.saveSession(ctx, user)
	s.update(func(st *State) {
		st.Auth = AuthState{Status: StatusFulfilled, User: user}
	})
	return nil
}

// saveSession сохраняет токен и профиль. Ошибка хранилища не ломает
// текущую сессию, только логируется
func (s *Store) saveSession(ctx context.Context, user *api.UserProfile) {
	if s.sessions == nil || user == nil {
		return
	}

	token := s.api.Token()
	if token == "" {
		s.logger.Warn("server did not return a session token")
		return
	}

	data := &storage.AuthData{
		User:      *user,
		Token:     token,
		ServerURL: s.serverURL,
	}
	if exp, err := clientapi.TokenExpiry(token); err == nil {
		data.ExpiresAt = exp.Unix()
	} else {
		s.logger.Debug("session expiry unknown", slog.Any("error", err))
	}

	if err := s.sessions.SaveAuth(ctx, data); err != nil {
		s.logger.Warn("failed to save session", slog.Any("error", err))
	}
}

func (s *Store) forgetSession(ctx context.Context) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		s.logger.Warn("failed to delete session", slog.Any("error", err))
	}
}
