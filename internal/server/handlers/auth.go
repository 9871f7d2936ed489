package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/iudanet/gophgram/internal/apperror"
	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/metrics"
	"github.com/iudanet/gophgram/internal/server/middleware"
	"github.com/iudanet/gophgram/internal/server/service"
	"github.com/iudanet/gophgram/pkg/api"
)

// AuthService is the auth business logic used by AuthHandler
type AuthService interface {
	Signup(ctx context.Context, req api.SignupRequest, avatar io.Reader) (*service.Session, error)
	Login(ctx context.Context, req api.LoginRequest) (*service.Session, error)
	Me(ctx context.Context, caller models.Identity) (*models.User, error)
	UpdateMe(ctx context.Context, caller models.Identity, req api.UpdateProfileRequest, avatar io.Reader) (*models.User, error)
}

// AuthHandler обрабатывает запросы авторизации и профиля
type AuthHandler struct {
	base
	auth         AuthService
	present      *Presenter
	metrics      *metrics.Metrics
	secureCookie bool
}

// AuthOptions настройки AuthHandler
type AuthOptions struct {
	Metrics      *metrics.Metrics
	MaxBody      int64
	SecureCookie bool
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, auth AuthService, present *Presenter, opts AuthOptions) *AuthHandler {
	return &AuthHandler{
		base:         base{logger: logger, maxBody: opts.MaxBody},
		auth:         auth,
		present:      present,
		metrics:      opts.Metrics,
		secureCookie: opts.SecureCookie,
	}
}

// Signup обрабатывает POST /auth/signup
// JSON или multipart форма с необязательным файлом "avatar"
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req api.SignupRequest
	body, err := h.decode(w, r, &req, "avatar")
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	defer body.Close()

	sess, err := h.auth.Signup(r.Context(), req, body.File())
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.metrics.Event(metrics.EventSignup)
	h.setSessionCookie(w, sess.Token)
	h.sendJSON(w, api.AuthResponse{User: h.present.User(sess.User)}, http.StatusCreated)
}

// Login обрабатывает POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	body, err := h.decode(w, r, &req, "")
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	defer body.Close()

	sess, err := h.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, apperror.ErrInvalidCredentials) {
			h.metrics.Event(metrics.EventLoginFailed)
		}
		h.sendError(w, r, err)
		return
	}

	h.metrics.Event(metrics.EventLogin)
	h.setSessionCookie(w, sess.Token)
	h.sendJSON(w, api.AuthResponse{User: h.present.User(sess.User)}, http.StatusOK)
}

// Logout обрабатывает POST /auth/logout
// Токен не отзывается, только удаляется cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	h.sendJSON(w, api.MessageResponse{Message: "logged out"}, http.StatusOK)
}

// Me обрабатывает GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	user, err := h.auth.Me(r.Context(), caller)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.sendJSON(w, api.AuthResponse{User: h.present.User(user)}, http.StatusOK)
}

// UpdateMe обрабатывает PUT /auth/me
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	var req api.UpdateProfileRequest
	body, err := h.decode(w, r, &req, "avatar")
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	defer body.Close()

	user, err := h.auth.UpdateMe(r.Context(), caller, req, body.File())
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	h.sendJSON(w, api.AuthResponse{User: h.present.User(user)}, http.StatusOK)
}

// setSessionCookie выставляет session cookie без Expires, браузер
// удалит ее при закрытии, а срок жизни ограничивает сам токен
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
