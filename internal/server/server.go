// Package server собирает HTTP API: маршруты, цепочку middleware и
// жизненный цикл http.Server с graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/iudanet/gophgram/internal/server/config"
	"github.com/iudanet/gophgram/internal/server/handlers"
	"github.com/iudanet/gophgram/internal/server/metrics"
	"github.com/iudanet/gophgram/internal/server/middleware"
	"github.com/iudanet/gophgram/internal/server/service"
	"github.com/iudanet/gophgram/internal/server/static"
	"github.com/iudanet/gophgram/internal/server/storage/sqlite"
	"github.com/iudanet/gophgram/internal/server/token"
	"github.com/iudanet/gophgram/internal/server/uploads"
)

// UploadPrefix URL путь, по которому раздаются загруженные файлы
const UploadPrefix = "/uploads/"

// StaticPrefix URL путь встроенных ресурсов, включая аватар-заглушку
const StaticPrefix = "/static/"

// formOverhead запас на поля multipart формы сверх размера файла
const formOverhead = 1 << 20

// Deps зависимости сервера, создаваемые и закрываемые вызывающим
type Deps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Storage *sqlite.Storage
	Uploads *uploads.Store
	Tokens  *token.Service
	Metrics *metrics.Metrics
	Version string
}

// Server HTTP сервер приложения
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	limiter    *middleware.RateLimiter
	handler    http.Handler
	shutdown   time.Duration
}

// New собирает сервисы, handlers и маршруты
func New(d Deps) *Server {
	cfg := d.Config
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, d.Logger).TrustProxyHeaders(cfg.TrustProxy)

	s := &Server{
		logger:   d.Logger,
		limiter:  limiter,
		shutdown: cfg.ShutdownTimeout,
	}
	s.handler = s.routes(d)
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          slog.NewLogLogger(d.Logger.Handler(), slog.LevelWarn),
	}

	return s
}

// Handler returns the root handler with all middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes(d Deps) http.Handler {
	cfg := d.Config
	maxBody := cfg.UploadMaxSize + formOverhead
	present := handlers.NewPresenter(UploadPrefix, cfg.DefaultAvatarURL)

	authSvc := service.NewAuthService(d.Logger, d.Storage, d.Tokens, d.Uploads)
	postSvc := service.NewPostService(d.Logger, d.Storage, d.Uploads)
	commentSvc := service.NewCommentService(d.Logger, d.Storage, d.Storage)

	authH := handlers.NewAuthHandler(d.Logger, authSvc, present, handlers.AuthOptions{
		Metrics:      d.Metrics,
		MaxBody:      maxBody,
		SecureCookie: cfg.CookieSecure,
	})
	postH := handlers.NewPostHandler(d.Logger, postSvc, present, d.Metrics, maxBody)
	commentH := handlers.NewCommentHandler(d.Logger, commentSvc, present, d.Metrics, maxBody)
	healthH := handlers.NewHealthHandler(d.Logger, d.Storage, d.Version)

	session := middleware.AuthMiddleware(d.Logger, d.Tokens, d.Storage)
	protected := func(h http.HandlerFunc) http.Handler { return session(h) }
	limited := func(h http.HandlerFunc) http.Handler { return s.limiter.Middleware(h) }

	mux := http.NewServeMux()

	// Auth
	mux.Handle("POST /auth/signup", limited(authH.Signup))
	mux.Handle("POST /auth/login", limited(authH.Login))
	mux.HandleFunc("POST /auth/logout", authH.Logout)
	mux.Handle("GET /auth/me", protected(authH.Me))
	mux.Handle("PUT /auth/me", protected(authH.UpdateMe))

	// Posts
	mux.HandleFunc("GET /posts", postH.List)
	mux.Handle("POST /posts", protected(postH.Create))
	mux.HandleFunc("GET /posts/{id}", postH.Get)
	mux.Handle("PUT /posts/{id}", protected(postH.Update))
	mux.Handle("DELETE /posts/{id}", protected(postH.Delete))
	mux.Handle("POST /posts/{id}/like", protected(postH.Like))

	// Comments
	mux.HandleFunc("GET /posts/{postId}/comments", commentH.List)
	mux.HandleFunc("GET /posts/{postId}/comments/count", commentH.Count)
	mux.Handle("POST /posts/{postId}/comments", protected(commentH.Create))
	mux.Handle("PUT /comments/{id}", protected(commentH.Update))
	mux.Handle("DELETE /comments/{id}", protected(commentH.Delete))
	mux.Handle("POST /comments/{id}/like", protected(commentH.Like))

	// Static and service endpoints
	mux.Handle("GET "+UploadPrefix, d.Uploads.Handler(UploadPrefix))
	mux.Handle("GET "+StaticPrefix, static.Handler(StaticPrefix))
	mux.HandleFunc("GET /health", healthH.Health)
	mux.Handle("GET /metrics", d.Metrics.Handler())

	var h http.Handler = mux
	h = middleware.CORSMiddleware(cfg.CORSOrigin)(h)
	h = middleware.MetricsMiddleware(d.Metrics)(h)
	h = middleware.LoggingWithSkip(d.Logger, []string{"/health", "/metrics"})(h)
	h = middleware.RecoveryMiddleware(d.Logger)(h)

	return h
}

// Run слушает адрес из конфигурации до отмены ctx
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve обслуживает ln до отмены ctx, затем ждет завершения активных
// запросов не дольше ShutdownTimeout
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.limiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", slog.String("addr", ln.Addr().String()))
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", slog.Duration("timeout", s.shutdown))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
