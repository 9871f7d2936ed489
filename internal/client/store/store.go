// Package store держит клиентское состояние: сессию, ленту постов и
// комментарии открытого поста. Каждая операция проходит через
// pending и заканчивается fulfilled или rejected, подписчики
// получают снимок после каждого перехода.
package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	clientapi "github.com/iudanet/gophgram/internal/client/api"
	"github.com/iudanet/gophgram/internal/client/storage"
	"github.com/iudanet/gophgram/pkg/api"
)

// Status стадия асинхронной операции над срезом состояния
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusRejected  Status = "rejected"
)

// Error ошибка последней операции: список ошибок полей или одно сообщение
type Error struct {
	Message string
	Fields  []api.FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// AuthState срез сессии
type AuthState struct {
	User   *api.UserProfile
	Error  *Error
	Status Status
}

// PostsState срез ленты
type PostsState struct {
	Error  *Error
	Status Status
	Items  []api.Post
}

// CommentsState срез комментариев одного поста
type CommentsState struct {
	Error  *Error
	Status Status
	PostID string
	Items  []api.Comment
}

// State снимок всего состояния
type State struct {
	Auth     AuthState
	Posts    PostsState
	Comments CommentsState
}

// API методы сервера, которые использует store
type API interface {
	Token() string
	SetToken(token string)

	Signup(ctx context.Context, req api.SignupRequest, avatar *clientapi.File) (*api.UserProfile, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.UserProfile, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*api.UserProfile, error)
	UpdateMe(ctx context.Context, req api.UpdateProfileRequest, avatar *clientapi.File) (*api.UserProfile, error)

	ListPosts(ctx context.Context) ([]api.Post, error)
	CreatePost(ctx context.Context, req api.CreatePostRequest, image *clientapi.File) (*api.Post, error)
	UpdatePost(ctx context.Context, id string, req api.UpdatePostRequest, image *clientapi.File) (*api.Post, error)
	DeletePost(ctx context.Context, id string) error
	LikePost(ctx context.Context, id string) (*api.LikeResponse, error)

	ListComments(ctx context.Context, postID string) ([]api.Comment, error)
	CreateComment(ctx context.Context, postID string, req api.CreateCommentRequest) (*api.Comment, error)
	UpdateComment(ctx context.Context, id string, req api.UpdateCommentRequest) (*api.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	LikeComment(ctx context.Context, id string) (*api.LikeResponse, error)
}

// Listener получает снимок состояния после перехода.
// Listener не должен вызывать операции store
type Listener func(State)

// Store клиентское хранилище состояния
type Store struct {
	api       API
	sessions  storage.AuthStorage
	logger    *slog.Logger
	listeners map[int]Listener
	now       func() time.Time
	serverURL string
	state     State
	nextID    int
	mu        sync.Mutex // state, listeners
	notifyMu  sync.Mutex // сериализует переходы вместе с уведомлениями
}

// New создает store. sessions может быть nil, тогда сессия живет только в памяти
func New(logger *slog.Logger, client API, sessions storage.AuthStorage, serverURL string) *Store {
	return &Store{
		api:       client,
		sessions:  sessions,
		logger:    logger,
		serverURL: serverURL,
		listeners: make(map[int]Listener),
		now:       time.Now,
		state: State{
			Auth:     AuthState{Status: StatusIdle},
			Posts:    PostsState{Status: StatusIdle},
			Comments: CommentsState{Status: StatusIdle},
		},
	}
}

// Subscribe регистрирует listener, возвращает функцию отписки
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// update применяет переход и уведомляет подписчиков
func (s *Store) update(fn func(st *State)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	fn(&s.state)
	snap := s.snapshot()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// snapshot must be called with mu held
func (s *Store) snapshot() State {
	st := s.state
	if st.Auth.User != nil {
		u := *st.Auth.User
		st.Auth.User = &u
	}
	st.Posts.Items = slices.Clone(st.Posts.Items)
	st.Comments.Items = slices.Clone(st.Comments.Items)
	return st
}

// toError приводит ошибку API к виду для отображения
func toError(err error) *Error {
	var apiErr *clientapi.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Code
		}
		return &Error{Message: msg, Fields: apiErr.Fields}
	}
	return &Error{Message: err.Error()}
}

// dropSessionOn401 сбрасывает сессию, если сервер ее больше не принимает.
// Вызывается внутри update
func (s *Store) dropSessionOn401(ctx context.Context, st *State, err error) {
	if !clientapi.IsUnauthorized(err) || st.Auth.User == nil {
		return
	}
	st.Auth = AuthState{Status: StatusRejected, Error: toError(err)}
	s.api.SetToken("")
	s.forgetSession(ctx)
}
