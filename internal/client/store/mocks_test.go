package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	clientapi "github.com/iudanet/gophgram/internal/client/api"
	"github.com/iudanet/gophgram/internal/client/storage/boltdb"
	"github.com/iudanet/gophgram/pkg/api"
)

var errNotImplemented = errors.New("not implemented")

// mockAPI ручной мок серверного API: незаданный метод возвращает errNotImplemented
type mockAPI struct {
	SignupFn        func(ctx context.Context, req api.SignupRequest, avatar *clientapi.File) (*api.UserProfile, error)
	LoginFn         func(ctx context.Context, req api.LoginRequest) (*api.UserProfile, error)
	LogoutFn        func(ctx context.Context) error
	MeFn            func(ctx context.Context) (*api.UserProfile, error)
	UpdateMeFn      func(ctx context.Context, req api.UpdateProfileRequest, avatar *clientapi.File) (*api.UserProfile, error)
	ListPostsFn     func(ctx context.Context) ([]api.Post, error)
	CreatePostFn    func(ctx context.Context, req api.CreatePostRequest, image *clientapi.File) (*api.Post, error)
	UpdatePostFn    func(ctx context.Context, id string, req api.UpdatePostRequest, image *clientapi.File) (*api.Post, error)
	DeletePostFn    func(ctx context.Context, id string) error
	LikePostFn      func(ctx context.Context, id string) (*api.LikeResponse, error)
	ListCommentsFn  func(ctx context.Context, postID string) ([]api.Comment, error)
	CreateCommentFn func(ctx context.Context, postID string, req api.CreateCommentRequest) (*api.Comment, error)
	UpdateCommentFn func(ctx context.Context, id string, req api.UpdateCommentRequest) (*api.Comment, error)
	DeleteCommentFn func(ctx context.Context, id string) error
	LikeCommentFn   func(ctx context.Context, id string) (*api.LikeResponse, error)

	mu    sync.Mutex
	token string
}

var _ API = (*mockAPI)(nil)
var _ API = (*clientapi.Client)(nil)

func (m *mockAPI) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *mockAPI) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *mockAPI) Signup(ctx context.Context, req api.SignupRequest, avatar *clientapi.File) (*api.UserProfile, error) {
	if m.SignupFn == nil {
		return nil, errNotImplemented
	}
	return m.SignupFn(ctx, req, avatar)
}

func (m *mockAPI) Login(ctx context.Context, req api.LoginRequest) (*api.UserProfile, error) {
	if m.LoginFn == nil {
		return nil, errNotImplemented
	}
	return m.LoginFn(ctx, req)
}

func (m *mockAPI) Logout(ctx context.Context) error {
	if m.LogoutFn == nil {
		return nil
	}
	return m.LogoutFn(ctx)
}

func (m *mockAPI) Me(ctx context.Context) (*api.UserProfile, error) {
	if m.MeFn == nil {
		return nil, errNotImplemented
	}
	return m.MeFn(ctx)
}

func (m *mockAPI) UpdateMe(ctx context.Context, req api.UpdateProfileRequest, avatar *clientapi.File) (*api.UserProfile, error) {
	if m.UpdateMeFn == nil {
		return nil, errNotImplemented
	}
	return m.UpdateMeFn(ctx, req, avatar)
}

func (m *mockAPI) ListPosts(ctx context.Context) ([]api.Post, error) {
	if m.ListPostsFn == nil {
		return nil, errNotImplemented
	}
	return m.ListPostsFn(ctx)
}

func (m *mockAPI) CreatePost(ctx context.Context, req api.CreatePostRequest, image *clientapi.File) (*api.Post, error) {
	if m.CreatePostFn == nil {
		return nil, errNotImplemented
	}
	return m.CreatePostFn(ctx, req, image)
}

func (m *mockAPI) UpdatePost(ctx context.Context, id string, req api.UpdatePostRequest, image *clientapi.File) (*api.Post, error) {
	if m.UpdatePostFn == nil {
		return nil, errNotImplemented
	}
	return m.UpdatePostFn(ctx, id, req, image)
}

func (m *mockAPI) DeletePost(ctx context.Context, id string) error {
	if m.DeletePostFn == nil {
		return errNotImplemented
	}
	return m.DeletePostFn(ctx, id)
}

func (m *mockAPI) LikePost(ctx context.Context, id string) (*api.LikeResponse, error) {
	if m.LikePostFn == nil {
		return nil, errNotImplemented
	}
	return m.LikePostFn(ctx, id)
}

func (m *mockAPI) ListComments(ctx context.Context, postID string) ([]api.Comment, error) {
	if m.ListCommentsFn == nil {
		return nil, errNotImplemented
	}
	return m.ListCommentsFn(ctx, postID)
}

func (m *mockAPI) CreateComment(ctx context.Context, postID string, req api.CreateCommentRequest) (*api.Comment, error) {
	if m.CreateCommentFn == nil {
		return nil, errNotImplemented
	}
	return m.CreateCommentFn(ctx, postID, req)
}

func (m *mockAPI) UpdateComment(ctx context.Context, id string, req api.UpdateCommentRequest) (*api.Comment, error) {
	if m.UpdateCommentFn == nil {
		return nil, errNotImplemented
	}
	return m.UpdateCommentFn(ctx, id, req)
}

func (m *mockAPI) DeleteComment(ctx context.Context, id string) error {
	if m.DeleteCommentFn == nil {
		return errNotImplemented
	}
	return m.DeleteCommentFn(ctx, id)
}

func (m *mockAPI) LikeComment(ctx context.Context, id string) (*api.LikeResponse, error) {
	if m.LikeCommentFn == nil {
		return nil, errNotImplemented
	}
	return m.LikeCommentFn(ctx, id)
}

const testServerURL = "http://localhost:8080"

var alice = api.UserProfile{ID: "u1", Email: "a@x.io", Username: "alice", Avatar: "/static/default-avatar.png"}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBolt(t *testing.T) *boltdb.Storage {
	t.Helper()
	db, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// sessionToken подписывает токен с exp, как это делает сервер
func sessionToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   alice.ID,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return token
}

// recorder собирает статусы переходов
type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) listen(st State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, st)
}

func (r *recorder) authStatuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, 0, len(r.states))
	for _, st := range r.states {
		out = append(out, st.Auth.Status)
	}
	return out
}

func (r *recorder) postStatuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, 0, len(r.states))
	for _, st := range r.states {
		out = append(out, st.Posts.Status)
	}
	return out
}

func unauthorized() error {
	return &clientapi.Error{Status: http.StatusUnauthorized, Code: "unauthenticated", Message: "authentication required"}
}
