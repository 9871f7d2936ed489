package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/gophgram/internal/crypto"
	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/storage/sqlite"
	"github.com/iudanet/gophgram/internal/server/token"
	"github.com/iudanet/gophgram/internal/server/uploads"
	"github.com/iudanet/gophgram/pkg/api"
)

func init() {
	crypto.HashCost = bcrypt.MinCost
}

// memImages is an in-memory ImageStore
type memImages struct {
	saveErr error
	files   map[string]string
	deleted []string
	seq     int
	mu      sync.Mutex
}

func newMemImages() *memImages {
	return &memImages{files: make(map[string]string)}
}

func (m *memImages) Save(r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	name := fmt.Sprintf("img%d.png", m.seq)
	m.files[name] = string(data)
	return name, nil
}

func (m *memImages) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, name)
	m.deleted = append(m.deleted, name)
	return nil
}

// steppingClock returns a time one second later on every call
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type testEnv struct {
	store    *sqlite.Storage
	images   *memImages
	auth     *AuthService
	posts    *PostService
	comments *CommentService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	images := newMemImages()
	clock := steppingClock()

	env := &testEnv{
		store:    store,
		images:   images,
		auth:     NewAuthService(logger, store, token.NewService("test-secret", time.Hour), images),
		posts:    NewPostService(logger, store, images),
		comments: NewCommentService(logger, store, store),
	}
	env.auth.now = clock
	env.posts.now = clock
	env.comments.now = clock

	return env
}

// signup registers a user and returns its identity
func (e *testEnv) signup(t *testing.T, name string) models.Identity {
	t.Helper()
	sess, err := e.auth.Signup(context.Background(), api.SignupRequest{
		Email:    name + "@example.com",
		Password: "secret123",
		Username: name,
	}, nil)
	require.NoError(t, err)
	return sess.User.Identity()
}

func (e *testEnv) post(t *testing.T, author models.Identity, title string) *models.PostWithMeta {
	t.Helper()
	p, err := e.posts.Create(context.Background(), author, api.CreatePostRequest{Title: title, Content: "body of " + title}, nil)
	require.NoError(t, err)
	return p
}

func ptr(s string) *string { return &s }

var errBoom = errors.New("boom")

func pngReader() io.Reader {
	return strings.NewReader("\x89PNG\r\n\x1a\n fake")
}

// compile-time check that the real upload store satisfies ImageStore
var _ ImageStore = (*uploads.Store)(nil)

type failingIssuer struct{}

func (failingIssuer) Issue(string) (string, time.Time, error) {
	return "", time.Time{}, errBoom
}
