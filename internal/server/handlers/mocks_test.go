package handlers

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/service"
	"github.com/iudanet/gophgram/pkg/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// mockAuthService is a hand-written AuthService mock
type mockAuthService struct {
	signupFn   func(ctx context.Context, req api.SignupRequest, avatar io.Reader) (*service.Session, error)
	loginFn    func(ctx context.Context, req api.LoginRequest) (*service.Session, error)
	meFn       func(ctx context.Context, caller models.Identity) (*models.User, error)
	updateMeFn func(ctx context.Context, caller models.Identity, req api.UpdateProfileRequest, avatar io.Reader) (*models.User, error)
}

func (m *mockAuthService) Signup(ctx context.Context, req api.SignupRequest, avatar io.Reader) (*service.Session, error) {
	return m.signupFn(ctx, req, avatar)
}

func (m *mockAuthService) Login(ctx context.Context, req api.LoginRequest) (*service.Session, error) {
	return m.loginFn(ctx, req)
}

func (m *mockAuthService) Me(ctx context.Context, caller models.Identity) (*models.User, error) {
	return m.meFn(ctx, caller)
}

func (m *mockAuthService) UpdateMe(ctx context.Context, caller models.Identity, req api.UpdateProfileRequest, avatar io.Reader) (*models.User, error) {
	return m.updateMeFn(ctx, caller, req, avatar)
}

// mockPostService is a hand-written PostService mock
type mockPostService struct {
	createFn func(ctx context.Context, caller models.Identity, req api.CreatePostRequest, image io.Reader) (*models.PostWithMeta, error)
	listFn   func(ctx context.Context) ([]*models.PostWithMeta, error)
	getFn    func(ctx context.Context, postID string) (*models.PostWithMeta, error)
	updateFn func(ctx context.Context, caller models.Identity, postID string, req api.UpdatePostRequest, image io.Reader) (*models.PostWithMeta, error)
	authFn   func(ctx context.Context, caller models.Identity, postID string) error
	deleteFn func(ctx context.Context, caller models.Identity, postID string) error
	likeFn   func(ctx context.Context, caller models.Identity, postID string) (*service.LikeResult, error)
}

func (m *mockPostService) Create(ctx context.Context, caller models.Identity, req api.CreatePostRequest, image io.Reader) (*models.PostWithMeta, error) {
	return m.createFn(ctx, caller, req, image)
}

func (m *mockPostService) List(ctx context.Context) ([]*models.PostWithMeta, error) {
	return m.listFn(ctx)
}

func (m *mockPostService) Get(ctx context.Context, postID string) (*models.PostWithMeta, error) {
	return m.getFn(ctx, postID)
}

// Authorize allows everything unless authFn is set
func (m *mockPostService) Authorize(ctx context.Context, caller models.Identity, postID string) error {
	if m.authFn == nil {
		return nil
	}
	return m.authFn(ctx, caller, postID)
}

func (m *mockPostService) Update(ctx context.Context, caller models.Identity, postID string, req api.UpdatePostRequest, image io.Reader) (*models.PostWithMeta, error) {
	return m.updateFn(ctx, caller, postID, req, image)
}

func (m *mockPostService) Delete(ctx context.Context, caller models.Identity, postID string) error {
	return m.deleteFn(ctx, caller, postID)
}

func (m *mockPostService) ToggleLike(ctx context.Context, caller models.Identity, postID string) (*service.LikeResult, error) {
	return m.likeFn(ctx, caller, postID)
}

// mockCommentService is a hand-written CommentService mock
type mockCommentService struct {
	createFn func(ctx context.Context, caller models.Identity, postID string, req api.CreateCommentRequest) (*models.CommentWithAuthor, error)
	listFn   func(ctx context.Context, postID string) ([]*models.CommentWithAuthor, error)
	countFn  func(ctx context.Context, postID string) (int, error)
	updateFn func(ctx context.Context, caller models.Identity, commentID string, req api.UpdateCommentRequest) (*models.CommentWithAuthor, error)
	authFn   func(ctx context.Context, caller models.Identity, commentID string) error
	deleteFn func(ctx context.Context, caller models.Identity, commentID string) error
	likeFn   func(ctx context.Context, caller models.Identity, commentID string) (*service.LikeResult, error)
}

func (m *mockCommentService) Create(ctx context.Context, caller models.Identity, postID string, req api.CreateCommentRequest) (*models.CommentWithAuthor, error) {
	return m.createFn(ctx, caller, postID, req)
}

func (m *mockCommentService) List(ctx context.Context, postID string) ([]*models.CommentWithAuthor, error) {
	return m.listFn(ctx, postID)
}

func (m *mockCommentService) Count(ctx context.Context, postID string) (int, error) {
	return m.countFn(ctx, postID)
}

func (m *mockCommentService) Authorize(ctx context.Context, caller models.Identity, commentID string) error {
	if m.authFn == nil {
		return nil
	}
	return m.authFn(ctx, caller, commentID)
}

func (m *mockCommentService) Update(ctx context.Context, caller models.Identity, commentID string, req api.UpdateCommentRequest) (*models.CommentWithAuthor, error) {
	return m.updateFn(ctx, caller, commentID, req)
}

func (m *mockCommentService) Delete(ctx context.Context, caller models.Identity, commentID string) error {
	return m.deleteFn(ctx, caller, commentID)
}

func (m *mockCommentService) ToggleLike(ctx context.Context, caller models.Identity, commentID string) (*service.LikeResult, error) {
	return m.likeFn(ctx, caller, commentID)
}

// mockPinger is a hand-written Pinger mock
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

var (
	_ AuthService    = (*service.AuthService)(nil)
	_ PostService    = (*service.PostService)(nil)
	_ CommentService = (*service.CommentService)(nil)
)

func sampleUser() *models.User {
	return &models.User{
		ID:           "u1",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$secret-hash",
		Username:     "alice",
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	}
}

func samplePost() *models.PostWithMeta {
	return &models.PostWithMeta{
		Post: models.Post{
			ID:        "p1",
			AuthorID:  "u1",
			Title:     "Hello",
			Content:   "World",
			Image:     "pic.png",
			Likes:     []string{"u2"},
			CreatedAt: testTime,
			UpdatedAt: testTime,
		},
		Author:       *sampleUser(),
		CommentCount: 3,
	}
}

func sampleComment() *models.CommentWithAuthor {
	return &models.CommentWithAuthor{
		Comment: models.Comment{
			ID:        "c1",
			PostID:    "p1",
			AuthorID:  "u1",
			Content:   "nice",
			CreatedAt: testTime,
			UpdatedAt: testTime,
		},
		Author: *sampleUser(),
	}
}
