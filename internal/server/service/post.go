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
	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/storage"
	"github.com/iudanet/gophgram/internal/validation"
	"github.com/iudanet/gophgram/pkg/api"
)

// LikeResult is the liker set after a toggle
type LikeResult struct {
	Likes []string
	Liked bool
}

// PostService управляет постами
type PostService struct {
	logger *slog.Logger
	posts  storage.PostStorage
	images ImageStore
	now    func() time.Time
}

// NewPostService создает сервис постов
func NewPostService(logger *slog.Logger, posts storage.PostStorage, images ImageStore) *PostService {
	return &PostService{
		logger: logger,
		posts:  posts,
		images: images,
		now:    time.Now,
	}
}

// Create создает пост от имени caller. image может быть nil
func (s *PostService) Create(ctx context.Context, caller models.Identity, req api.CreatePostRequest, image io.Reader) (*models.PostWithMeta, error) {
	if err := validation.Check(req); err != nil {
		return nil, err
	}

	imageName, err := saveImage(s.images, image, "image")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	post := &models.Post{
		ID:        uuid.New().String(),
		AuthorID:  caller.UserID,
		Title:     strings.TrimSpace(req.Title),
		Content:   strings.TrimSpace(req.Content),
		Image:     imageName,
		Likes:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.CreatePost(ctx, post); err != nil {
		dropImage(s.logger, s.images, imageName)
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: author no longer exists", apperror.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.logger.InfoContext(ctx, "post created",
		slog.String("post_id", post.ID),
		slog.String("user_id", caller.UserID))

	return s.Get(ctx, post.ID)
}

// List returns all posts newest first with comment counts
func (s *PostService) List(ctx context.Context) ([]*models.PostWithMeta, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// Get returns a single post
func (s *PostService) Get(ctx context.Context, postID string) (*models.PostWithMeta, error) {
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, postError(err)
	}
	return post, nil
}

// Authorize проверяет, что пост существует и caller его автор.
// Вызывается до разбора тела запроса на изменение.
func (s *PostService) Authorize(ctx context.Context, caller models.Identity, postID string) error {
	_, err := s.owned(ctx, caller, postID, "update")
	return err
}

// Update меняет только переданные поля. Авторство проверяется
// до валидации, поэтому чужой пост дает Forbidden при любом теле запроса.
func (s *PostService) Update(ctx context.Context, caller models.Identity, postID string, req api.UpdatePostRequest, image io.Reader) (*models.PostWithMeta, error) {
	current, err := s.owned(ctx, caller, postID, "update")
	if err != nil {
		return nil, err
	}

	if err := validation.Check(req); err != nil {
		return nil, err
	}

	var patch models.PostPatch
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		patch.Title = &title
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		patch.Content = &content
	}

	imageName, err := saveImage(s.images, image, "image")
	if err != nil {
		return nil, err
	}
	if imageName != "" {
		patch.Image = &imageName
	}

	if patch.Empty() {
		return current, nil
	}

	oldImage := current.Image
	post := current.Post
	patch.Apply(&post)
	post.UpdatedAt = s.now().UTC()

	if err := s.posts.UpdatePost(ctx, &post); err != nil {
		dropImage(s.logger, s.images, imageName)
		return nil, postError(err)
	}

	if imageName != "" {
		dropImage(s.logger, s.images, oldImage)
	}

	s.logger.InfoContext(ctx, "post updated", slog.String("post_id", postID))

	return s.Get(ctx, postID)
}

// Delete удаляет пост вместе с комментариями и картинкой
func (s *PostService) Delete(ctx context.Context, caller models.Identity, postID string) error {
	current, err := s.owned(ctx, caller, postID, "delete")
	if err != nil {
		return err
	}

	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return postError(err)
	}

	dropImage(s.logger, s.images, current.Image)

	s.logger.InfoContext(ctx, "post deleted", slog.String("post_id", postID))

	return nil
}

// ToggleLike adds or removes caller from post likes
func (s *PostService) ToggleLike(ctx context.Context, caller models.Identity, postID string) (*LikeResult, error) {
	likes, liked, err := s.posts.TogglePostLike(ctx, postID, caller.UserID)
	if err != nil {
		return nil, postError(err)
	}
	return &LikeResult{Likes: likes, Liked: liked}, nil
}

func postError(err error) error {
	if errors.Is(err, storage.ErrPostNotFound) {
		return apperror.NotFound("post")
	}
	return fmt.Errorf("post storage: %w", err)
}

func (s *PostService) owned(ctx context.Context, caller models.Identity, postID, action string) (*models.PostWithMeta, error) {
	current, err := s.Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(current.AuthorID, caller); err != nil {
		s.logger.WarnContext(ctx, "post "+action+" by non-author",
			slog.String("post_id", postID),
			slog.String("user_id", caller.UserID))
		return nil, err
	}
	return current, nil
}
