package service

import (
	"context"
	"errors"
	"fmt"
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

// CommentService управляет комментариями к постам
type CommentService struct {
	logger   *slog.Logger
	comments storage.CommentStorage
	posts    storage.PostStorage
	now      func() time.Time
}

// NewCommentService создает сервис комментариев
func NewCommentService(logger *slog.Logger, comments storage.CommentStorage, posts storage.PostStorage) *CommentService {
	return &CommentService{
		logger:   logger,
		comments: comments,
		posts:    posts,
		now:      time.Now,
	}
}

// Create добавляет комментарий к существующему посту
func (s *CommentService) Create(ctx context.Context, caller models.Identity, postID string, req api.CreateCommentRequest) (*models.CommentWithAuthor, error) {
	if err := validation.Check(req); err != nil {
		return nil, err
	}

	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return nil, postError(err)
	}

	now := s.now().UTC()
	comment := &models.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		AuthorID:  caller.UserID,
		Content:   strings.TrimSpace(req.Content),
		Likes:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Пост мог быть удален между проверкой и вставкой, это покрывает FK
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, storage.ErrPostNotFound) {
			return nil, apperror.NotFound("post")
		}
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.logger.InfoContext(ctx, "comment created",
		slog.String("comment_id", comment.ID),
		slog.String("post_id", postID),
		slog.String("user_id", caller.UserID))

	return s.get(ctx, comment.ID)
}

// List returns comments of a post newest first.
// Unknown post yields an empty list.
func (s *CommentService) List(ctx context.Context, postID string) ([]*models.CommentWithAuthor, error) {
	comments, err := s.comments.ListComments(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// Count returns number of comments of a post
func (s *CommentService) Count(ctx context.Context, postID string) (int, error) {
	n, err := s.comments.CountComments(ctx, postID)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return n, nil
}

// Authorize returns Forbidden unless caller wrote the comment
func (s *CommentService) Authorize(ctx context.Context, caller models.Identity, commentID string) error {
	_, err := s.owned(ctx, caller, commentID, "update")
	return err
}

// Update меняет текст комментария. Авторство проверяется до валидации
func (s *CommentService) Update(ctx context.Context, caller models.Identity, commentID string, req api.UpdateCommentRequest) (*models.CommentWithAuthor, error) {
	current, err := s.owned(ctx, caller, commentID, "update")
	if err != nil {
		return nil, err
	}

	if err := validation.Check(req); err != nil {
		return nil, err
	}

	if req.Content == nil {
		return current, nil
	}

	comment := current.Comment
	comment.Content = strings.TrimSpace(*req.Content)
	comment.UpdatedAt = s.now().UTC()

	if err := s.comments.UpdateComment(ctx, &comment); err != nil {
		return nil, commentError(err)
	}

	s.logger.InfoContext(ctx, "comment updated", slog.String("comment_id", commentID))

	return s.get(ctx, commentID)
}

// Delete удаляет комментарий автора
func (s *CommentService) Delete(ctx context.Context, caller models.Identity, commentID string) error {
	if _, err := s.owned(ctx, caller, commentID, "delete"); err != nil {
		return err
	}

	if err := s.comments.DeleteComment(ctx, commentID); err != nil {
		return commentError(err)
	}

	s.logger.InfoContext(ctx, "comment deleted", slog.String("comment_id", commentID))

	return nil
}

// ToggleLike adds or removes caller from comment likes
func (s *CommentService) ToggleLike(ctx context.Context, caller models.Identity, commentID string) (*LikeResult, error) {
	likes, liked, err := s.comments.ToggleCommentLike(ctx, commentID, caller.UserID)
	if err != nil {
		return nil, commentError(err)
	}
	return &LikeResult{Likes: likes, Liked: liked}, nil
}

func (s *CommentService) owned(ctx context.Context, caller models.Identity, commentID, action string) (*models.CommentWithAuthor, error) {
	current, err := s.get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(current.AuthorID, caller); err != nil {
		s.logger.WarnContext(ctx, "comment "+action+" by non-author",
			slog.String("comment_id", commentID),
			slog.String("user_id", caller.UserID))
		return nil, err
	}
	return current, nil
}

func (s *CommentService) get(ctx context.Context, commentID string) (*models.CommentWithAuthor, error) {
	comment, err := s.comments.GetComment(ctx, commentID)
	if err != nil {
		return nil, commentError(err)
	}
	return comment, nil
}

func commentError(err error) error {
	if errors.Is(err, storage.ErrCommentNotFound) {
		return apperror.NotFound("comment")
	}
	return fmt.Errorf("comment storage: %w", err)
}
