package storage

import (
	"context"

	"github.com/iudanet/gophgram/internal/models"
)

// CommentStorage defines interface for comment persistence
type CommentStorage interface {
	// CreateComment stores a new comment
	// Returns ErrPostNotFound if referenced post doesn't exist
	CreateComment(ctx context.Context, comment *models.Comment) error

	// GetComment retrieves comment with author
	// Returns ErrCommentNotFound if comment doesn't exist
	GetComment(ctx context.Context, commentID string) (*models.CommentWithAuthor, error)

	// ListComments retrieves comments of a post newest first
	// Returns empty slice if no comments found
	ListComments(ctx context.Context, postID string) ([]*models.CommentWithAuthor, error)

	// CountComments returns number of comments referencing the post
	CountComments(ctx context.Context, postID string) (int, error)

	// UpdateComment updates content and updated_at
	// Returns ErrCommentNotFound if comment doesn't exist
	UpdateComment(ctx context.Context, comment *models.Comment) error

	// DeleteComment deletes comment by ID
	// Returns ErrCommentNotFound if comment doesn't exist
	DeleteComment(ctx context.Context, commentID string) error

	// ToggleCommentLike atomically adds or removes userID from comment likes
	ToggleCommentLike(ctx context.Context, commentID, userID string) ([]string, bool, error)
}
