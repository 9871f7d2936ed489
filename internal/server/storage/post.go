package storage

import (
	"context"

	"github.com/iudanet/gophgram/internal/models"
)

// PostStorage defines interface for post persistence
type PostStorage interface {
	// CreatePost stores a new post
	CreatePost(ctx context.Context, post *models.Post) error

	// GetPost retrieves post with author and comment count
	// Returns ErrPostNotFound if post doesn't exist
	GetPost(ctx context.Context, postID string) (*models.PostWithMeta, error)

	// ListPosts retrieves all posts newest first, each with author and comment count
	// Returns empty slice if no posts found
	ListPosts(ctx context.Context) ([]*models.PostWithMeta, error)

	// UpdatePost updates title, content, image and updated_at
	// Returns ErrPostNotFound if post doesn't exist
	UpdatePost(ctx context.Context, post *models.Post) error

	// DeletePost deletes post and its comments
	// Returns ErrPostNotFound if post doesn't exist
	DeletePost(ctx context.Context, postID string) error

	// TogglePostLike atomically adds or removes userID from post likes
	// Returns the new liker set and whether userID is now in it
	TogglePostLike(ctx context.Context, postID, userID string) ([]string, bool, error)
}
