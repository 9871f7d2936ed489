package storage

import (
	"context"

	"github.com/iudanet/gophgram/internal/models"
)

// UserStorage defines interface for user data persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if email already exists
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves user by email
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UpdateUser updates username and avatar
	// Returns ErrUserNotFound if user doesn't exist
	UpdateUser(ctx context.Context, user *models.User) error
}
