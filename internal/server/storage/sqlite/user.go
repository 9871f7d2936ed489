package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/storage"
)

const userColumns = `id, email, password_hash, username, avatar, created_at, updated_at`

// CreateUser creates a new user in the storage
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Username,
		user.Avatar,
		toUnix(user.CreatedAt),
		toUnix(user.UpdatedAt),
	)

	if err != nil {
		// Проверяем на duplicate email
		if isUniqueViolation(err, "users.email") {
			return storage.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves user by email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return s.getUser(ctx, query, email)
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.getUser(ctx, query, userID)
}

func (s *Storage) getUser(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var createdAt, updatedAt int64

	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Username,
		&user.Avatar,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.CreatedAt = fromUnix(createdAt)
	user.UpdatedAt = fromUnix(updatedAt)

	return user, nil
}

// UpdateUser updates user profile (username, avatar)
func (s *Storage) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = ?, avatar = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		user.Username,
		user.Avatar,
		toUnix(user.UpdatedAt),
		user.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}
