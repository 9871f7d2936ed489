package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/storage"
)

const commentSelect = `
	SELECT c.id, c.post_id, c.author_id, c.content, c.likes, c.created_at, c.updated_at,
	       u.id, u.email, u.username, u.avatar, u.created_at, u.updated_at
	FROM comments c
	JOIN users u ON u.id = c.author_id
`

// CreateComment stores a new comment
// Пост должен существовать: проверяется внешним ключом
func (s *Storage) CreateComment(ctx context.Context, comment *models.Comment) error {
	likes, err := encodeLikes(comment.Likes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO comments (id, post_id, author_id, content, likes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		comment.ID,
		comment.PostID,
		comment.AuthorID,
		comment.Content,
		likes,
		toUnix(comment.CreatedAt),
		toUnix(comment.UpdatedAt),
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrPostNotFound
		}
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	return nil
}

// GetComment retrieves comment with author
func (s *Storage) GetComment(ctx context.Context, commentID string) (*models.CommentWithAuthor, error) {
	row := s.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, commentID)

	comment, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

// ListComments retrieves comments of a post newest first
func (s *Storage) ListComments(ctx context.Context, postID string) ([]*models.CommentWithAuthor, error) {
	query := commentSelect + ` WHERE c.post_id = ? ORDER BY c.created_at DESC, c.rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	comments := make([]*models.CommentWithAuthor, 0)

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return comments, nil
}

// CountComments returns number of comments referencing the post
func (s *Storage) CountComments(ctx context.Context, postID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// UpdateComment updates content and updated_at
func (s *Storage) UpdateComment(ctx context.Context, comment *models.Comment) error {
	query := `UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		comment.Content,
		toUnix(comment.UpdatedAt),
		comment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrCommentNotFound
	}

	return nil
}

// DeleteComment deletes comment by ID
func (s *Storage) DeleteComment(ctx context.Context, commentID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrCommentNotFound
	}

	return nil
}

// ToggleCommentLike atomically adds or removes userID from comment likes
func (s *Storage) ToggleCommentLike(ctx context.Context, commentID, userID string) ([]string, bool, error) {
	return s.toggleLike(ctx, "comments", commentID, userID, storage.ErrCommentNotFound)
}

func scanComment(row rowScanner) (*models.CommentWithAuthor, error) {
	comment := &models.CommentWithAuthor{}
	var (
		likes                            string
		createdAt, updatedAt             int64
		authorCreatedAt, authorUpdatedAt int64
	)

	err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&comment.Content,
		&likes,
		&createdAt,
		&updatedAt,
		&comment.Author.ID,
		&comment.Author.Email,
		&comment.Author.Username,
		&comment.Author.Avatar,
		&authorCreatedAt,
		&authorUpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	comment.Likes, err = decodeLikes(likes)
	if err != nil {
		return nil, err
	}

	comment.CreatedAt = fromUnix(createdAt)
	comment.UpdatedAt = fromUnix(updatedAt)
	comment.Author.CreatedAt = fromUnix(authorCreatedAt)
	comment.Author.UpdatedAt = fromUnix(authorUpdatedAt)

	return comment, nil
}
