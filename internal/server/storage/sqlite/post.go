package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/storage"
)

// postSelect выбирает пост вместе с автором и количеством комментариев.
// comment_count вычисляется при чтении, в таблице не хранится
const postSelect = `
	SELECT p.id, p.author_id, p.title, p.content, p.image, p.likes, p.created_at, p.updated_at,
	       u.id, u.email, u.username, u.avatar, u.created_at, u.updated_at,
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
	FROM posts p
	JOIN users u ON u.id = p.author_id
`

// CreatePost stores a new post
func (s *Storage) CreatePost(ctx context.Context, post *models.Post) error {
	likes, err := encodeLikes(post.Likes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO posts (id, author_id, title, content, image, likes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		post.ID,
		post.AuthorID,
		post.Title,
		post.Content,
		post.Image,
		likes,
		toUnix(post.CreatedAt),
		toUnix(post.UpdatedAt),
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrUserNotFound
		}
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

// GetPost retrieves post with author and comment count
func (s *Storage) GetPost(ctx context.Context, postID string) (*models.PostWithMeta, error) {
	row := s.db.QueryRowContext(ctx, postSelect+` WHERE p.id = ?`, postID)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// ListPosts retrieves all posts newest first
func (s *Storage) ListPosts(ctx context.Context) ([]*models.PostWithMeta, error) {
	rows, err := s.db.QueryContext(ctx, postSelect+` ORDER BY p.created_at DESC, p.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	posts := make([]*models.PostWithMeta, 0)

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return posts, nil
}

// UpdatePost updates title, content, image and updated_at
func (s *Storage) UpdatePost(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = ?, content = ?, image = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		post.Title,
		post.Content,
		post.Image,
		toUnix(post.UpdatedAt),
		post.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrPostNotFound
	}

	return nil
}

// DeletePost deletes post by ID, comments are removed by ON DELETE CASCADE
func (s *Storage) DeletePost(ctx context.Context, postID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrPostNotFound
	}

	return nil
}

// TogglePostLike atomically adds or removes userID from post likes
func (s *Storage) TogglePostLike(ctx context.Context, postID, userID string) ([]string, bool, error) {
	return s.toggleLike(ctx, "posts", postID, userID, storage.ErrPostNotFound)
}

// toggleLike читает множество лайков, переключает userID и записывает
// обратно в одной транзакции
func (s *Storage) toggleLike(ctx context.Context, table, id, userID string, notFound error) ([]string, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var raw string
	// table - константа из вызывающего кода, не пользовательский ввод
	err = tx.QueryRowContext(ctx, `SELECT likes FROM `+table+` WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, notFound
		}
		return nil, false, fmt.Errorf("failed to get likes: %w", err)
	}

	current, err := decodeLikes(raw)
	if err != nil {
		return nil, false, err
	}

	likes, liked := models.ToggleLike(current, userID)

	encoded, err := encodeLikes(likes)
	if err != nil {
		return nil, false, err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE `+table+` SET likes = ? WHERE id = ?`, encoded, id); err != nil {
		return nil, false, fmt.Errorf("failed to update likes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return likes, liked, nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.PostWithMeta, error) {
	post := &models.PostWithMeta{}
	var (
		likes                            string
		createdAt, updatedAt             int64
		authorCreatedAt, authorUpdatedAt int64
	)

	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Title,
		&post.Content,
		&post.Image,
		&likes,
		&createdAt,
		&updatedAt,
		&post.Author.ID,
		&post.Author.Email,
		&post.Author.Username,
		&post.Author.Avatar,
		&authorCreatedAt,
		&authorUpdatedAt,
		&post.CommentCount,
	)
	if err != nil {
		return nil, err
	}

	post.Likes, err = decodeLikes(likes)
	if err != nil {
		return nil, err
	}

	post.CreatedAt = fromUnix(createdAt)
	post.UpdatedAt = fromUnix(updatedAt)
	post.Author.CreatedAt = fromUnix(authorCreatedAt)
	post.Author.UpdatedAt = fromUnix(authorUpdatedAt)

	return post, nil
}
