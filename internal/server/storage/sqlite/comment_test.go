package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/storage"
)

func TestCommentStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)
	post := createTestPost(t, ctx, s, author.ID, time.Now())
	comment := createTestComment(t, ctx, s, post.ID, author.ID, time.Now())

	got, err := s.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, comment.ID, got.ID)
	assert.Equal(t, post.ID, got.PostID)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.Equal(t, author.Username, got.Author.Username)
	assert.Equal(t, "comment", got.Content)
	assert.Empty(t, got.Likes)
}

func TestCommentStorage_CreateComment_UnknownPost(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)

	err := s.CreateComment(ctx, &models.Comment{
		ID:        uuid.New().String(),
		PostID:    "missing-post",
		AuthorID:  author.ID,
		Content:   "hello",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}

func TestCommentStorage_ListComments(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)
	post := createTestPost(t, ctx, s, author.ID, time.Now())
	other := createTestPost(t, ctx, s, author.ID, time.Now())

	base := time.Now()
	first := createTestComment(t, ctx, s, post.ID, author.ID, base.Add(-time.Minute))
	second := createTestComment(t, ctx, s, post.ID, author.ID, base)
	createTestComment(t, ctx, s, other.ID, author.ID, base)

	comments, err := s.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, second.ID, comments[0].ID)
	assert.Equal(t, first.ID, comments[1].ID)

	empty, err := s.ListComments(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	count, err := s.CountComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = s.CountComments(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCommentStorage_UpdateComment(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)
	post := createTestPost(t, ctx, s, author.ID, time.Now())
	comment := createTestComment(t, ctx, s, post.ID, author.ID, time.Now())

	comment.Content = "edited"
	comment.UpdatedAt = time.Now().Add(time.Minute)
	require.NoError(t, s.UpdateComment(ctx, comment))

	got, err := s.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)

	err = s.UpdateComment(ctx, &models.Comment{ID: "missing", UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, storage.ErrCommentNotFound)
}

func TestCommentStorage_DeleteComment(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)
	post := createTestPost(t, ctx, s, author.ID, time.Now())
	comment := createTestComment(t, ctx, s, post.ID, author.ID, time.Now())

	require.NoError(t, s.DeleteComment(ctx, comment.ID))

	_, err := s.GetComment(ctx, comment.ID)
	assert.ErrorIs(t, err, storage.ErrCommentNotFound)

	assert.ErrorIs(t, s.DeleteComment(ctx, comment.ID), storage.ErrCommentNotFound)
}

func TestCommentStorage_ToggleCommentLike(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)
	post := createTestPost(t, ctx, s, author.ID, time.Now())
	comment := createTestComment(t, ctx, s, post.ID, author.ID, time.Now())

	likes, liked, err := s.ToggleCommentLike(ctx, comment.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{author.ID}, likes)

	likes, liked, err = s.ToggleCommentLike(ctx, comment.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Empty(t, likes)

	got, err := s.GetComment(ctx, comment.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Likes)

	_, _, err = s.ToggleCommentLike(ctx, "missing", author.ID)
	assert.ErrorIs(t, err, storage.ErrCommentNotFound)
}
