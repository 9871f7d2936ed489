package sqlite

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/internal/server/storage"
)

func TestPostStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)
	post := &models.Post{
		ID:        uuid.New().String(),
		AuthorID:  author.ID,
		Title:     "Hello",
		Content:   "World",
		Image:     "pic.png",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, s.CreatePost(ctx, post))

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "World", got.Content)
	assert.Equal(t, "pic.png", got.Image)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.Equal(t, author.Username, got.Author.Username)
	assert.Empty(t, got.Likes)
	assert.Equal(t, 0, got.CommentCount)
}

func TestPostStorage_CreatePost_UnknownAuthor(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	err := s.CreatePost(ctx, &models.Post{
		ID:        uuid.New().String(),
		AuthorID:  "ghost",
		Title:     "t",
		Content:   "c",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestPostStorage_GetPost_NotFound(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	got, err := s.GetPost(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
	assert.Nil(t, got)
}

func TestPostStorage_ListPosts_NewestFirstWithCounts(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)
	base := time.Now()

	oldest := createTestPost(t, ctx, s, author.ID, base.Add(-2*time.Hour))
	newest := createTestPost(t, ctx, s, author.ID, base)
	middle := createTestPost(t, ctx, s, author.ID, base.Add(-time.Hour))

	for i := 0; i < 3; i++ {
		createTestComment(t, ctx, s, middle.ID, author.ID, base.Add(time.Duration(i)*time.Second))
	}
	createTestComment(t, ctx, s, oldest.ID, author.ID, base)

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 3)

	assert.Equal(t, newest.ID, posts[0].ID)
	assert.Equal(t, middle.ID, posts[1].ID)
	assert.Equal(t, oldest.ID, posts[2].ID)

	assert.Equal(t, 0, posts[0].CommentCount)
	assert.Equal(t, 3, posts[1].CommentCount)
	assert.Equal(t, 1, posts[2].CommentCount)

	for _, p := range posts {
		count, err := s.CountComments(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, count, p.CommentCount)
	}
}

func TestPostStorage_ListPosts_Empty(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	posts, err := s.ListPosts(ctx)
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestPostStorage_UpdatePost(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)
	post := createTestPost(t, ctx, s, author.ID, time.Now())

	post.Title = "updated"
	post.UpdatedAt = time.Now().Add(time.Minute)
	require.NoError(t, s.UpdatePost(ctx, post))

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Title)
	assert.Equal(t, "content", got.Content)
	assert.True(t, post.UpdatedAt.Equal(got.UpdatedAt))
	assert.True(t, post.CreatedAt.Equal(got.CreatedAt))

	err = s.UpdatePost(ctx, &models.Post{ID: "missing"})
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}

func TestPostStorage_DeletePost_CascadesComments(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)
	post := createTestPost(t, ctx, s, author.ID, time.Now())
	comment := createTestComment(t, ctx, s, post.ID, author.ID, time.Now())

	require.NoError(t, s.DeletePost(ctx, post.ID))

	_, err := s.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, storage.ErrPostNotFound)

	_, err = s.GetComment(ctx, comment.ID)
	assert.ErrorIs(t, err, storage.ErrCommentNotFound)

	err = s.DeletePost(ctx, post.ID)
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}

func TestPostStorage_TogglePostLike(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)
	liker := createTestUser(t, ctx, s)
	post := createTestPost(t, ctx, s, author.ID, time.Now())

	likes, liked, err := s.TogglePostLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, []string{liker.ID}, likes)

	likes, liked, err = s.TogglePostLike(ctx, post.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Len(t, likes, 2)

	// повторный toggle тем же пользователем снимает лайк
	likes, liked, err = s.TogglePostLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, []string{author.ID}, likes)

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{author.ID}, got.Likes)

	_, _, err = s.TogglePostLike(ctx, "missing", liker.ID)
	assert.ErrorIs(t, err, storage.ErrPostNotFound)
}

func TestPostStorage_TogglePostLike_Concurrent(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	author := createTestUser(t, ctx, s)
	post := createTestPost(t, ctx, s, author.ID, time.Now())

	const users = 10
	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.TogglePostLike(ctx, post.ID, uuid.New().String())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, got.Likes, users)
}
