package store

import (
	"context"
	"slices"

	clientapi "github.com/iudanet/gophgram/internal/client/api"
	"github.com/iudanet/gophgram/pkg/api"
)

// FetchPosts загружает ленту целиком
func (s *Store) FetchPosts(ctx context.Context) error {
	s.postsPending()

	posts, err := s.api.ListPosts(ctx)
	if err != nil {
		s.postsRejected(ctx, err)
		return err
	}

	s.update(func(st *State) {
		st.Posts = PostsState{Status: StatusFulfilled, Items: posts}
	})
	return nil
}

// CreatePost создает пост и ставит его в начало ленты
func (s *Store) CreatePost(ctx context.Context, req api.CreatePostRequest, image *clientapi.File) (*api.Post, error) {
	s.postsPending()

	post, err := s.api.CreatePost(ctx, req, image)
	if err != nil {
		s.postsRejected(ctx, err)
		return nil, err
	}

	s.update(func(st *State) {
		st.Posts.Status = StatusFulfilled
		st.Posts.Items = slices.Insert(st.Posts.Items, 0, *post)
	})
	return post, nil
}

// UpdatePost изменяет пост и заменяет его в ленте
func (s *Store) UpdatePost(ctx context.Context, id string, req api.UpdatePostRequest, image *clientapi.File) (*api.Post, error) {
	s.postsPending()

	post, err := s.api.UpdatePost(ctx, id, req, image)
	if err != nil {
		s.postsRejected(ctx, err)
		return nil, err
	}

	s.update(func(st *State) {
		st.Posts.Status = StatusFulfilled
		if i := postIndex(st.Posts.Items, id); i >= 0 {
			st.Posts.Items[i] = *post
		}
	})
	return post, nil
}

// DeletePost удаляет пост из ленты, кэш его комментариев сбрасывается
func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.postsPending()

	if err := s.api.DeletePost(ctx, id); err != nil {
		s.postsRejected(ctx, err)
		return err
	}

	s.update(func(st *State) {
		st.Posts.Status = StatusFulfilled
		st.Posts.Items = slices.DeleteFunc(st.Posts.Items, func(p api.Post) bool { return p.ID == id })
		if st.Comments.PostID == id {
			st.Comments = CommentsState{Status: StatusIdle}
		}
	})
	return nil
}

// TogglePostLike переключает лайк и обновляет пост в ленте
func (s *Store) TogglePostLike(ctx context.Context, id string) (*api.LikeResponse, error) {
	s.postsPending()

	like, err := s.api.LikePost(ctx, id)
	if err != nil {
		s.postsRejected(ctx, err)
		return nil, err
	}

	s.update(func(st *State) {
		st.Posts.Status = StatusFulfilled
		if i := postIndex(st.Posts.Items, id); i >= 0 {
			st.Posts.Items[i].Likes = like.Likes
			st.Posts.Items[i].LikeCount = like.LikeCount
		}
	})
	return like, nil
}

func (s *Store) postsPending() {
	s.update(func(st *State) {
		st.Posts.Status = StatusPending
		st.Posts.Error = nil
	})
}

func (s *Store) postsRejected(ctx context.Context, err error) {
	s.update(func(st *State) {
		st.Posts.Status = StatusRejected
		st.Posts.Error = toError(err)
		s.dropSessionOn401(ctx, st, err)
	})
}

func postIndex(posts []api.Post, id string) int {
	return slices.IndexFunc(posts, func(p api.Post) bool { return p.ID == id })
}
