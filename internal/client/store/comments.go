package store

import (
	"context"
	"slices"

	"github.com/iudanet/gophgram/pkg/api"
)

// FetchComments загружает комментарии поста. Кэш другого поста заменяется
func (s *Store) FetchComments(ctx context.Context, postID string) error {
	s.update(func(st *State) {
		if st.Comments.PostID != postID {
			st.Comments.Items = nil
		}
		st.Comments.PostID = postID
		st.Comments.Status = StatusPending
		st.Comments.Error = nil
	})

	comments, err := s.api.ListComments(ctx, postID)
	if err != nil {
		s.commentsRejected(ctx, err)
		return err
	}

	s.update(func(st *State) {
		st.Comments = CommentsState{Status: StatusFulfilled, PostID: postID, Items: comments}
		if i := postIndex(st.Posts.Items, postID); i >= 0 {
			st.Posts.Items[i].CommentCount = len(comments)
		}
	})
	return nil
}

// CreateComment добавляет комментарий. Если открыт этот пост, комментарий
// встает первым, счетчик поста в ленте увеличивается
func (s *Store) CreateComment(ctx context.Context, postID string, req api.CreateCommentRequest) (*api.Comment, error) {
	s.commentsPending()

	comment, err := s.api.CreateComment(ctx, postID, req)
	if err != nil {
		s.commentsRejected(ctx, err)
		return nil, err
	}

	s.update(func(st *State) {
		st.Comments.Status = StatusFulfilled
		if st.Comments.PostID == postID {
			st.Comments.Items = slices.Insert(st.Comments.Items, 0, *comment)
		}
		if i := postIndex(st.Posts.Items, postID); i >= 0 {
			st.Posts.Items[i].CommentCount++
		}
	})
	return comment, nil
}

// UpdateComment изменяет комментарий в кэше
func (s *Store) UpdateComment(ctx context.Context, id string, req api.UpdateCommentRequest) (*api.Comment, error) {
	s.commentsPending()

	comment, err := s.api.UpdateComment(ctx, id, req)
	if err != nil {
		s.commentsRejected(ctx, err)
		return nil, err
	}

	s.update(func(st *State) {
		st.Comments.Status = StatusFulfilled
		if i := commentIndex(st.Comments.Items, id); i >= 0 {
			st.Comments.Items[i] = *comment
		}
	})
	return comment, nil
}

// DeleteComment удаляет комментарий из кэша
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	s.commentsPending()

	if err := s.api.DeleteComment(ctx, id); err != nil {
		s.commentsRejected(ctx, err)
		return err
	}

	s.update(func(st *State) {
		st.Comments.Status = StatusFulfilled
		i := commentIndex(st.Comments.Items, id)
		if i < 0 {
			return
		}
		postID := st.Comments.Items[i].PostID
		st.Comments.Items = slices.Delete(st.Comments.Items, i, i+1)
		if p := postIndex(st.Posts.Items, postID); p >= 0 && st.Posts.Items[p].CommentCount > 0 {
			st.Posts.Items[p].CommentCount--
		}
	})
	return nil
}

// ToggleCommentLike переключает лайк на комментарии
func (s *Store) ToggleCommentLike(ctx context.Context, id string) (*api.LikeResponse, error) {
	s.commentsPending()

	like, err := s.api.LikeComment(ctx, id)
	if err != nil {
		s.commentsRejected(ctx, err)
		return nil, err
	}

	s.update(func(st *State) {
		st.Comments.Status = StatusFulfilled
		if i := commentIndex(st.Comments.Items, id); i >= 0 {
			st.Comments.Items[i].Likes = like.Likes
			st.Comments.Items[i].LikeCount = like.LikeCount
		}
	})
	return like, nil
}

func (s *Store) commentsPending() {
	s.update(func(st *State) {
		st.Comments.Status = StatusPending
		st.Comments.Error = nil
	})
}

func (s *Store) commentsRejected(ctx context.Context, err error) {
	s.update(func(st *State) {
		st.Comments.Status = StatusRejected
		st.Comments.Error = toError(err)
		s.dropSessionOn401(ctx, st, err)
	})
}

func commentIndex(comments []api.Comment, id string) int {
	return slices.IndexFunc(comments, func(c api.Comment) bool { return c.ID == id })
}
