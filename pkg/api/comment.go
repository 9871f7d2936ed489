package api

import "time"

// Comment представляет комментарий в ответах API
type Comment struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    Author    `json:"author"`
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Content   string    `json:"content"`
	Likes     []string  `json:"likes"`
	LikeCount int       `json:"like_count"`
}

// CreateCommentRequest представляет запрос на создание комментария
type CreateCommentRequest struct {
	Content string `json:"content" validate:"notblank,max=5000"`
}

// UpdateCommentRequest представляет частичное обновление комментария
type UpdateCommentRequest struct {
	Content *string `json:"content,omitempty" validate:"omitempty,notblank,max=5000"`
}

// CommentResponse представляет ответ с одним комментарием
type CommentResponse struct {
	Comment Comment `json:"comment"`
}

// CommentListResponse представляет список комментариев поста, новые первыми
type CommentListResponse struct {
	Comments []Comment `json:"comments"`
}

// CountResponse представляет количество комментариев поста
type CountResponse struct {
	PostID string `json:"post_id"`
	Count  int    `json:"count"`
}
