package api

import "time"

// Author публичная информация об авторе поста или комментария
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Post представляет пост в ответах API
type Post struct {
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Author       Author    `json:"author"`
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Image        string    `json:"image,omitempty"` // URL картинки
	Likes        []string  `json:"likes"`           // ID пользователей, поставивших лайк
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
}

// CreatePostRequest представляет запрос на создание поста.
// Для multipart запроса поля берутся из form values, картинка из поля "image"
type CreatePostRequest struct {
	Title   string `json:"title" validate:"notblank,max=200"`
	Content string `json:"content" validate:"notblank,max=10000"`
}

// UpdatePostRequest представляет частичное обновление поста
type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Content *string `json:"content,omitempty" validate:"omitempty,notblank,max=10000"`
}

// PostResponse представляет ответ с одним постом
type PostResponse struct {
	Post Post `json:"post"`
}

// PostListResponse представляет список постов, новые первыми
type PostListResponse struct {
	Posts []Post `json:"posts"`
}

// LikeResponse представляет состояние лайков после переключения
type LikeResponse struct {
	ID        string   `json:"id"`
	Likes     []string `json:"likes"`
	LikeCount int      `json:"like_count"`
	Liked     bool     `json:"liked"` // true если лайк caller'а теперь стоит
}
