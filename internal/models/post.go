package models

import "time"

// Post представляет пост пользователя
type Post struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"` // не меняется после создания
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     string    `json:"image"` // имя файла в uploads, пусто если нет
	Likes     []string  `json:"likes"` // ID пользователей без повторов
}

// PostWithMeta пост вместе с автором и вычисленным количеством комментариев
type PostWithMeta struct {
	Post
	Author       User
	CommentCount int
}

// Comment представляет комментарий к посту
type Comment struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	Likes     []string  `json:"likes"`
}

// CommentWithAuthor комментарий вместе с автором
type CommentWithAuthor struct {
	Comment
	Author User
}

// PostPatch частичное обновление поста, nil поля не меняются
type PostPatch struct {
	Title   *string
	Content *string
	Image   *string
}

// Apply применяет patch к посту
func (p PostPatch) Apply(post *Post) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Image != nil {
		post.Image = *p.Image
	}
}

// Empty reports whether patch changes nothing
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Image == nil
}
