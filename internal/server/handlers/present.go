package handlers

import (
	"github.com/iudanet/gophgram/internal/models"
	"github.com/iudanet/gophgram/pkg/api"
)

// Presenter переводит модели в DTO ответов и строит URL файлов
type Presenter struct {
	uploadPrefix  string
	defaultAvatar string
}

// NewPresenter creates presenter. uploadPrefix is the URL path files are
// served under (e.g. "/uploads/"), defaultAvatar is used for users without one
func NewPresenter(uploadPrefix, defaultAvatar string) *Presenter {
	return &Presenter{uploadPrefix: uploadPrefix, defaultAvatar: defaultAvatar}
}

func (p *Presenter) fileURL(name string) string {
	if name == "" {
		return ""
	}
	return p.uploadPrefix + name
}

func (p *Presenter) avatarURL(name string) string {
	if name == "" {
		return p.defaultAvatar
	}
	return p.fileURL(name)
}

// User returns the profile of the current user
func (p *Presenter) User(u *models.User) api.UserProfile {
	return api.UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		Avatar:    p.avatarURL(u.Avatar),
		CreatedAt: u.CreatedAt,
	}
}

// Author returns public author info
func (p *Presenter) Author(u *models.User) api.Author {
	return api.Author{
		ID:       u.ID,
		Username: u.Username,
		Avatar:   p.avatarURL(u.Avatar),
	}
}

// Post converts a post with its metadata
func (p *Presenter) Post(m *models.PostWithMeta) api.Post {
	likes := nonNil(m.Likes)
	return api.Post{
		ID:           m.ID,
		Title:        m.Title,
		Content:      m.Content,
		Image:        p.fileURL(m.Image),
		Author:       p.Author(&m.Author),
		Likes:        likes,
		LikeCount:    len(likes),
		CommentCount: m.CommentCount,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// Posts converts a list keeping order
func (p *Presenter) Posts(list []*models.PostWithMeta) []api.Post {
	out := make([]api.Post, 0, len(list))
	for _, m := range list {
		out = append(out, p.Post(m))
	}
	return out
}

// Comment converts a comment with its author
func (p *Presenter) Comment(c *models.CommentWithAuthor) api.Comment {
	likes := nonNil(c.Likes)
	return api.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		Content:   c.Content,
		Author:    p.Author(&c.Author),
		Likes:     likes,
		LikeCount: len(likes),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// Comments converts a list keeping order
func (p *Presenter) Comments(list []*models.CommentWithAuthor) []api.Comment {
	out := make([]api.Comment, 0, len(list))
	for _, c := range list {
		out = append(out, p.Comment(c))
	}
	return out
}

// nonNil keeps "likes": [] in JSON instead of null
func nonNil(likes []string) []string {
	if likes == nil {
		return []string{}
	}
	return likes
}
