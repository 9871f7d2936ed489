package models

import "time"

// User представляет пользователя в системе
type User struct {
	CreatedAt    time.Time `json:"created_at"` // время создания
	UpdatedAt    time.Time `json:"updated_at"` // время последнего обновления
	ID           string    `json:"id"`         // UUID пользователя
	Email        string    `json:"email"`      // уникальный email (lowercase)
	PasswordHash string    `json:"-"`          // bcrypt хеш пароля, никогда не сериализуется
	Username     string    `json:"username"`   // отображаемое имя
	Avatar       string    `json:"avatar"`     // имя файла в uploads, пусто если не задан
}

// Identity is the authenticated caller attached to a request.
// It never carries the password hash.
type Identity struct {
	UserID   string
	Email    string
	Username string
	Avatar   string
}

// Identity returns the caller identity for this user
func (u *User) Identity() Identity {
	return Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Username: u.Username,
		Avatar:   u.Avatar,
	}
}
