package api

import "time"

// SignupRequest представляет запрос на регистрацию нового пользователя
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"` // открытый текст, только в запросе
	Username string `json:"username" validate:"required,min=2,max=32"`
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest представляет частичное обновление профиля.
// nil означает "поле не передано"
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=2,max=32"`
}

// UserProfile публичное представление пользователя, без password hash
type UserProfile struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Avatar    string    `json:"avatar"` // URL аватара или placeholder
}

// AuthResponse представляет ответ signup/login/me
type AuthResponse struct {
	User UserProfile `json:"user"`
}

// MessageResponse представляет ответ с текстовым сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// FieldError описывает ошибку валидации конкретного поля
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string       `json:"error"`             // описание ошибки
	Message string       `json:"message,omitempty"` // дополнительное сообщение
	Fields  []FieldError `json:"fields,omitempty"`  // ошибки по полям (только для 400 validation)
}
