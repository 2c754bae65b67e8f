// Package api содержит DTO публичного REST API
package api

import "github.com/iudanet/folio/internal/models"

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// UserResponse оборачивает пользователя в ответах register и profile
type UserResponse struct {
	User *models.User `json:"user"`
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse представляет ответ с пользователем и парой токенов
type LoginResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"` // время жизни access token в секундах
}

// RefreshRequest запрос на получение нового access token
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse представляет ответ с новым access token
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// LogoutRequest отзывает refresh token
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest запрос на смену пароля
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdateProfileRequest частичное обновление профиля; nil поля не меняются
type UpdateProfileRequest struct {
	Name           *string                `json:"name,omitempty"`
	Username       *string                `json:"username,omitempty"`
	Email          *string                `json:"email,omitempty"`
	ProfilePicture *models.ProfilePicture `json:"profilePicture,omitempty"`
}

// MessageResponse простой ответ с сообщением
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // статус HTTP текстом
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
