package models

import "time"

// Role определяет уровень привилегий пользователя
type Role string

const (
	// RoleAdmin может управлять настройками сайта и модерировать контент
	RoleAdmin Role = "admin"
	// RoleUser наименее привилегированная роль, используется по умолчанию
	RoleUser Role = "user"
)

// Normalize returns the role as stored, or RoleUser when it is empty or unknown.
func (r Role) Normalize() Role {
	switch r {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// IsAdmin reports whether the role grants admin access.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// ProfilePicture ссылка на изображение во внешнем хранилище
type ProfilePicture struct {
	URL       string `json:"url"`
	StorageID string `json:"storageId"` // идентификатор для удаления из хранилища при замене
}

// User представляет учетную запись в системе
type User struct {
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	LastLogin      *time.Time      `json:"lastLogin,omitempty"`
	ProfilePicture *ProfilePicture `json:"profilePicture,omitempty"`
	ID             string          `json:"id"`       // UUID пользователя
	Email          string          `json:"email"`    // уникальный, хранится в нижнем регистре
	Username       string          `json:"username"` // уникальный username
	Name           string          `json:"name"`     // отображаемое имя
	PasswordHash   string          `json:"-"`        // bcrypt хеш, никогда не сериализуется
	Role           Role            `json:"role"`
}
