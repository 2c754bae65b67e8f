package models

import "time"

// RevokedToken запись в множестве отозванных refresh токенов
type RevokedToken struct {
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"` // после истечения запись можно удалить
	RevokedAt time.Time `json:"revokedAt"`
	TokenID   string    `json:"tokenId"` // jti токена
	UserID    string    `json:"userId"`
}
