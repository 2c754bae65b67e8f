package storage

import "errors"

var (
	// ErrAuthNotFound: folio login еще не выполнялся или уже был logout
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrIncompleteSession returned for a session without user id or refresh
	// token. Such a session can never be refreshed, so it is not stored.
	ErrIncompleteSession = errors.New("session has no user id or refresh token")
)

// Validate проверяет, что сессию можно обновить через refresh
func (a *AuthData) Validate() error {
	if a == nil || a.UserID == "" || a.RefreshToken == "" {
		return ErrIncompleteSession
	}
	return nil
}
