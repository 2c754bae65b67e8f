// Package identity holds the authenticated caller of a request.
package identity

import (
	"context"

	"github.com/iudanet/folio/internal/models"
)

// Identity аутентифицированный пользователь текущего запроса
type Identity struct {
	ID    string
	Name  string
	Email string
	Role  models.Role
}

// IsZero reports whether no user is set.
func (i Identity) IsZero() bool {
	return i.ID == ""
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return !i.IsZero() && i.Role.IsAdmin()
}

// FromUser builds an Identity from a stored user record.
func FromUser(u *models.User) Identity {
	return Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role.Normalize(),
	}
}

type contextKey struct{}

// ContextWith returns a copy of ctx carrying id.
func ContextWith(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext извлекает Identity из контекста
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	if !ok || id.IsZero() {
		return Identity{}, false
	}
	return id, true
}
