package auth

import (
	"context"

	"github.com/iudanet/folio/internal/client/storage"
	"github.com/iudanet/folio/internal/models"
	pkgapi "github.com/iudanet/folio/pkg/api"
)

// Service defines the authentication operations the CLI runs.
// Login сохраняет сессию локально, все остальные методы работают от ее имени.
type Service interface {
	// Register регистрирует нового пользователя, сессию не создает
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*models.User, error)

	// Login выполняет аутентификацию и сохраняет сессию
	Login(ctx context.Context, email, password string) (*storage.AuthData, error)

	// Logout отзывает refresh token на сервере (best effort) и удаляет сессию
	Logout(ctx context.Context) error

	// Session returns the stored session or ErrNotLoggedIn
	Session(ctx context.Context) (*storage.AuthData, error)

	// Refresh получает новый access token по refresh token
	Refresh(ctx context.Context) (*storage.AuthData, error)

	Me(ctx context.Context) (*models.User, error)

	// ChangePassword меняет пароль; сервер отзывает все refresh токены,
	// поэтому локальная сессия удаляется
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error

	GetSettings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error)
}
