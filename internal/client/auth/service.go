// Package auth управляет сессией CLI клиента: login, refresh, logout и
// запросы от имени вошедшего пользователя.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/folio/internal/client/api"
	"github.com/iudanet/folio/internal/client/storage"
	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/validation"
	pkgapi "github.com/iudanet/folio/pkg/api"
)

var (
	// ErrNotLoggedIn no local session
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionExpired refresh token rejected by the server; local session is removed
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// APIClient is the subset of api.Client the manager needs.
type APIClient interface {
	BaseURL() string
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*pkgapi.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, accessToken string) (*models.User, error)
	ChangePassword(ctx context.Context, accessToken string, req pkgapi.ChangePasswordRequest) error
	GetSettings(ctx context.Context, accessToken string) (*models.Settings, error)
	UpdateSettings(ctx context.Context, accessToken string, patch models.SettingsPatch) (*models.Settings, error)
}

// Manager implements Service on top of the REST API and local session storage.
type Manager struct {
	api    APIClient
	store  storage.AuthStorage
	logger *slog.Logger
	now    func() time.Time
}

// NewManager создает новый сервис авторизации
func NewManager(apiClient APIClient, store storage.AuthStorage, logger *slog.Logger) *Manager {
	return &Manager{
		api:    apiClient,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Register регистрирует нового пользователя
func (m *Manager) Register(ctx context.Context, req pkgapi.RegisterRequest) (*models.User, error) {
	req.Email = validation.NormalizeEmail(req.Email)

	if err := validation.ValidateUsername(req.Username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return nil, fmt.Errorf("invalid email: %w", err)
	}
	if req.Name == "" || req.Password == "" {
		return nil, fmt.Errorf("name and password are required")
	}

	user, err := m.api.Register(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return user, nil
}

// Login выполняет аутентификацию пользователя и сохраняет сессию
func (m *Manager) Login(ctx context.Context, email, password string) (*storage.AuthData, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	resp, err := m.api.Login(ctx, pkgapi.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if resp.User == nil {
		return nil, fmt.Errorf("login failed: server response has no user")
	}

	sess := &storage.AuthData{
		UserID:       resp.User.ID,
		Email:        resp.User.Email,
		Username:     resp.User.Username,
		Role:         string(resp.User.Role.Normalize()),
		ServerURL:    m.api.BaseURL(),
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    m.now().Unix() + resp.ExpiresIn,
	}
	if err := m.store.SaveAuth(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return sess, nil
}

// Logout выполняет выход из системы
func (m *Manager) Logout(ctx context.Context) error {
	sess, err := m.Session(ctx)
	if err != nil {
		return err
	}

	// Сервер может быть недоступен, локальная сессия удаляется в любом случае
	if err := m.api.Logout(ctx, sess.RefreshToken); err != nil {
		m.logger.WarnContext(ctx, "failed to revoke refresh token on server", slog.Any("error", err))
	}

	if err := m.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local session: %w", err)
	}

	return nil
}

// Session returns the stored session.
func (m *Manager) Session(ctx context.Context) (*storage.AuthData, error) {
	sess, err := m.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

// Refresh обновляет access token
func (m *Manager) Refresh(ctx context.Context) (*storage.AuthData, error) {
	sess, err := m.Session(ctx)
	if err != nil {
		return nil, err
	}
	return m.refresh(ctx, sess)
}

func (m *Manager) refresh(ctx context.Context, sess *storage.AuthData) (*storage.AuthData, error) {
	resp, err := m.api.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		if api.IsUnauthorized(err) {
			m.dropSession(ctx)
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}

	sess.AccessToken = resp.AccessToken
	sess.ExpiresAt = m.now().Unix() + resp.ExpiresIn
	if err := m.store.SaveAuth(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return sess, nil
}

// freshSession возвращает сессию, обновив access token, если он истек по
// часам клиента
func (m *Manager) freshSession(ctx context.Context) (*storage.AuthData, error) {
	sess, err := m.Session(ctx)
	if err != nil {
		return nil, err
	}

	if sess.AccessExpired(m.now()) {
		return m.refresh(ctx, sess)
	}
	return sess, nil
}

// withAccess вызывает fn с действующим access token. Истекший токен
// обновляется заранее, на 401 выполняется одна повторная попытка после refresh.
func (m *Manager) withAccess(ctx context.Context, fn func(ctx context.Context, accessToken string) error) error {
	sess, err := m.freshSession(ctx)
	if err != nil {
		return err
	}

	err = fn(ctx, sess.AccessToken)
	if !api.IsUnauthorized(err) {
		return err
	}

	m.logger.DebugContext(ctx, "access token rejected, refreshing")
	if sess, err = m.refresh(ctx, sess); err != nil {
		return err
	}
	return fn(ctx, sess.AccessToken)
}

// Me возвращает профиль текущего пользователя
func (m *Manager) Me(ctx context.Context) (*models.User, error) {
	var user *models.User
	err := m.withAccess(ctx, func(ctx context.Context, token string) error {
		var err error
		user, err = m.api.Me(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword меняет пароль текущего пользователя
func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return fmt.Errorf("current password and new password are required")
	}

	// Без повтора на 401: сервер отвечает 401 и на неверный текущий пароль
	sess, err := m.freshSession(ctx)
	if err != nil {
		return err
	}

	req := pkgapi.ChangePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}
	if err := m.api.ChangePassword(ctx, sess.AccessToken, req); err != nil {
		return err
	}

	m.dropSession(ctx)
	return nil
}

// GetSettings возвращает настройки сайта
func (m *Manager) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings *models.Settings
	err := m.withAccess(ctx, func(ctx context.Context, token string) error {
		var err error
		settings, err = m.api.GetSettings(ctx, token)
		return err
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateSettings частично обновляет настройки сайта
func (m *Manager) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("no fields to update")
	}

	var settings *models.Settings
	err := m.withAccess(ctx, func(ctx context.Context, token string) error {
		var err error
		settings, err = m.api.UpdateSettings(ctx, token, patch)
		return err
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (m *Manager) dropSession(ctx context.Context) {
	if err := m.store.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		m.logger.WarnContext(ctx, "failed to delete local session", slog.Any("error", err))
	}
}

var _ Service = (*Manager)(nil)
