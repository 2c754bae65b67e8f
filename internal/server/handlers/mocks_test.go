package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/folio/internal/crypto"
	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/server/storage"
	"github.com/iudanet/folio/internal/server/token"
	"github.com/iudanet/folio/pkg/api"
)

var testSecret = []byte("handlers-test-secret-0123456789ab")

// memStore is an in-memory implementation of storage.Storage for testing
type memStore struct {
	users    map[string]*models.User // id -> User
	revoked  map[string]*models.RevokedToken
	cutoffs  map[string]time.Time
	settings *models.Settings

	createErr         error
	getUserErr        error
	updateProfileErr  error
	updatePasswordErr error
	updateLoginErr    error
	revokeErr         error
	isRevokedErr      error
	cutoffErr         error
	getSettingsErr    error
	saveSettingsErr   error
	pingErr           error

	saveSettingsCalls int
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]*models.User),
		revoked: make(map[string]*models.RevokedToken),
		cutoffs: make(map[string]time.Time),
	}
}

func (m *memStore) CreateUser(_ context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	if err := storage.ValidateUser(user); err != nil {
		return err
	}
	for _, u := range m.users {
		if u.Email == user.Email || u.Username == user.Username {
			return storage.ErrUserAlreadyExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	if m.getUserErr != nil {
		return nil, m.getUserErr
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if m.getUserErr != nil {
		return nil, m.getUserErr
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *memStore) UpdateProfile(_ context.Context, user *models.User) error {
	if m.updateProfileErr != nil {
		return m.updateProfileErr
	}
	existing, ok := m.users[user.ID]
	if !ok {
		return storage.ErrUserNotFound
	}
	for id, u := range m.users {
		if id != user.ID && (u.Email == user.Email || u.Username == user.Username) {
			return storage.ErrUserAlreadyExists
		}
	}
	existing.Name = user.Name
	existing.Username = user.Username
	existing.Email = user.Email
	existing.ProfilePicture = user.ProfilePicture
	existing.UpdatedAt = user.UpdatedAt
	return nil
}

func (m *memStore) UpdatePassword(_ context.Context, userID, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	u, ok := m.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = updatedAt
	return nil
}

func (m *memStore) UpdateLastLogin(_ context.Context, userID string, lastLogin time.Time) error {
	if m.updateLoginErr != nil {
		return m.updateLoginErr
	}
	u, ok := m.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.LastLogin = &lastLogin
	return nil
}

func (m *memStore) SetRole(_ context.Context, userID string, role models.Role) error {
	u, ok := m.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, userID string) error {
	if _, ok := m.users[userID]; !ok {
		return storage.ErrUserNotFound
	}
	delete(m.users, userID)
	delete(m.cutoffs, userID)
	return nil
}

func (m *memStore) RevokeRefreshToken(_ context.Context, t *models.RevokedToken) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	if _, ok := m.revoked[t.TokenID]; !ok {
		m.revoked[t.TokenID] = t
	}
	return nil
}

func (m *memStore) IsRefreshTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	if m.isRevokedErr != nil {
		return false, m.isRevokedErr
	}
	_, ok := m.revoked[tokenID]
	return ok, nil
}

func (m *memStore) RevokeUserTokensBefore(_ context.Context, userID string, cutoff time.Time) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	cutoff = cutoff.Truncate(time.Millisecond)
	if prev, ok := m.cutoffs[userID]; !ok || cutoff.After(prev) {
		m.cutoffs[userID] = cutoff
	}
	return nil
}

func (m *memStore) GetUserTokenCutoff(_ context.Context, userID string) (time.Time, bool, error) {
	if m.cutoffErr != nil {
		return time.Time{}, false, m.cutoffErr
	}
	c, ok := m.cutoffs[userID]
	return c, ok, nil
}

func (m *memStore) DeleteExpiredRevocations(_ context.Context, now time.Time) (int, error) {
	n := 0
	for id, t := range m.revoked {
		if !t.ExpiresAt.After(now) {
			delete(m.revoked, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetSettings(_ context.Context) (*models.Settings, error) {
	if m.getSettingsErr != nil {
		return nil, m.getSettingsErr
	}
	if m.settings == nil {
		return nil, storage.ErrSettingsNotFound
	}
	cp := *m.settings
	return &cp, nil
}

func (m *memStore) SaveSettings(_ context.Context, s *models.Settings) error {
	m.saveSettingsCalls++
	if m.saveSettingsErr != nil {
		return m.saveSettingsErr
	}
	cp := *s
	m.settings = &cp
	return nil
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) Close() error { return nil }

var _ storage.Storage = (*memStore)(nil)

// clock управляемое время для тестов
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *clock {
	return &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHasher() *crypto.Hasher {
	return crypto.NewHasher(bcrypt.MinCost)
}

func newTestTokens(t *testing.T, c *clock) *token.Service {
	t.Helper()
	svc, err := token.NewService(token.Config{
		Secret:     testSecret,
		AccessTTL:  time.Hour,
		RefreshTTL: 7 * 24 * time.Hour,
		Now:        c.Now,
	})
	require.NoError(t, err)
	return svc
}

// seedUser сохраняет пользователя с паролем password напрямую в store
func seedUser(t *testing.T, store *memStore, hasher *crypto.Hasher, id, email, username, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	u := &models.User{
		ID:           id,
		Email:        email,
		Username:     username,
		Name:         strings.ToUpper(username[:1]) + username[1:],
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func newJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	return decodeResponse[api.ErrorResponse](t, w)
}
