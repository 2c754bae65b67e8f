package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/server/identity"
	"github.com/iudanet/folio/internal/server/metrics"
	"github.com/iudanet/folio/internal/server/storage"
	"github.com/iudanet/folio/internal/server/token"
	"github.com/iudanet/folio/pkg/api"
)

var testSecret = []byte("middleware-test-secret-0123456789")

// setupTestLogger creates a logger for testing
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockUserLookup мок хранилища пользователей
type mockUserLookup struct {
	users   map[string]*models.User
	err     error
	delay   time.Duration
	lastCtx context.Context
}

func (m *mockUserLookup) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	m.lastCtx = ctx
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u, nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestTokens(t *testing.T, c *clock) *token.Service {
	t.Helper()
	svc, err := token.NewService(token.Config{Secret: testSecret, AccessTTL: time.Hour, Now: c.Now})
	require.NoError(t, err)
	return svc
}

func issueAccess(t *testing.T, svc *token.Service, userID string, role models.Role) string {
	t.Helper()
	tok, _, err := svc.IssueAccessToken(token.Claims{UserID: userID, Role: role})
	require.NoError(t, err)
	return tok
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func mustNotRun(t *testing.T) IdentityHandler {
	return func(w http.ResponseWriter, r *http.Request, id identity.Identity) {
		t.Fatal("Handler should not be called")
	}
}

func testUsers() *mockUserLookup {
	return &mockUserLookup{users: map[string]*models.User{
		"user-1":  {ID: "user-1", Name: "Alice", Email: "alice@example.com", Role: models.RoleUser},
		"admin-1": {ID: "admin-1", Name: "Root", Email: "root@example.com", Role: models.RoleAdmin},
		"legacy":  {ID: "legacy", Name: "Old", Email: "old@example.com", Role: ""},
	}}
}

func TestAuthenticate_Success(t *testing.T) {
	c := &clock{now: time.Now()}
	tokens := newTestTokens(t, c)
	users := testUsers()
	m := metrics.New()
	auth := NewAuthenticator(setupTestLogger(), tokens, users, time.Second, m)

	var got identity.Identity
	handler := auth.Authenticate(func(w http.ResponseWriter, r *http.Request, id identity.Identity) {
		got = id
		fromCtx, ok := identity.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, id, fromCtx)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, tokens, "user-1", models.RoleUser))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, identity.Identity{ID: "user-1", Name: "Alice", Email: "alice@example.com", Role: models.RoleUser}, got)
	expected := `
# HELP folio_authentications_total Bearer token authentications by result.
# TYPE folio_authentications_total counter
folio_authentications_total{result="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "folio_authentications_total"))
}

func TestAuthenticate_RoleComesFromStore(t *testing.T) {
	c := &clock{now: time.Now()}
	tokens := newTestTokens(t, c)
	auth := NewAuthenticator(setupTestLogger(), tokens, testUsers(), 0, nil)

	var got identity.Identity
	handler := auth.Authenticate(func(w http.ResponseWriter, r *http.Request, id identity.Identity) {
		got = id
	})

	// токен утверждает admin, но в хранилище роль user
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, tokens, "user-1", models.RoleAdmin))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, models.RoleUser, got.Role)

	// пустая роль в хранилище становится user
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, tokens, "legacy", ""))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, models.RoleUser, got.Role)
}

func TestAuthenticate_MissingOrMalformedHeader(t *testing.T) {
	c := &clock{now: time.Now()}
	auth := NewAuthenticator(setupTestLogger(), newTestTokens(t, c), testUsers(), 0, nil)
	handler := auth.Authenticate(mustNotRun(t))

	headers := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "no Bearer prefix", header: "token123"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "only Bearer", header: "Bearer"},
		{name: "Bearer with blanks", header: "Bearer    "},
	}

	for _, tt := range headers {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, "Unauthorized", resp.Error)
			assert.Equal(t, "no token provided", resp.Message)
		})
	}
}

func TestAuthenticate_CaseInsensitiveScheme(t *testing.T) {
	c := &clock{now: time.Now()}
	tokens := newTestTokens(t, c)
	auth := NewAuthenticator(setupTestLogger(), tokens, testUsers(), 0, nil)

	called := false
	handler := auth.Authenticate(func(w http.ResponseWriter, r *http.Request, id identity.Identity) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+issueAccess(t, tokens, "user-1", models.RoleUser))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestAuthenticate_InvalidTokens(t *testing.T) {
	c := &clock{now: time.Now()}
	tokens := newTestTokens(t, c)
	auth := NewAuthenticator(setupTestLogger(), tokens, testUsers(), 0, nil)
	handler := auth.Authenticate(mustNotRun(t))

	refresh, _, err := tokens.IssueRefreshToken(token.Claims{UserID: "user-1"})
	require.NoError(t, err)

	other, err := token.NewService(token.Config{Secret: []byte("some-other-secret-0123456789abcdef")})
	require.NoError(t, err)
	foreign := issueAccess(t, other, "user-1", models.RoleUser)

	cases := map[string]string{
		"garbage":             "not.a.jwt",
		"refresh token":       refresh,
		"signed by other key": foreign,
	}

	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "invalid or expired token", decodeError(t, w).Message)
		})
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	c := &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	tokens := newTestTokens(t, c)
	auth := NewAuthenticator(setupTestLogger(), tokens, testUsers(), 0, nil)
	handler := auth.Authenticate(mustNotRun(t))

	tok := issueAccess(t, tokens, "user-1", models.RoleUser)
	c.now = c.now.Add(2 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid or expired token", decodeError(t, w).Message)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	c := &clock{now: time.Now()}
	tokens := newTestTokens(t, c)
	auth := NewAuthenticator(setupTestLogger(), tokens, testUsers(), 0, nil)
	handler := auth.Authenticate(mustNotRun(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, tokens, "ghost", models.RoleAdmin))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// то же сообщение, что и для невалидного токена
	assert.Equal(t, "invalid or expired token", decodeError(t, w).Message)
}

func TestAuthenticate_StoreError(t *testing.T) {
	c := &clock{now: time.Now()}
	tokens := newTestTokens(t, c)
	users := testUsers()
	users.err = errors.New("database is locked")
	auth := NewAuthenticator(setupTestLogger(), tokens, users, 0, nil)
	handler := auth.Authenticate(mustNotRun(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, tokens, "user-1", models.RoleUser))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "authentication error", resp.Message)
	assert.NotContains(t, resp.Message, "locked")
}

func TestAuthenticate_LookupTimeout(t *testing.T) {
	c := &clock{now: time.Now()}
	tokens := newTestTokens(t, c)
	users := testUsers()
	users.delay = time.Second
	auth := NewAuthenticator(setupTestLogger(), tokens, users, 20*time.Millisecond, nil)
	handler := auth.Authenticate(mustNotRun(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueAccess(t, tokens, "user-1", models.RoleUser))
	w := httptest.NewRecorder()

	start := time.Now()
	handler.ServeHTTP(w, req)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	_, hasDeadline := users.lastCtx.Deadline()
	assert.True(t, hasDeadline)
}

func TestRequireAdmin(t *testing.T) {
	c := &clock{now: time.Now()}
	tokens := newTestTokens(t, c)
	m := metrics.New()
	auth := NewAuthenticator(setupTestLogger(), tokens, testUsers(), 0, m)

	handler := auth.Authenticate(RequireAdminWithMetrics(setupTestLogger(), m,
		func(w http.ResponseWriter, r *http.Request, id identity.Identity) {
			w.WriteHeader(http.StatusOK)
		}))

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", nil)
		req.Header.Set("Authorization", "Bearer "+issueAccess(t, tokens, "admin-1", models.RoleAdmin))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("user is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", nil)
		req.Header.Set("Authorization", "Bearer "+issueAccess(t, tokens, "user-1", models.RoleUser))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		resp := decodeError(t, w)
		assert.Equal(t, "Forbidden", resp.Error)
		assert.Equal(t, "admin access required", resp.Message)
	})

	t.Run("unauthenticated never reaches the gate", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireAdmin_FailsClosed(t *testing.T) {
	gate := RequireAdmin(setupTestLogger(), func(w http.ResponseWriter, r *http.Request, id identity.Identity) {
		t.Fatal("Handler should not be called")
	})

	for _, id := range []identity.Identity{
		{},
		{Role: models.RoleAdmin},
		{ID: "u1"},
		{ID: "u1", Role: "superuser"},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		gate(w, req.WithContext(identity.ContextWith(req.Context(), id)), id)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}
}

func TestRequireAdmin_RequiresAttachedIdentity(t *testing.T) {
	calls := 0
	gate := RequireAdmin(setupTestLogger(), func(w http.ResponseWriter, r *http.Request, id identity.Identity) {
		calls++
		w.WriteHeader(http.StatusOK)
	})
	admin := identity.Identity{ID: "admin-1", Name: "root", Role: models.RoleAdmin}

	t.Run("no identity in context", func(t *testing.T) {
		w := httptest.NewRecorder()
		gate(w, httptest.NewRequest(http.MethodPut, "/api/v1/settings", nil), admin)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("context carries another user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", nil)
		other := identity.Identity{ID: "user-1", Role: models.RoleUser}
		w := httptest.NewRecorder()
		gate(w, req.WithContext(identity.ContextWith(req.Context(), other)), admin)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("attached admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/api/v1/settings", nil)
		w := httptest.NewRecorder()
		gate(w, req.WithContext(identity.ContextWith(req.Context(), admin)), admin)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	assert.Equal(t, 1, calls)
}
