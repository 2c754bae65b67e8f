package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/server/identity"
	"github.com/iudanet/folio/pkg/api"
)

func strPtr(s string) *string { return &s }

type profileFixture struct {
	store   *memStore
	clock   *clock
	handler *ProfileHandler
	user    *models.User
	id      identity.Identity
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	f := &profileFixture{store: newMemStore(), clock: newClock()}
	hasher := newTestHasher()
	f.user = seedUser(t, f.store, hasher, "user-1", "a@x.com", "alice", "longenough1", models.RoleUser)
	f.id = identity.FromUser(f.user)
	f.handler = NewProfileHandler(setupTestLogger(), f.store, f.store, hasher, Options{Now: f.clock.Now})
	return f
}

func TestProfileHandler_GetProfile(t *testing.T) {
	f := newProfileFixture(t)

	w := httptest.NewRecorder()
	f.handler.GetProfile(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil), f.id)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	resp := decodeResponse[api.UserResponse](t, w)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestProfileHandler_GetProfile_DeletedUser(t *testing.T) {
	f := newProfileFixture(t)
	require.NoError(t, f.store.DeleteUser(t.Context(), "user-1"))

	w := httptest.NewRecorder()
	f.handler.GetProfile(w, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil), f.id)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileHandler_UpdateProfile(t *testing.T) {
	f := newProfileFixture(t)

	w := httptest.NewRecorder()
	f.handler.UpdateProfile(w, newJSONRequest(t, http.MethodPut, "/api/v1/users/me", api.UpdateProfileRequest{
		Name:  strPtr("Alice Cooper"),
		Email: strPtr("  Alice@Example.com "),
		ProfilePicture: &models.ProfilePicture{
			URL:       "https://cdn.example.com/a.png",
			StorageID: "a.png",
		},
	}), f.id)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeResponse[api.UserResponse](t, w)
	assert.Equal(t, "Alice Cooper", resp.User.Name)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, "alice", resp.User.Username)

	stored := f.store.users["user-1"]
	assert.Equal(t, "alice@example.com", stored.Email)
	require.NotNil(t, stored.ProfilePicture)
	assert.Equal(t, "a.png", stored.ProfilePicture.StorageID)
	assert.Equal(t, f.clock.Now(), stored.UpdatedAt)

	// Пустой URL удаляет картинку
	w = httptest.NewRecorder()
	f.handler.UpdateProfile(w, newJSONRequest(t, http.MethodPut, "/api/v1/users/me", api.UpdateProfileRequest{
		ProfilePicture: &models.ProfilePicture{},
	}), f.id)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, f.store.users["user-1"].ProfilePicture)
}

func TestProfileHandler_UpdateProfile_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		req     api.UpdateProfileRequest
		status  int
		message string
	}{
		{
			name:    "no fields",
			req:     api.UpdateProfileRequest{},
			status:  http.StatusBadRequest,
			message: "no fields to update",
		},
		{
			name:    "blank name",
			req:     api.UpdateProfileRequest{Name: strPtr(" ")},
			status:  http.StatusBadRequest,
			message: "name cannot be empty",
		},
		{
			name:    "invalid username",
			req:     api.UpdateProfileRequest{Username: strPtr("bad name")},
			status:  http.StatusBadRequest,
			message: "username can only contain",
		},
		{
			name:    "invalid email",
			req:     api.UpdateProfileRequest{Email: strPtr("nope")},
			status:  http.StatusBadRequest,
			message: "invalid email format",
		},
		{
			name:    "taken username",
			req:     api.UpdateProfileRequest{Username: strPtr("bob")},
			status:  http.StatusBadRequest,
			message: "User already exists",
		},
		{
			name:    "taken email",
			req:     api.UpdateProfileRequest{Email: strPtr("b@x.com")},
			status:  http.StatusBadRequest,
			message: "User already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProfileFixture(t)
			seedUser(t, f.store, newTestHasher(), "user-2", "b@x.com", "bob", "longenough2", models.RoleUser)

			w := httptest.NewRecorder()
			f.handler.UpdateProfile(w, newJSONRequest(t, http.MethodPut, "/api/v1/users/me", tt.req), f.id)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, decodeError(t, w).Message, tt.message)
			assert.Equal(t, "alice", f.store.users["user-1"].Username)
			assert.Equal(t, "a@x.com", f.store.users["user-1"].Email)
		})
	}
}

func TestProfileHandler_UpdateProfile_StorageError(t *testing.T) {
	f := newProfileFixture(t)
	f.store.updateProfileErr = errors.New("database is locked")

	w := httptest.NewRecorder()
	f.handler.UpdateProfile(w, newJSONRequest(t, http.MethodPut, "/api/v1/users/me", api.UpdateProfileRequest{
		Name: strPtr("Alice"),
	}), f.id)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestProfileHandler_ChangePassword(t *testing.T) {
	f := newProfileFixture(t)
	hasher := newTestHasher()

	change := func(current, next string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		f.handler.ChangePassword(w, newJSONRequest(t, http.MethodPost, "/api/v1/users/me/password", api.ChangePasswordRequest{
			CurrentPassword: current,
			NewPassword:     next,
		}), f.id)
		return w
	}

	w := change("wrong-password", "brandnew123")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "current password is incorrect", decodeError(t, w).Message)

	w = change("longenough1", "short")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "at least 8")

	w = change("", "brandnew123")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Ничего не поменялось после отказов
	assert.True(t, hasher.Verify("longenough1", f.store.users["user-1"].PasswordHash))
	assert.Empty(t, f.store.cutoffs)

	w = change("longenough1", "brandnew123")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "password updated successfully", decodeResponse[api.MessageResponse](t, w).Message)

	stored := f.store.users["user-1"]
	assert.False(t, hasher.Verify("longenough1", stored.PasswordHash))
	assert.True(t, hasher.Verify("brandnew123", stored.PasswordHash))
	assert.Equal(t, f.clock.Now(), stored.UpdatedAt)

	// Все ранее выпущенные refresh токены отозваны
	cutoff, ok, err := f.store.GetUserTokenCutoff(t.Context(), "user-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, f.clock.Now(), cutoff)
}

func TestProfileHandler_ChangePassword_RevokesRefreshTokens(t *testing.T) {
	af := newAuthFixture(t)
	seedUser(t, af.store, newTestHasher(), "user-1", "a@x.com", "alice", "longenough1", models.RoleUser)
	before := af.login(t, "a@x.com", "longenough1")

	ph := NewProfileHandler(setupTestLogger(), af.store, af.store, newTestHasher(), Options{Now: af.clock.Now})
	id := identity.Identity{ID: "user-1", Role: models.RoleUser}

	af.clock.Advance(time.Minute)
	w := httptest.NewRecorder()
	ph.ChangePassword(w, newJSONRequest(t, http.MethodPost, "/api/v1/users/me/password", api.ChangePasswordRequest{
		CurrentPassword: "longenough1",
		NewPassword:     "brandnew123",
	}), id)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusUnauthorized, af.refresh(t, before.RefreshToken).Code)

	af.clock.Advance(300 * time.Millisecond)
	after := af.login(t, "a@x.com", "brandnew123")
	assert.Equal(t, http.StatusOK, af.refresh(t, after.RefreshToken).Code)
}

func TestProfileHandler_ChangePassword_StorageErrors(t *testing.T) {
	t.Run("update password", func(t *testing.T) {
		f := newProfileFixture(t)
		f.store.updatePasswordErr = errors.New("disk I/O error")

		w := httptest.NewRecorder()
		f.handler.ChangePassword(w, newJSONRequest(t, http.MethodPost, "/api/v1/users/me/password", api.ChangePasswordRequest{
			CurrentPassword: "longenough1",
			NewPassword:     "brandnew123",
		}), f.id)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, f.store.cutoffs)
	})

	t.Run("revoke tokens", func(t *testing.T) {
		f := newProfileFixture(t)
		f.store.revokeErr = errors.New("disk I/O error")

		w := httptest.NewRecorder()
		f.handler.ChangePassword(w, newJSONRequest(t, http.MethodPost, "/api/v1/users/me/password", api.ChangePasswordRequest{
			CurrentPassword: "longenough1",
			NewPassword:     "brandnew123",
		}), f.id)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
