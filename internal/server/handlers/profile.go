package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/folio/internal/crypto"
	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/server/identity"
	"github.com/iudanet/folio/internal/server/storage"
	"github.com/iudanet/folio/internal/validation"
	"github.com/iudanet/folio/pkg/api"
)

// ProfileHandler обрабатывает запросы к собственному профилю
type ProfileHandler struct {
	responder
	userStorage  storage.UserStorage
	tokenStorage storage.TokenStorage
	hasher       *crypto.Hasher
	opts         Options
}

// NewProfileHandler создает handler профиля
func NewProfileHandler(
	logger *slog.Logger,
	userStorage storage.UserStorage,
	tokenStorage storage.TokenStorage,
	hasher *crypto.Hasher,
	opts Options,
) *ProfileHandler {
	return &ProfileHandler{
		responder:    responder{logger: logger},
		userStorage:  userStorage,
		tokenStorage: tokenStorage,
		hasher:       hasher,
		opts:         opts.withDefaults(),
	}
}

// GetProfile обрабатывает GET /api/v1/users/me
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request, id identity.Identity) {
	user, ok := h.loadUser(w, r, id)
	if !ok {
		return
	}
	h.sendJSON(w, api.UserResponse{User: user}, http.StatusOK)
}

// UpdateProfile обрабатывает PUT /api/v1/users/me
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, id identity.Identity) {
	ctx := r.Context()

	var req api.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode profile request", slog.Any("error", err))
		h.sendError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	if req.Name == nil && req.Username == nil && req.Email == nil && req.ProfilePicture == nil {
		h.sendError(w, "no fields to update", http.StatusBadRequest)
		return
	}

	user, ok := h.loadUser(w, r, id)
	if !ok {
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			h.sendError(w, "name cannot be empty", http.StatusBadRequest)
			return
		}
		user.Name = name
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if err := validation.ValidateUsername(username); err != nil {
			h.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		user.Username = username
	}

	if req.Email != nil {
		email := validation.NormalizeEmail(*req.Email)
		if err := validation.ValidateEmail(email); err != nil {
			h.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		user.Email = email
	}

	if req.ProfilePicture != nil {
		if req.ProfilePicture.URL == "" {
			// пустой URL удаляет картинку
			user.ProfilePicture = nil
		} else {
			pic := *req.ProfilePicture
			user.ProfilePicture = &pic
		}
	}

	user.UpdatedAt = h.opts.Now().UTC()

	if err := h.userStorage.UpdateProfile(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserAlreadyExists):
			h.sendError(w, msgUserExists, http.StatusBadRequest)
		case errors.Is(err, storage.ErrUserNotFound):
			h.sendError(w, "user not found", http.StatusNotFound)
		default:
			h.logger.ErrorContext(ctx, "failed to update profile", slog.Any("error", err))
			h.sendError(w, msgInternal, http.StatusInternalServerError)
		}
		return
	}

	h.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))
	h.sendJSON(w, api.UserResponse{User: user}, http.StatusOK)
}

// ChangePassword обрабатывает POST /api/v1/users/me/password
// После смены пароля все ранее выпущенные refresh токены отзываются
func (h *ProfileHandler) ChangePassword(w http.ResponseWriter, r *http.Request, id identity.Identity) {
	ctx := r.Context()

	var req api.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode change password request", slog.Any("error", err))
		h.sendError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		h.sendError(w, "current password and new password are required", http.StatusBadRequest)
		return
	}

	if err := validation.ValidatePassword(req.NewPassword, h.opts.PasswordMinLength); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, ok := h.loadUser(w, r, id)
	if !ok {
		return
	}

	if !h.hasher.Verify(req.CurrentPassword, user.PasswordHash) {
		h.logger.WarnContext(ctx, "wrong current password", slog.String("user_id", user.ID))
		h.sendError(w, "current password is incorrect", http.StatusUnauthorized)
		return
	}

	hash, err := h.hasher.Hash(req.NewPassword)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	now := h.opts.Now().UTC()
	if err := h.userStorage.UpdatePassword(ctx, user.ID, hash, now); err != nil {
		h.logger.ErrorContext(ctx, "failed to update password", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	if err := h.tokenStorage.RevokeUserTokensBefore(ctx, user.ID, now); err != nil {
		// Пароль уже сменен; старые refresh токены остаются валидными до истечения
		h.logger.ErrorContext(ctx, "failed to revoke refresh tokens after password change",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "password changed", slog.String("user_id", user.ID))
	h.sendJSON(w, api.MessageResponse{Message: "password updated successfully"}, http.StatusOK)
}

// loadUser читает актуальную запись пользователя; при ошибке ответ уже отправлен
func (h *ProfileHandler) loadUser(w http.ResponseWriter, r *http.Request, id identity.Identity) (*models.User, bool) {
	user, err := h.userStorage.GetUserByID(r.Context(), id.ID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.sendError(w, "user not found", http.StatusNotFound)
			return nil, false
		}
		h.logger.ErrorContext(r.Context(), "failed to get user", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return nil, false
	}
	return user, true
}
