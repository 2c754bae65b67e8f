package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/folio/internal/crypto"
	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/server/metrics"
	"github.com/iudanet/folio/internal/server/storage"
	"github.com/iudanet/folio/internal/server/token"
	"github.com/iudanet/folio/internal/validation"
	"github.com/iudanet/folio/pkg/api"
)

// TokenService выпускает и проверяет токены
type TokenService interface {
	IssueAccessToken(c token.Claims) (string, time.Time, error)
	IssueRefreshToken(c token.Claims) (string, time.Time, error)
	Verify(tokenString string, kind token.Kind) (*token.Parsed, error)
	DecodeUnsafe(tokenString string) (*token.Parsed, bool)
	AccessTTL() time.Duration
}

// Options общие параметры handlers
type Options struct {
	Metrics           *metrics.Metrics
	Now               func() time.Time
	PasswordMinLength int
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.PasswordMinLength <= 0 {
		o.PasswordMinLength = validation.DefaultPasswordMinLength
	}
	return o
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	responder
	userStorage  storage.UserStorage
	tokenStorage storage.TokenStorage
	tokens       TokenService
	hasher       *crypto.Hasher
	metrics      *metrics.Metrics
	now          func() time.Time
	minPassword  int
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(
	logger *slog.Logger,
	userStorage storage.UserStorage,
	tokenStorage storage.TokenStorage,
	tokens TokenService,
	hasher *crypto.Hasher,
	opts Options,
) *AuthHandler {
	opts = opts.withDefaults()
	return &AuthHandler{
		responder:    responder{logger: logger},
		userStorage:  userStorage,
		tokenStorage: tokenStorage,
		tokens:       tokens,
		hasher:       hasher,
		metrics:      opts.Metrics,
		now:          opts.Now,
		minPassword:  opts.PasswordMinLength,
	}
}

// Register обрабатывает POST /api/v1/auth/register
// Регистрация нового пользователя с ролью user
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		h.sendError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	email := validation.NormalizeEmail(req.Email)

	// Проверка обязательных полей
	if req.Name == "" || email == "" || req.Password == "" || req.Username == "" {
		h.sendError(w, "name, email, password and username are required", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateEmail(email); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		h.logger.WarnContext(ctx, "invalid username", slog.String("username", req.Username), slog.Any("error", err))
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := validation.ValidatePassword(req.Password, h.minPassword); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	now := h.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         models.RoleUser, // admin назначается только оператором
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists",
				slog.String("username", req.Username),
				slog.String("email", email))
			h.sendError(w, msgUserExists, http.StatusBadRequest)
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	h.sendJSON(w, api.UserResponse{User: user}, http.StatusCreated)
}

// Login обрабатывает POST /api/v1/auth/login
// Неизвестный email и неверный пароль неотличимы для клиента
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		h.sendError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	email := validation.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		h.sendError(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.userStorage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Выравниваем время ответа с веткой неверного пароля
			h.hasher.VerifyAbsent(req.Password)
			h.logger.WarnContext(ctx, "login for unknown email")
			h.metrics.ObserveLogin(metrics.ResultInvalidCreds)
			h.sendError(w, msgInvalidCredentials, http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.metrics.ObserveLogin(metrics.ResultError)
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	if !h.hasher.Verify(req.Password, user.PasswordHash) {
		h.logger.WarnContext(ctx, "invalid password", slog.String("user_id", user.ID))
		h.metrics.ObserveLogin(metrics.ResultInvalidCreds)
		h.sendError(w, msgInvalidCredentials, http.StatusUnauthorized)
		return
	}

	claims := claimsFor(user)

	accessToken, _, err := h.tokens.IssueAccessToken(claims)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	refreshToken, _, err := h.tokens.IssueRefreshToken(claims)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate refresh token", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	loginAt := h.now().UTC()
	if err := h.userStorage.UpdateLastLogin(ctx, user.ID, loginAt); err != nil {
		h.logger.ErrorContext(ctx, "failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}
	user.LastLogin = &loginAt

	h.metrics.ObserveLogin(metrics.ResultSuccess)
	h.logger.InfoContext(ctx, "user logged in successfully", slog.String("user_id", user.ID))

	h.sendJSON(w, api.LoginResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(h.tokens.AccessTTL().Seconds()),
	}, http.StatusOK)
}

// Refresh обрабатывает POST /api/v1/auth/refresh
// Выдает новый access token; refresh token не ротируется
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode refresh request", slog.Any("error", err))
		h.sendError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	if req.RefreshToken == "" {
		h.sendError(w, "refresh token is required", http.StatusBadRequest)
		return
	}

	parsed, err := h.tokens.Verify(req.RefreshToken, token.KindRefresh)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid refresh token", slog.Any("error", err))
		h.metrics.ObserveRefresh(metrics.ResultInvalidToken)
		h.sendError(w, "invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	revoked, err := h.isRevoked(ctx, parsed)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check refresh token revocation", slog.Any("error", err))
		h.metrics.ObserveRefresh(metrics.ResultError)
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}
	if revoked {
		h.logger.WarnContext(ctx, "revoked refresh token used",
			slog.String("user_id", parsed.UserID),
			slog.String("token_id", parsed.ID))
		h.metrics.ObserveRefresh(metrics.ResultRevoked)
		h.sendError(w, "invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	// Пользователь мог быть удален или сменить роль
	user, err := h.userStorage.GetUserByID(ctx, parsed.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "refresh for deleted user", slog.String("user_id", parsed.UserID))
			h.metrics.ObserveRefresh(metrics.ResultUnknownUser)
			h.sendError(w, "invalid or expired refresh token", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		h.metrics.ObserveRefresh(metrics.ResultError)
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	accessToken, _, err := h.tokens.IssueAccessToken(claimsFor(user))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	h.metrics.ObserveRefresh(metrics.ResultSuccess)
	h.logger.InfoContext(ctx, "access token refreshed", slog.String("user_id", user.ID))

	h.sendJSON(w, api.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(h.tokens.AccessTTL().Seconds()),
	}, http.StatusOK)
}

// isRevoked проверяет jti и per-user cutoff
func (h *AuthHandler) isRevoked(ctx context.Context, parsed *token.Parsed) (bool, error) {
	revoked, err := h.tokenStorage.IsRefreshTokenRevoked(ctx, parsed.ID)
	if err != nil || revoked {
		return revoked, err
	}

	cutoff, ok, err := h.tokenStorage.GetUserTokenCutoff(ctx, parsed.UserID)
	if err != nil {
		return false, err
	}

	// Сравнение с точностью до миллисекунды; выпущенный в ту же мс токен отозван
	return ok && !parsed.IssuedAtPrecise().After(cutoff), nil
}

// Logout обрабатывает POST /api/v1/auth/logout
// Отзывает refresh token. Повторный logout или уже невалидный токен дают 204.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LogoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode logout request", slog.Any("error", err))
		h.sendError(w, msgInvalidBody, http.StatusBadRequest)
		return
	}

	if req.RefreshToken == "" {
		h.sendError(w, "refresh token is required", http.StatusBadRequest)
		return
	}

	parsed, err := h.tokens.Verify(req.RefreshToken, token.KindRefresh)
	if err != nil {
		// Невалидный токен и так не может быть использован
		attrs := []any{slog.Any("error", err)}
		if unverified, ok := h.tokens.DecodeUnsafe(req.RefreshToken); ok {
			attrs = append(attrs, slog.String("claimed_user_id", unverified.UserID))
		}
		h.logger.WarnContext(ctx, "logout with invalid refresh token", attrs...)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	err = h.tokenStorage.RevokeRefreshToken(ctx, &models.RevokedToken{
		TokenID:   parsed.ID,
		UserID:    parsed.UserID,
		IssuedAt:  parsed.IssuedAt,
		ExpiresAt: parsed.ExpiresAt,
		RevokedAt: h.now().UTC(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke refresh token", slog.Any("error", err))
		h.sendError(w, msgInternal, http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", parsed.UserID),
		slog.String("token_id", parsed.ID))

	w.WriteHeader(http.StatusNoContent)
}

func claimsFor(u *models.User) token.Claims {
	return token.Claims{
		UserID: u.ID,
		Name:   u.Name,
		Role:   u.Role.Normalize(),
	}
}
