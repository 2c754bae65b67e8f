package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/server/identity"
	"github.com/iudanet/folio/internal/server/metrics"
	"github.com/iudanet/folio/internal/server/storage"
	"github.com/iudanet/folio/internal/server/token"
)

// DefaultLookupTimeout ограничивает поиск пользователя в хранилище
const DefaultLookupTimeout = 5 * time.Second

// Сообщения об ошибках для клиента; точная причина пишется только в лог
const (
	msgNoToken       = "no token provided"
	msgInvalidToken  = "invalid or expired token"
	msgAuthError     = "authentication error"
	msgAdminRequired = "admin access required"
)

// IdentityHandler обрабатывает запрос аутентифицированного пользователя.
// Получить такой handler в цепочке можно только через Authenticator.Authenticate.
type IdentityHandler func(w http.ResponseWriter, r *http.Request, id identity.Identity)

// TokenVerifier проверяет подпись и срок действия токена
type TokenVerifier interface {
	Verify(tokenString string, kind token.Kind) (*token.Parsed, error)
}

// UserLookup загружает пользователя по ID
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// Authenticator проверяет bearer access token и загружает пользователя
type Authenticator struct {
	logger        *slog.Logger
	verifier      TokenVerifier
	users         UserLookup
	metrics       *metrics.Metrics
	lookupTimeout time.Duration
}

// NewAuthenticator создает Authenticator. lookupTimeout <= 0 означает DefaultLookupTimeout.
// m может быть nil.
func NewAuthenticator(logger *slog.Logger, verifier TokenVerifier, users UserLookup, lookupTimeout time.Duration, m *metrics.Metrics) *Authenticator {
	if lookupTimeout <= 0 {
		lookupTimeout = DefaultLookupTimeout
	}
	return &Authenticator{
		logger:        logger,
		verifier:      verifier,
		users:         users,
		metrics:       m,
		lookupTimeout: lookupTimeout,
	}
}

// Authenticate возвращает http.Handler, который вызывает next только для
// запросов с действующим access token существующего пользователя
func (a *Authenticator) Authenticate(next IdentityHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tokenString, ok := bearerToken(r)
		if !ok {
			a.logger.WarnContext(ctx, "Missing or malformed Authorization header",
				slog.String("path", r.URL.Path))
			a.metrics.ObserveAuthentication(metrics.ResultNoToken)
			writeError(w, http.StatusUnauthorized, msgNoToken)
			return
		}

		parsed, err := a.verifier.Verify(tokenString, token.KindAccess)
		if err != nil {
			a.logger.WarnContext(ctx, "Invalid access token", slog.Any("error", err))
			a.metrics.ObserveAuthentication(metrics.ResultInvalidToken)
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		lookupCtx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
		user, err := a.users.GetUserByID(lookupCtx, parsed.UserID)
		cancel()
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				// Токен подписан нами, но пользователь уже удален
				a.logger.WarnContext(ctx, "Token subject not found",
					slog.String("user_id", parsed.UserID))
				a.metrics.ObserveAuthentication(metrics.ResultUnknownUser)
				writeError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			a.logger.ErrorContext(ctx, "Failed to load token subject",
				slog.String("user_id", parsed.UserID),
				slog.Any("error", err))
			a.metrics.ObserveAuthentication(metrics.ResultError)
			writeError(w, http.StatusInternalServerError, msgAuthError)
			return
		}

		// Роль берется из хранилища, а не из токена
		id := identity.FromUser(user)

		a.metrics.ObserveAuthentication(metrics.ResultSuccess)
		setLogUserID(ctx, id.ID)
		a.logger.DebugContext(ctx, "User authenticated",
			slog.String("user_id", id.ID),
			slog.String("role", string(id.Role)))

		next(w, r.WithContext(identity.ContextWith(ctx, id)), id)
	})
}

// RequireAdmin пропускает дальше только пользователей с ролью admin.
// Пустая identity, любая другая роль или identity, не совпадающая с
// прикрепленной Authenticator к контексту запроса, получает 403.
func RequireAdmin(logger *slog.Logger, next IdentityHandler) IdentityHandler {
	return RequireAdminWithMetrics(logger, nil, next)
}

// RequireAdminWithMetrics is RequireAdmin that also counts rejections.
func RequireAdminWithMetrics(logger *slog.Logger, m *metrics.Metrics, next IdentityHandler) IdentityHandler {
	return func(w http.ResponseWriter, r *http.Request, id identity.Identity) {
		attached, ok := identity.FromContext(r.Context())
		if !ok || attached != id || !id.IsAdmin() {
			logger.WarnContext(r.Context(), "Admin access denied",
				slog.String("user_id", id.ID),
				slog.String("role", string(id.Role)),
				slog.String("path", r.URL.Path))
			m.ObserveForbidden()
			writeError(w, http.StatusForbidden, msgAdminRequired)
			return
		}

		next(w, r, id)
	}
}

// bearerToken извлекает токен из заголовка "Authorization: Bearer <token>"
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, tokenString, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return "", false
	}

	return tokenString, true
}
