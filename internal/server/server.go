// Package server собирает HTTP API: маршруты, цепочку middleware,
// фоновую очистку отозванных токенов и graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/folio/internal/config"
	"github.com/iudanet/folio/internal/crypto"
	"github.com/iudanet/folio/internal/server/handlers"
	"github.com/iudanet/folio/internal/server/metrics"
	"github.com/iudanet/folio/internal/server/middleware"
	"github.com/iudanet/folio/internal/server/storage"
	"github.com/iudanet/folio/internal/server/token"
)

// Server HTTP сервер folio
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   storage.Storage
	metrics *metrics.Metrics
	limiter *middleware.RateLimiter
	handler http.Handler
	now     func() time.Time
}

// Option настраивает Server
type Option func(*Server)

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New собирает сервер. tokens и hasher создаются вызывающим из cfg.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	store storage.Storage,
	tokens *token.Service,
	hasher *crypto.Hasher,
	m *metrics.Metrics,
	version string,
	opts ...Option,
) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		metrics: m,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.limiter = middleware.NewRateLimiter(cfg.LoginRateLimit, time.Minute, cfg.LoginRateBurst, logger,
		middleware.WithTrustedProxyHeaders(cfg.TrustProxyHeaders))
	s.handler = s.routes(tokens, hasher, version)

	return s
}

func (s *Server) routes(tokens *token.Service, hasher *crypto.Hasher, version string) http.Handler {
	hopts := handlers.Options{
		Metrics:           s.metrics,
		Now:               s.now,
		PasswordMinLength: s.cfg.PasswordMinLength,
	}

	authHandler := handlers.NewAuthHandler(s.logger, s.store, s.store, tokens, hasher, hopts)
	profileHandler := handlers.NewProfileHandler(s.logger, s.store, s.store, hasher, hopts)
	settingsHandler := handlers.NewSettingsHandler(s.logger, s.store, hopts)
	healthHandler := handlers.NewHealthHandler(s.logger, s.store, version)

	authn := middleware.NewAuthenticator(s.logger, tokens, s.store, s.cfg.LookupTimeout, s.metrics)
	adminOnly := func(next middleware.IdentityHandler) http.Handler {
		return authn.Authenticate(middleware.RequireAdminWithMetrics(s.logger, s.metrics, next))
	}

	mux := http.NewServeMux()

	// Public
	mux.Handle("POST /api/v1/auth/register", s.limiter.Limit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/v1/auth/login", s.limiter.Limit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// Bearer token
	mux.Handle("GET /api/v1/users/me", authn.Authenticate(profileHandler.GetProfile))
	mux.Handle("PUT /api/v1/users/me", authn.Authenticate(profileHandler.UpdateProfile))
	mux.Handle("POST /api/v1/users/me/password", authn.Authenticate(profileHandler.ChangePassword))
	mux.Handle("GET /api/v1/settings", authn.Authenticate(settingsHandler.GetSettings))

	// Bearer token + admin
	mux.Handle("PUT /api/v1/settings", adminOnly(settingsHandler.UpdateSettings))

	var h http.Handler = mux
	h = s.metrics.Instrument(h)
	h = middleware.LoggingWithSkip(s.logger, []string{"/api/v1/health", "/metrics"})(h)
	h = middleware.RecoveryMiddleware(s.logger)(h)
	h = middleware.RequestID(h)

	return h
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close останавливает фоновую очистку rate limiter. Повторный вызов безопасен.
func (s *Server) Close() {
	s.limiter.Stop()
}

// Run слушает cfg.Addr до отмены ctx, затем корректно завершает работу
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		s.runJanitor(janitorCtx)
	}()
	defer func() {
		stopJanitor()
		<-janitorDone
		s.Close()
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", slog.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// runJanitor периодически удаляет записи об отзыве уже истекших токенов
func (s *Server) runJanitor(ctx context.Context) {
	interval := s.cfg.JanitorInterval
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.purgeExpiredRevocations(ctx)
		}
	}
}

func (s *Server) purgeExpiredRevocations(ctx context.Context) {
	n, err := s.store.DeleteExpiredRevocations(ctx, s.now().UTC())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "failed to delete expired revocations", slog.Any("error", err))
		}
		return
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired revocations deleted", slog.Int("count", n))
	}
}
