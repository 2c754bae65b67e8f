package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/folio/internal/config"
	"github.com/iudanet/folio/internal/crypto"
	"github.com/iudanet/folio/internal/models"
	"github.com/iudanet/folio/internal/server"
	"github.com/iudanet/folio/internal/server/metrics"
	"github.com/iudanet/folio/internal/server/storage"
	"github.com/iudanet/folio/internal/server/storage/postgres"
	"github.com/iudanet/folio/internal/server/storage/sqlite"
	"github.com/iudanet/folio/internal/server/token"
	"github.com/iudanet/folio/internal/validation"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "folio-server: %v\n", err)
		os.Exit(2)
	}

	// Show version and exit if requested
	if cfg.ShowVersion {
		printVersion()
		os.Exit(0)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("folio server starting",
		slog.String("version", Version),
		slog.String("commit", GitCommit),
		slog.String("db_driver", cfg.DatabaseDriver))

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	if cfg.BootstrapAdmin != "" {
		if err := bootstrapAdmin(ctx, store, cfg.BootstrapAdmin); err != nil {
			return err
		}
		logger.Info("admin role granted", slog.String("email", cfg.BootstrapAdmin))
	}

	tokens, err := token.NewService(token.Config{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	m := metrics.New()
	m.SetBuildInfo(Version, GitCommit)

	srv := server.New(cfg, logger, store, tokens, crypto.NewHasher(cfg.BcryptCost), m, Version)
	return srv.Run(ctx)
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres storage: %w", err)
		}
		return s, nil
	default:
		s, err := sqlite.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
		}
		return s, nil
	}
}

// bootstrapAdmin выдает роль admin существующему пользователю.
// Других способов получить admin нет.
func bootstrapAdmin(ctx context.Context, store storage.UserStorage, email string) error {
	user, err := store.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("bootstrap admin %s: %w", email, err)
	}
	if err := store.SetRole(ctx, user.ID, models.RoleAdmin); err != nil {
		return fmt.Errorf("bootstrap admin %s: %w", email, err)
	}
	return nil
}

func printVersion() {
	fmt.Printf("Folio Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
