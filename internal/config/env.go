package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// applyEnv накладывает переменные окружения FOLIO_* на cfg.
// Пустая переменная считается незаданной.
func applyEnv(cfg *Config, getenv func(string) string) error {
	var errs []error

	str := func(name string, dst *string) {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v := getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid integer %q", name, v))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v := getenv(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: invalid boolean %q", name, v))
				return
			}
			*dst = b
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v := getenv(name); v != "" {
			d, err := ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = d
		}
	}

	str("FOLIO_ADDR", &cfg.Addr)
	str("FOLIO_DATABASE_DRIVER", &cfg.DatabaseDriver)
	str("FOLIO_DATABASE_DSN", &cfg.DatabaseDSN)
	str("FOLIO_JWT_SECRET", &cfg.JWTSecret)
	str("FOLIO_LOG_LEVEL", &cfg.LogLevel)
	duration("FOLIO_ACCESS_TOKEN_TTL", &cfg.AccessTokenTTL)
	duration("FOLIO_REFRESH_TOKEN_TTL", &cfg.RefreshTokenTTL)
	duration("FOLIO_LOOKUP_TIMEOUT", &cfg.LookupTimeout)
	duration("FOLIO_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	duration("FOLIO_JANITOR_INTERVAL", &cfg.JanitorInterval)
	integer("FOLIO_PASSWORD_MIN_LENGTH", &cfg.PasswordMinLength)
	integer("FOLIO_BCRYPT_COST", &cfg.BcryptCost)
	integer("FOLIO_LOGIN_RATE_LIMIT", &cfg.LoginRateLimit)
	integer("FOLIO_LOGIN_RATE_BURST", &cfg.LoginRateBurst)
	boolean("FOLIO_TRUST_PROXY_HEADERS", &cfg.TrustProxyHeaders)

	return errors.Join(errs...)
}
