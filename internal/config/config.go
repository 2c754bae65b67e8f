// Package config загружает конфигурацию сервера.
//
// Значения применяются слоями: defaults, затем TOML файл (-config или
// FOLIO_CONFIG), затем переменные окружения FOLIO_*, затем флаги командной
// строки. Результат проверяется Validate и дальше не меняется.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// MinSecretLength минимальная длина ключа подписи HS256
	MinSecretLength = 32
)

// ErrMissingSecret возвращается Validate, когда ключ подписи не задан
var ErrMissingSecret = errors.New("jwt secret is not configured (set FOLIO_JWT_SECRET)")

// Config holds runtime settings for the folio server.
type Config struct {
	Addr           string
	DatabaseDriver string
	DatabaseDSN    string
	JWTSecret      string
	LogLevel       string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	LookupTimeout   time.Duration
	ShutdownTimeout time.Duration
	JanitorInterval time.Duration

	PasswordMinLength int
	BcryptCost        int

	// LoginRateLimit запросов в минуту с одного IP на register и login
	LoginRateLimit int
	LoginRateBurst int

	// Только из командной строки
	ConfigFile     string
	BootstrapAdmin string
	ShowVersion    bool

	// TrustProxyHeaders ключует rate limit по X-Forwarded-For / X-Real-IP.
	// Включать только за reverse proxy, иначе клиент подставит любой IP.
	TrustProxyHeaders bool
}

// Default returns the configuration used when nothing is overridden.
// JWTSecret has no default.
func Default() *Config {
	return &Config{
		Addr:              ":8080",
		DatabaseDriver:    DriverSQLite,
		DatabaseDSN:       "folio.db",
		LogLevel:          "info",
		AccessTokenTTL:    time.Hour,
		RefreshTokenTTL:   7 * 24 * time.Hour,
		LookupTimeout:     5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		JanitorInterval:   time.Hour,
		PasswordMinLength: 8,
		BcryptCost:        10,
		LoginRateLimit:    10,
		LoginRateBurst:    5,
	}
}

// Load builds a Config from defaults, the optional TOML file, the environment
// and args (without the program name). getenv is usually os.Getenv.
func Load(args []string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	fs, cli := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cli.ShowVersion {
		cfg.ShowVersion = true
		return cfg, nil
	}

	path := cli.ConfigFile
	if path == "" {
		path = getenv("FOLIO_CONFIG")
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}

	applyFlags(cfg, fs, cli)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration. All problems are reported at once.
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.JWTSecret == "":
		errs = append(errs, ErrMissingSecret)
	case len(c.JWTSecret) < MinSecretLength:
		errs = append(errs, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength))
	}

	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("access token ttl must be positive"))
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, errors.New("refresh token ttl must be longer than access token ttl"))
	}
	if c.LookupTimeout <= 0 {
		errs = append(errs, errors.New("lookup timeout must be positive"))
	}
	if c.PasswordMinLength < 1 {
		errs = append(errs, errors.New("password min length must be positive"))
	}
	if c.LoginRateLimit < 1 || c.LoginRateBurst < 1 {
		errs = append(errs, errors.New("login rate limit and burst must be positive"))
	}

	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q (want %s or %s)",
			c.DatabaseDriver, DriverSQLite, DriverPostgres))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}

	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}
