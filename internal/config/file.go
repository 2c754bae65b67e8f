package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig TOML представление Config. Длительности задаются строками
// вида "1h" или "7d".
type fileConfig struct {
	Addr              string   `toml:"addr"`
	DatabaseDriver    string   `toml:"database_driver"`
	DatabaseDSN       string   `toml:"database_dsn"`
	JWTSecret         string   `toml:"jwt_secret"`
	LogLevel          string   `toml:"log_level"`
	AccessTokenTTL    Duration `toml:"access_token_ttl"`
	RefreshTokenTTL   Duration `toml:"refresh_token_ttl"`
	LookupTimeout     Duration `toml:"lookup_timeout"`
	ShutdownTimeout   Duration `toml:"shutdown_timeout"`
	JanitorInterval   Duration `toml:"janitor_interval"`
	PasswordMinLength int      `toml:"password_min_length"`
	BcryptCost        int      `toml:"bcrypt_cost"`
	LoginRateLimit    int      `toml:"login_rate_limit"`
	LoginRateBurst    int      `toml:"login_rate_burst"`
	TrustProxyHeaders bool     `toml:"trust_proxy_headers"`
}

// loadFile накладывает на cfg только ключи, явно заданные в файле.
// Неизвестные ключи считаются ошибкой.
func loadFile(cfg *Config, path string) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fmt.Errorf("failed to decode TOML config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys in config %s: %s", path, strings.Join(keys, ", "))
	}

	set := func(key string, apply func()) {
		if md.IsDefined(key) {
			apply()
		}
	}

	set("addr", func() { cfg.Addr = fc.Addr })
	set("database_driver", func() { cfg.DatabaseDriver = fc.DatabaseDriver })
	set("database_dsn", func() { cfg.DatabaseDSN = fc.DatabaseDSN })
	set("jwt_secret", func() { cfg.JWTSecret = fc.JWTSecret })
	set("log_level", func() { cfg.LogLevel = fc.LogLevel })
	set("access_token_ttl", func() { cfg.AccessTokenTTL = time.Duration(fc.AccessTokenTTL) })
	set("refresh_token_ttl", func() { cfg.RefreshTokenTTL = time.Duration(fc.RefreshTokenTTL) })
	set("lookup_timeout", func() { cfg.LookupTimeout = time.Duration(fc.LookupTimeout) })
	set("shutdown_timeout", func() { cfg.ShutdownTimeout = time.Duration(fc.ShutdownTimeout) })
	set("janitor_interval", func() { cfg.JanitorInterval = time.Duration(fc.JanitorInterval) })
	set("password_min_length", func() { cfg.PasswordMinLength = fc.PasswordMinLength })
	set("bcrypt_cost", func() { cfg.BcryptCost = fc.BcryptCost })
	set("login_rate_limit", func() { cfg.LoginRateLimit = fc.LoginRateLimit })
	set("login_rate_burst", func() { cfg.LoginRateBurst = fc.LoginRateBurst })
	set("trust_proxy_headers", func() { cfg.TrustProxyHeaders = fc.TrustProxyHeaders })

	return nil
}
